package httpserver

import (
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/hushkeep/hushkeep/internal/errs"
	"github.com/hushkeep/hushkeep/internal/service"
)

// APIKeyHeader carries the programmatic credential. Session requests use
// Authorization: Bearer instead; a request selects exactly one path.
const APIKeyHeader = "X-API-Key"

// statusWriter captures the response code for logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	if sw.status == 0 {
		sw.status = code
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if sw.status == 0 {
		sw.status = http.StatusOK
	}
	return sw.ResponseWriter.Write(b)
}

// Logging logs request metadata. No payloads, metadata only.
func Logging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			if sw.status == 0 {
				sw.status = http.StatusOK
			}
			log.Info("http",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Duration("dur", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
			)
		})
	}
}

// Recover converts panics into 500s.
func Recover(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic",
						zap.Any("reason", rec),
						zap.ByteString("stack", debug.Stack()),
						zap.String("path", r.URL.Path),
					)
					writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionAuth verifies the bearer session token and injects the user id.
// The reason for a rejection goes to logs; the response is always a bare 401.
func SessionAuth(verifier service.CredentialVerifier, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := verifier.VerifySession(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				if errors.Is(err, errs.ErrUnauthorized) {
					log.Warn("session auth failed", zap.Error(err), zap.String("path", r.URL.Path))
				} else {
					log.Error("identity provider failure", zap.Error(err))
				}
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// APIKeyAuth verifies the X-API-Key header and injects the user id.
func APIKeyAuth(verifier service.CredentialVerifier, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
				return
			}
			userID, err := verifier.VerifyAPIKey(r.Context(), key)
			if err != nil {
				if errors.Is(err, errs.ErrUnauthorized) {
					log.Warn("api key auth failed", zap.Error(err), zap.String("path", r.URL.Path))
				} else {
					log.Error("api key lookup failure", zap.Error(err))
				}
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
