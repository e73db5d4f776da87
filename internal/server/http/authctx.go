package httpserver

import "context"

type ctxKey string

const userIDKey ctxKey = "hk.userID"

// WithUserID stores the verified user id in context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromCtx fetches the verified user id from context.
func UserIDFromCtx(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
