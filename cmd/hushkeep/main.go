// Command hushkeep is a CLI client for the hushkeep service. Values are
// encrypted locally before upload; the private key never leaves this machine.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ---- config/credential store ----

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "hushkeep")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "hushkeep")
}

func tokenPath() string      { return filepath.Join(cfgDir(), "token") }
func apiKeyPath() string     { return filepath.Join(cfgDir(), "apikey") }
func publicKeyPath() string  { return filepath.Join(cfgDir(), "public.pem") }
func privateKeyPath() string { return filepath.Join(cfgDir(), "private.pem") }

func saveFile(path, data string) error {
	_ = os.MkdirAll(cfgDir(), 0o700)
	return os.WriteFile(path, []byte(data), 0o600)
}

func loadFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// sessionToken is the injected credential provider: read from disk per
// request, never cached in a global.
func sessionToken() (string, error) {
	t, err := loadFile(tokenPath())
	if err != nil || t == "" {
		return "", errors.New("no session token; run: hushkeep login --token <token>")
	}
	return t, nil
}

// ---- http client ----

type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type apiError struct {
	Status int
	Msg    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Msg)
}

// doSession sends a request on the session surface with the bearer token.
func (c *client) doSession(method, path string, body, out any) error {
	token, err := sessionToken()
	if err != nil {
		return err
	}
	return c.do(method, path, map[string]string{"Authorization": "Bearer " + token}, body, out)
}

// doAPIKey sends a request on the programmatic surface with the API key.
func (c *client) doAPIKey(method, path, apiKey string, out any) error {
	return c.do(method, path, map[string]string{"X-API-Key": apiKey}, nil, out)
}

func (c *client) do(method, path string, headers map[string]string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var eb struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		return &apiError{Status: resp.StatusCode, Msg: eb.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// ---- dispatch ----

const usage = `usage: hushkeep <command> [flags]

commands:
  login         store a session token
  whoami        check the stored session token
  keygen        generate and store an RSA key pair
  register-key  upload the stored public key
  apikey        show (or create) the API key
  apikey-regen  replace the API key
  put           store a secret (encrypted locally when a key is registered)
  list          list secrets (masked values)
  get           fetch a secret via API key and decrypt
  del           delete a secret by id

common flags:
  -addr         server base URL (default $HUSHKEEP_ADDR or http://localhost:8080)
`

func serverAddr(fs *flag.FlagSet) *string {
	def := os.Getenv("HUSHKEEP_ADDR")
	if def == "" {
		def = "http://localhost:8080"
	}
	return fs.String("addr", def, "server base URL")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "login":
		err = cmdLogin(args)
	case "whoami":
		err = cmdWhoami(args)
	case "keygen":
		err = cmdKeygen(args)
	case "register-key":
		err = cmdRegisterKey(args)
	case "apikey":
		err = cmdAPIKey(args)
	case "apikey-regen":
		err = cmdAPIKeyRegen(args)
	case "put":
		err = cmdPut(args)
	case "list":
		err = cmdList(args)
	case "get":
		err = cmdGet(args)
	case "del":
		err = cmdDel(args)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
