package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hushkeep/hushkeep/internal/crypto/clientcipher"
)

func cmdLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	token := fs.String("token", "", "session token issued by the identity provider")
	_ = fs.Parse(args)
	if *token == "" {
		return errors.New("--token is required")
	}
	if err := saveFile(tokenPath(), *token); err != nil {
		return err
	}
	fmt.Println("token saved")
	return nil
}

func cmdWhoami(args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ExitOnError)
	addr := serverAddr(fs)
	_ = fs.Parse(args)

	var out struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := newClient(*addr).doSession(http.MethodGet, "/api/auth/user", nil, &out); err != nil {
		return err
	}
	printJSON(out)
	return nil
}

// cmdKeygen generates the pair locally; nothing leaves the machine until
// register-key uploads the public half.
func cmdKeygen(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	force := fs.Bool("force", false, "overwrite an existing key pair")
	_ = fs.Parse(args)

	if !*force {
		if _, err := loadFile(privateKeyPath()); err == nil {
			return errors.New("key pair already exists; use --force to overwrite (existing ciphertexts stay readable only with the old key)")
		}
	}
	pair, err := clientcipher.GenerateKeyPair()
	if err != nil {
		return err
	}
	if err := saveFile(publicKeyPath(), pair.Public); err != nil {
		return err
	}
	if err := saveFile(privateKeyPath(), pair.Private); err != nil {
		return err
	}
	fmt.Println("key pair written to", cfgDir())
	return nil
}

func cmdRegisterKey(args []string) error {
	fs := flag.NewFlagSet("register-key", flag.ExitOnError)
	addr := serverAddr(fs)
	_ = fs.Parse(args)

	pub, err := loadFile(publicKeyPath())
	if err != nil {
		return errors.New("no public key; run: hushkeep keygen")
	}
	var out struct {
		Message string `json:"message"`
	}
	body := map[string]string{"publicKey": pub}
	if err := newClient(*addr).doSession(http.MethodPost, "/api/publickey", body, &out); err != nil {
		return err
	}
	fmt.Println(out.Message)
	return nil
}

func cmdAPIKey(args []string) error {
	return fetchAPIKey(args, http.MethodGet)
}

func cmdAPIKeyRegen(args []string) error {
	return fetchAPIKey(args, http.MethodPost)
}

func fetchAPIKey(args []string, method string) error {
	fs := flag.NewFlagSet("apikey", flag.ExitOnError)
	addr := serverAddr(fs)
	_ = fs.Parse(args)

	var out struct {
		APIKey string `json:"apiKey"`
	}
	if err := newClient(*addr).doSession(method, "/api/apikey", nil, &out); err != nil {
		return err
	}
	if err := saveFile(apiKeyPath(), out.APIKey); err != nil {
		return err
	}
	fmt.Println(out.APIKey)
	return nil
}

// cmdPut encrypts the value with the registered public key before upload.
// Values over the OAEP ceiling go through the envelope mode. --plain skips
// encryption entirely.
func cmdPut(args []string) error {
	fs := flag.NewFlagSet("put", flag.ExitOnError)
	addr := serverAddr(fs)
	key := fs.String("key", "", "secret name")
	value := fs.String("value", "", "secret value")
	plain := fs.Bool("plain", false, "store without client-side encryption")
	_ = fs.Parse(args)
	if *key == "" || *value == "" {
		return errors.New("--key and --value are required")
	}

	c := newClient(*addr)
	send := *value
	if !*plain {
		var pk struct {
			PublicKey *string `json:"publicKey"`
		}
		if err := c.doSession(http.MethodGet, "/api/publickey", nil, &pk); err != nil {
			return err
		}
		if pk.PublicKey == nil {
			return errors.New("no public key registered; run keygen + register-key, or use --plain")
		}
		limit, err := clientcipher.MaxEncryptLen(*pk.PublicKey)
		if err != nil {
			return err
		}
		if len(*value) <= limit {
			send, err = clientcipher.Encrypt(*value, *pk.PublicKey)
		} else {
			send, err = clientcipher.Seal(*value, *pk.PublicKey)
		}
		if err != nil {
			return err
		}
	}

	var out struct {
		Secret struct {
			ID  string `json:"id"`
			Key string `json:"key"`
		} `json:"secret"`
	}
	body := map[string]string{"key": *key, "value": send}
	if err := c.doSession(http.MethodPost, "/api/secrets", body, &out); err != nil {
		return err
	}
	fmt.Printf("stored %s (id %s)\n", out.Secret.Key, out.Secret.ID)
	return nil
}

func cmdList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	addr := serverAddr(fs)
	_ = fs.Parse(args)

	var out struct {
		Secrets []struct {
			ID        string `json:"id"`
			Key       string `json:"key"`
			Value     string `json:"value"`
			CreatedAt string `json:"createdAt"`
		} `json:"secrets"`
	}
	if err := newClient(*addr).doSession(http.MethodGet, "/api/secrets", nil, &out); err != nil {
		return err
	}
	printJSON(out)
	return nil
}

// cmdGet retrieves through the raw API-key surface and decrypts locally.
func cmdGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	addr := serverAddr(fs)
	key := fs.String("key", "", "secret name")
	raw := fs.Bool("raw", false, "print the stored value without decrypting")
	_ = fs.Parse(args)
	if *key == "" {
		return errors.New("--key is required")
	}

	apiKey, err := loadFile(apiKeyPath())
	if err != nil || apiKey == "" {
		return errors.New("no API key; run: hushkeep apikey")
	}

	var out struct {
		Secret struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		} `json:"secret"`
	}
	path := "/api/v1/secrets?key=" + url.QueryEscape(*key)
	if err := newClient(*addr).doAPIKey(http.MethodGet, path, apiKey, &out); err != nil {
		return err
	}
	if *raw {
		fmt.Println(out.Secret.Value)
		return nil
	}

	priv, err := loadFile(privateKeyPath())
	if err != nil {
		return errors.New("no private key; use --raw to print the stored value")
	}
	var pt string
	if clientcipher.IsEnvelope(out.Secret.Value) {
		pt, err = clientcipher.Open(out.Secret.Value, priv)
	} else {
		pt, err = clientcipher.Decrypt(out.Secret.Value, priv)
	}
	if err != nil {
		// stored as plaintext, or encrypted with a different key
		return fmt.Errorf("decrypt failed (try --raw): %w", err)
	}
	fmt.Println(pt)
	return nil
}

func cmdDel(args []string) error {
	fs := flag.NewFlagSet("del", flag.ExitOnError)
	addr := serverAddr(fs)
	id := fs.String("id", "", "secret id")
	_ = fs.Parse(args)
	if *id == "" {
		return errors.New("--id is required")
	}

	var out struct {
		Message string `json:"message"`
	}
	path := "/api/secrets?id=" + url.QueryEscape(*id)
	if err := newClient(*addr).doSession(http.MethodDelete, path, nil, &out); err != nil {
		return err
	}
	fmt.Println(out.Message)
	return nil
}
