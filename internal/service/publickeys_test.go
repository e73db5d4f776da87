package service

import (
	"context"
	"errors"
	"testing"

	"github.com/hushkeep/hushkeep/internal/crypto/clientcipher"
	"github.com/hushkeep/hushkeep/internal/errs"
	"github.com/hushkeep/hushkeep/internal/model"
	"github.com/hushkeep/hushkeep/internal/repository"
)

type fakePublicKeyRepo struct {
	keys map[string]string
}

var _ repository.PublicKeyRepository = (*fakePublicKeyRepo)(nil)

func newFakePublicKeyRepo() *fakePublicKeyRepo {
	return &fakePublicKeyRepo{keys: make(map[string]string)}
}

func (f *fakePublicKeyRepo) Get(_ context.Context, userID string) (*model.PublicKeyRecord, error) {
	k, ok := f.keys[userID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &model.PublicKeyRecord{UserID: userID, Key: k}, nil
}

func (f *fakePublicKeyRepo) Upsert(_ context.Context, userID, key string) error {
	f.keys[userID] = key
	return nil
}

func TestPublicKeyService_SetAndGet(t *testing.T) {
	t.Parallel()

	pair, err := clientcipher.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	repo := newFakePublicKeyRepo()
	svc := NewPublicKeyService(repo)
	ctx := context.Background()

	if err := svc.Set(ctx, "user-1", pair.Public); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := svc.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != pair.Public {
		t.Fatal("key material changed in transit")
	}
}

func TestPublicKeyService_GetUnregistered(t *testing.T) {
	t.Parallel()

	svc := NewPublicKeyService(newFakePublicKeyRepo())

	got, err := svc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "" {
		t.Fatalf("got=%q, want empty for unregistered user", got)
	}
}

func TestPublicKeyService_SetRejectsMalformed(t *testing.T) {
	t.Parallel()

	repo := newFakePublicKeyRepo()
	svc := NewPublicKeyService(repo)
	ctx := context.Background()

	for _, bad := range []string{
		"",
		"not a pem",
		"-----BEGIN PUBLIC KEY-----\ngarbage\n-----END PUBLIC KEY-----",
	} {
		if err := svc.Set(ctx, "user-1", bad); !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("Set(%q): err=%v, want ErrValidation", bad, err)
		}
	}
	if len(repo.keys) != 0 {
		t.Fatal("malformed key reached the store")
	}
}

func TestPublicKeyService_SetReplacesInPlace(t *testing.T) {
	t.Parallel()

	first, err := clientcipher.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	second, err := clientcipher.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	repo := newFakePublicKeyRepo()
	svc := NewPublicKeyService(repo)
	ctx := context.Background()

	if err := svc.Set(ctx, "user-1", first.Public); err != nil {
		t.Fatalf("first Set: %v", err)
	}
	if err := svc.Set(ctx, "user-1", second.Public); err != nil {
		t.Fatalf("second Set: %v", err)
	}
	got, err := svc.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != second.Public {
		t.Fatal("registry did not replace the key")
	}
}
