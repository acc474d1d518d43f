package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chessboard/internal/domain/board"
	apperrors "chessboard/internal/errors"
)

func newSessionStorage(t *testing.T, ttl time.Duration) (*RedisSessionStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionRedisStorage(client, zap.NewNop().Sugar(), ttl), mr
}

func TestLoadMissingSession(t *testing.T) {
	store, _ := newSessionStorage(t, time.Hour)
	_, err := store.LoadSessionPath(context.Background(), "nobody")
	if !errors.Is(err, apperrors.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSaveSessionAppliesTTL(t *testing.T) {
	store, mr := newSessionStorage(t, 30*time.Minute)
	ctx := context.Background()

	if err := store.SaveSessionPath(ctx, "s1", board.Path{"e2e4", "e7e5"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got, err := mr.Get("session:s1"); err != nil || got != "e2e4/e7e5" {
		t.Fatalf("stored value = %q, %v", got, err)
	}
	if ttl := mr.TTL("session:s1"); ttl != 30*time.Minute {
		t.Fatalf("ttl = %v, want 30m", ttl)
	}

	path, err := store.LoadSessionPath(ctx, "s1")
	if err != nil || path.String() != "e2e4/e7e5" {
		t.Fatalf("load = %q, %v", path.String(), err)
	}

	mr.FastForward(31 * time.Minute)
	if _, err := store.LoadSessionPath(ctx, "s1"); !errors.Is(err, apperrors.ErrSessionNotFound) {
		t.Fatalf("expired session: err = %v", err)
	}
}

func TestSaveSessionRefreshesTTL(t *testing.T) {
	store, mr := newSessionStorage(t, 10*time.Minute)
	ctx := context.Background()

	if err := store.SaveSessionPath(ctx, "s1", board.Path{"d2d4"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(8 * time.Minute)
	if err := store.SaveSessionPath(ctx, "s1", board.Path{"d2d4", "d7d5"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL("session:s1"); ttl != 10*time.Minute {
		t.Fatalf("ttl after second save = %v", ttl)
	}
}

func TestCorruptSessionPathIsNotFound(t *testing.T) {
	store, mr := newSessionStorage(t, time.Hour)
	if err := mr.Set("session:s1", "zz99"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err := store.LoadSessionPath(context.Background(), "s1")
	if !errors.Is(err, apperrors.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestDeleteSession(t *testing.T) {
	store, mr := newSessionStorage(t, time.Hour)
	ctx := context.Background()
	if err := store.SaveSessionPath(ctx, "s1", board.Path{"e2e4"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("session:s1") {
		t.Fatalf("session key still present")
	}
}

func TestSessionStoreUnavailable(t *testing.T) {
	store, mr := newSessionStorage(t, time.Hour)
	mr.Close()
	_, err := store.LoadSessionPath(context.Background(), "s1")
	if err == nil || errors.Is(err, apperrors.ErrSessionNotFound) {
		t.Fatalf("err = %v, want a store failure", err)
	}
}
