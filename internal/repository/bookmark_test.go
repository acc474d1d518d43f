package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"

	"chessboard/internal/domain/board"
	apperrors "chessboard/internal/errors"
)

const bookmarkNS = "test.bookmarks"

func TestShortKey(t *testing.T) {
	seen := make(map[string]bool)
	for _, secret := range []string{"a", "b", "6f1c1d3e-8a33-4a4e-9f0e-2d9d0c4b7f10", ""} {
		key := shortKey(secret)
		if len(key) != 5 {
			t.Fatalf("shortKey(%q) = %q, want five digits", secret, key)
		}
		for _, r := range key {
			if r < '0' || r > '9' {
				t.Fatalf("shortKey(%q) = %q has a non digit", secret, key)
			}
		}
		if key != shortKey(secret) {
			t.Fatalf("shortKey is not deterministic for %q", secret)
		}
		seen[key] = true
	}
	if len(seen) < 3 {
		t.Fatalf("expected distinct keys, got %v", seen)
	}
}

func TestSessionKey(t *testing.T) {
	if got := sessionKey("abc"); got != "session:abc" {
		t.Fatalf("sessionKey = %q", got)
	}
}

func takenKey() bson.D {
	return mtest.CreateCursorResponse(0, bookmarkNS, mtest.FirstBatch, bson.D{{Key: "public_key", Value: "taken"}})
}

func freeKey() bson.D {
	return mtest.CreateCursorResponse(0, bookmarkNS, mtest.FirstBatch)
}

func commandNames(mt *mtest.T) []string {
	var names []string
	for _, evt := range mt.GetAllStartedEvents() {
		names = append(names, evt.CommandName)
	}
	return names
}

func TestCreateBookmark(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("retries after a key collision", func(mt *mtest.T) {
		repo := NewBookmarkRepository(zap.NewNop().Sugar(), mt.DB)
		mt.AddMockResponses(takenKey(), freeKey(), mtest.CreateSuccessResponse())

		bookmark, err := repo.CreateBookmark(context.Background(), board.Path{"e2e4", "e7e5"})
		if err != nil {
			mt.Fatalf("create: %v", err)
		}
		if len(bookmark.PublicKey) != 5 || bookmark.PublicKey != shortKey(bookmark.SecretKey) {
			mt.Fatalf("public key %q does not derive from secret %q", bookmark.PublicKey, bookmark.SecretKey)
		}
		if bookmark.Path != "e2e4/e7e5" || bookmark.CreatedAt.IsZero() {
			mt.Fatalf("bookmark = %+v", bookmark)
		}

		names := commandNames(mt)
		if len(names) != 3 || names[0] != "find" || names[1] != "find" || names[2] != "insert" {
			mt.Fatalf("commands = %v, want find find insert", names)
		}
		started := mt.GetAllStartedEvents()
		filtered := started[1].Command.Lookup("filter", "public_key").StringValue()
		if filtered != bookmark.PublicKey {
			mt.Fatalf("second lookup used key %q, stored %q", filtered, bookmark.PublicKey)
		}
	})

	mt.Run("gives up when every key is taken", func(mt *mtest.T) {
		repo := NewBookmarkRepository(zap.NewNop().Sugar(), mt.DB)
		for i := 0; i < maxKeyAttempts; i++ {
			mt.AddMockResponses(takenKey())
		}

		_, err := repo.CreateBookmark(context.Background(), board.Path{"d2d4"})
		if !errors.Is(err, apperrors.ErrInternal) {
			mt.Fatalf("err = %v, want ErrInternal", err)
		}
		names := commandNames(mt)
		if len(names) != maxKeyAttempts {
			mt.Fatalf("%d commands sent, want %d lookups", len(names), maxKeyAttempts)
		}
		for _, name := range names {
			if name != "find" {
				mt.Fatalf("unexpected %q after exhausting keys", name)
			}
		}
	})

	mt.Run("insert failure is reported", func(mt *mtest.T) {
		repo := NewBookmarkRepository(zap.NewNop().Sugar(), mt.DB)
		mt.AddMockResponses(freeKey(), mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		if _, err := repo.CreateBookmark(context.Background(), board.Path{"d2d4"}); err == nil {
			mt.Fatalf("expected insert error")
		}
	})
}

func TestGetBookmark(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing key", func(mt *mtest.T) {
		repo := NewBookmarkRepository(zap.NewNop().Sugar(), mt.DB)
		mt.AddMockResponses(freeKey())

		_, err := repo.GetBookmark(context.Background(), "12345")
		if !errors.Is(err, apperrors.ErrBookmarkNotFound) {
			mt.Fatalf("err = %v, want ErrBookmarkNotFound", err)
		}
	})

	mt.Run("stored bookmark", func(mt *mtest.T) {
		repo := NewBookmarkRepository(zap.NewNop().Sugar(), mt.DB)
		created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, bookmarkNS, mtest.FirstBatch, bson.D{
			{Key: "public_key", Value: "00042"},
			{Key: "secret_key", Value: "secret"},
			{Key: "path", Value: "e2e4/e7e5"},
			{Key: "created_at", Value: created},
		}))

		bookmark, err := repo.GetBookmark(context.Background(), "00042")
		if err != nil {
			mt.Fatalf("get: %v", err)
		}
		if bookmark.PublicKey != "00042" || bookmark.Path != "e2e4/e7e5" || !bookmark.CreatedAt.Equal(created) {
			mt.Fatalf("bookmark = %+v", bookmark)
		}
		filtered := mt.GetStartedEvent().Command.Lookup("filter", "public_key").StringValue()
		if filtered != "00042" {
			mt.Fatalf("filter key = %q", filtered)
		}
	})

	mt.Run("server error is not a miss", func(mt *mtest.T) {
		repo := NewBookmarkRepository(zap.NewNop().Sugar(), mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Name: "Unauthorized", Message: "not authorized"}))

		_, err := repo.GetBookmark(context.Background(), "00042")
		if err == nil || errors.Is(err, apperrors.ErrBookmarkNotFound) {
			mt.Fatalf("err = %v, want a store failure", err)
		}
	})
}
