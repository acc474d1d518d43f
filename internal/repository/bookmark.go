package repo

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"chessboard/internal/domain/board"
	apperrors "chessboard/internal/errors"
)

const (
	bookmarkCollection = "bookmarks"
	mongoTimeout       = 5 * time.Second
	maxKeyAttempts     = 16
)

// Bookmark is a shared path addressed by a short public key.
type Bookmark struct {
	PublicKey string    `bson:"public_key" json:"key"`
	SecretKey string    `bson:"secret_key" json:"-"`
	Path      string    `bson:"path" json:"path"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

type BookmarkRepository struct {
	log   *zap.SugaredLogger
	mongo *mongo.Database
}

func NewBookmarkRepository(log *zap.SugaredLogger, mongo *mongo.Database) *BookmarkRepository {
	return &BookmarkRepository{
		log:   log,
		mongo: mongo,
	}
}

// CreateBookmark stores path under a fresh five digit key and returns it.
func (b *BookmarkRepository) CreateBookmark(ctx context.Context, path board.Path) (Bookmark, error) {
	secret, public, err := b.generateKeys(ctx)
	if err != nil {
		return Bookmark{}, err
	}
	bookmark := Bookmark{
		PublicKey: public,
		SecretKey: secret,
		Path:      path.String(),
		CreatedAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	if _, err := b.mongo.Collection(bookmarkCollection).InsertOne(ctx, bookmark); err != nil {
		b.log.Errorf("failed to insert bookmark: %v", err)
		return Bookmark{}, fmt.Errorf("insert bookmark: %w", err)
	}
	b.log.Infof("bookmark %s stored for path %q", public, bookmark.Path)
	return bookmark, nil
}

func (b *BookmarkRepository) GetBookmark(ctx context.Context, publicKey string) (Bookmark, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var found Bookmark
	err := b.mongo.Collection(bookmarkCollection).FindOne(ctx, bson.M{"public_key": publicKey}).Decode(&found)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Bookmark{}, apperrors.ErrBookmarkNotFound
	}
	if err != nil {
		b.log.Error(err)
		return Bookmark{}, fmt.Errorf("find bookmark %s: %w", publicKey, err)
	}
	return found, nil
}

func (b *BookmarkRepository) generateKeys(ctx context.Context) (secret, public string, err error) {
	for i := 0; i < maxKeyAttempts; i++ {
		secret = uuid.New().String()
		public = shortKey(secret)
		uniq, err := b.publicKeyIsUniq(ctx, public)
		if err != nil {
			return "", "", err
		}
		if uniq {
			return secret, public, nil
		}
	}
	return "", "", fmt.Errorf("no free bookmark key after %d attempts: %w", maxKeyAttempts, apperrors.ErrInternal)
}

// shortKey folds s into five decimal digits.
func shortKey(s string) string {
	h := md5.Sum([]byte(s))
	number := binary.BigEndian.Uint32(h[:4])
	return fmt.Sprintf("%05d", number%100000)
}

func (b *BookmarkRepository) publicKeyIsUniq(ctx context.Context, publicKey string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	err := b.mongo.Collection(bookmarkCollection).FindOne(ctx, bson.M{"public_key": publicKey}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("check bookmark key: %w", err)
	}
	return false, nil
}
