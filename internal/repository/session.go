package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chessboard/internal/domain/board"
	apperrors "chessboard/internal/errors"
)

const sessionKeyPrefix = "session:"

// RedisSessionStorage keeps the last path of every board session so a reconnecting client
// resumes where it stopped.
type RedisSessionStorage struct {
	client *redis.Client
	log    *zap.SugaredLogger
	ttl    time.Duration
}

func NewSessionRedisStorage(client *redis.Client, log *zap.SugaredLogger, ttl time.Duration) *RedisSessionStorage {
	return &RedisSessionStorage{
		client: client,
		log:    log,
		ttl:    ttl,
	}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (r *RedisSessionStorage) LoadSessionPath(ctx context.Context, sessionID string) (board.Path, error) {
	v, err := r.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrSessionNotFound
		}
		r.log.Errorw("failed to load session", "session", sessionID, "error", err)
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	path, err := board.ParsePath(v)
	if err != nil {
		r.log.Warnw("stored session path is corrupt", "session", sessionID, "path", v, "error", err)
		return nil, apperrors.ErrSessionNotFound
	}
	return path, nil
}

// SaveSessionPath stores path and refreshes the session's expiry.
func (r *RedisSessionStorage) SaveSessionPath(ctx context.Context, sessionID string, path board.Path) error {
	if err := r.client.Set(ctx, sessionKey(sessionID), path.String(), r.ttl).Err(); err != nil {
		r.log.Errorw("failed to store session", "session", sessionID, "error", err)
		return fmt.Errorf("store session %s: %w", sessionID, err)
	}
	return nil
}

func (r *RedisSessionStorage) DeleteSession(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, sessionKey(sessionID)).Err()
}
