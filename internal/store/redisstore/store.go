package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *Store) Close() error { return s.rdb.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

const captchaTTL = 10 * time.Minute

func captchaKey(email string) string { return "captcha:" + email }

func (s *Store) SetCaptcha(ctx context.Context, email, code string) error {
	return s.rdb.Set(ctx, captchaKey(email), code, captchaTTL).Err()
}

// GetCaptcha returns redis.Nil when the captcha is missing or expired.
func (s *Store) GetCaptcha(ctx context.Context, email string) (string, error) {
	return s.rdb.Get(ctx, captchaKey(email)).Result()
}

func (s *Store) DeleteCaptcha(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, captchaKey(email)).Err()
}

// JobDone is published when the worker finishes an async reply job, so the
// API server can push the result to the user's websocket connection.
type JobDone struct {
	JobID     string `json:"job_id"`
	UserID    uint64 `json:"user_id"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	MessageID uint64 `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s *Store) PublishJobDone(ctx context.Context, channel string, n JobDone) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, channel, b).Err()
}

// SubscribeJobDone delivers decoded notifications until ctx is cancelled.
// Malformed payloads are skipped.
func (s *Store) SubscribeJobDone(ctx context.Context, channel string, fn func(JobDone)) error {
	sub := s.rdb.Subscribe(ctx, channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var n JobDone
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				continue
			}
			fn(n)
		}
	}
}
