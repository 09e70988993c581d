// Package redistore keeps the session in Redis for portal deployments where
// several processes serve the same client context. Keys carry a TTL matching
// the refresh-token lifetime; after that the pair is useless anyway.
package redistore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aeroprep/go-session-client/session"
)

const (
	sessionSuffix = ":session"
	userSuffix    = ":user"

	pingTimeout = 5 * time.Second
)

var _ session.Store = (*Store)(nil)

type Store struct {
	client *redis.Client
	prefix string
}

// Config holds the Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix namespaces the session keys, e.g. per portal user or device.
	KeyPrefix string
}

// New connects to Redis and verifies the connection.
func New(cfg Config) (*Store, error) {
	if cfg.KeyPrefix == "" {
		return nil, errors.New("[redistore.New] key prefix is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("[redistore.New] failed to connect to redis: %w", err)
	}

	return &Store{client: client, prefix: cfg.KeyPrefix}, nil
}

// Close closes the underlying Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Save(ctx context.Context, sess *session.Session) error {
	record := *sess
	record.User = nil

	payload, err := json.Marshal(&record)
	if err != nil {
		return fmt.Errorf("[redistore.Save] %w", err)
	}

	ttl := time.Duration(sess.RefreshExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = time.Duration(sess.ExpiresIn) * time.Second
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.prefix+sessionSuffix, payload, ttl)
	if sess.User != nil {
		userPayload, err := json.Marshal(sess.User)
		if err != nil {
			return fmt.Errorf("[redistore.Save] %w", err)
		}
		pipe.Set(ctx, s.prefix+userSuffix, userPayload, ttl)
	} else {
		pipe.Del(ctx, s.prefix+userSuffix)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("[redistore.Save] %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (*session.Session, error) {
	raw, err := s.client.Get(ctx, s.prefix+sessionSuffix).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[redistore.Load] %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.AccessToken == "" {
		// Corrupt state reads as absent.
		return nil, nil
	}

	if rawUser, err := s.client.Get(ctx, s.prefix+userSuffix).Result(); err == nil {
		var user session.User
		if err := json.Unmarshal([]byte(rawUser), &user); err == nil {
			sess.User = &user
		}
	}

	return &sess, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.prefix+sessionSuffix, s.prefix+userSuffix).Err(); err != nil {
		return fmt.Errorf("[redistore.Clear] %w", err)
	}
	return nil
}
