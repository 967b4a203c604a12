// Package redisstore keeps teacher sessions in Redis so they survive API restarts.
package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/mergington/roster/core"
	"github.com/mergington/roster/core/teacher"
)

type sessionStore struct {
	client *redis.Client
	prefix string
}

var _ teacher.SessionStore = (*sessionStore)(nil)

// NewClient returns a Redis client for conf and checks that the server answers.
func NewClient(ctx context.Context, conf core.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Address,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "pinging redis at %s", conf.Address)
	}
	return client, nil
}

func NewSessionStore(client *redis.Client, keyPrefix string) teacher.SessionStore {
	return &sessionStore{client: client, prefix: keyPrefix}
}

func (s *sessionStore) key(token string) string {
	return s.prefix + "session:" + token
}

// SaveSession stores sess until its ExpiresAt, after which Redis drops it.
func (s *sessionStore) SaveSession(ctx context.Context, sess teacher.Session) error {
	// a zero TTL means no expiry to Redis
	ttl := sess.ExpiresAt.Sub(teacher.NowFunc()).Round(time.Millisecond)
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	return errors.Wrap(s.client.Set(ctx, s.key(sess.Token), data, ttl).Err(), "setting session")
}

func (s *sessionStore) GetSession(ctx context.Context, token string) (teacher.Session, error) {
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return teacher.Session{}, teacher.ErrSessionNotFound
		}
		return teacher.Session{}, errors.Wrap(err, "getting session")
	}
	var sess teacher.Session
	if err = json.Unmarshal(data, &sess); err != nil {
		return teacher.Session{}, errors.Wrap(err, "decoding session")
	}
	return sess, nil
}

func (s *sessionStore) DeleteSession(ctx context.Context, token string) error {
	return errors.Wrap(s.client.Del(ctx, s.key(token)).Err(), "deleting session")
}
