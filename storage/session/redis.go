package session

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/parishdesk/parishdesk/core"
	"github.com/parishdesk/parishdesk/core/wizard"
)

const (
	wizardPrefix = "wizard"
	lockPrefix   = "lock"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisStore is a wizard.Store shared by every API instance.
type RedisStore struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	lockTTL time.Duration
}

var _ wizard.Store = (*RedisStore)(nil)

// NewRedisClient connects to the configured redis server.
func NewRedisClient(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         conf.Redis.Addr,
		Password:     conf.Redis.Password,
		DB:           conf.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

func NewRedisStore(client redis.UniversalClient, conf *core.Config) *RedisStore {
	prefix := conf.Redis.Prefix
	if prefix == "" {
		prefix = "parishdesk"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: conf.Wizard.TTL, lockTTL: conf.Wizard.SubmitLockTTL}
}

func (s *RedisStore) key(parts ...string) string {
	var sb strings.Builder
	sb.WriteString(s.prefix)
	for _, part := range parts {
		if part != "" {
			sb.WriteString(":")
			sb.WriteString(part)
		}
	}
	return sb.String()
}

func (s *RedisStore) Save(ctx context.Context, st *wizard.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "encoding wizard")
	}
	if err = s.client.Set(ctx, s.key(wizardPrefix, st.ID), data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "saving wizard")
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*wizard.State, error) {
	data, err := s.client.Get(ctx, s.key(wizardPrefix, id)).Bytes()
	if err == redis.Nil {
		return nil, wizard.ErrNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "getting wizard")
	}

	st := new(wizard.State)
	if err = json.Unmarshal(data, st); err != nil {
		return nil, errors.Wrap(err, "decoding wizard")
	}
	return st, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(wizardPrefix, id), s.key(lockPrefix, id)).Err(); err != nil {
		return errors.Wrap(err, "deleting wizard")
	}
	return nil
}

// Acquire takes the submit lock of wizard `id` with SETNX. The lock expires after the lock TTL.
func (s *RedisStore) Acquire(ctx context.Context, id string) (func(), error) {
	key := s.key(lockPrefix, id)
	token := uuid.New().String()

	ok, err := s.client.SetNX(ctx, key, token, s.lockTTL).Result()
	if err != nil {
		return nil, errors.Wrap(err, "acquiring wizard lock")
	}
	if !ok {
		return nil, wizard.ErrSubmitInFlight
	}

	return func() {
		// the request context may be done by now
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, s.client, []string{key}, token).Err()
	}, nil
}
