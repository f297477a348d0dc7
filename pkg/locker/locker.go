package locker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired means another holder has the lease; the caller skips
// this unit of work and lets the next scheduler pass retry it.
var ErrNotAcquired = errors.New("lease not acquired")

// Locker hands out short-lived per-key leases backed by Redis. It
// serializes the per-subscriber dispatch sequence across concurrent
// scheduler runs without any cross-subscriber coordination.
type Locker struct {
	client *redis.Client
	prefix string
}

type Config struct {
	URL    string
	Prefix string
}

func New(cfg Config) (*Locker, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "lease"
	}
	return &Locker{client: client, prefix: prefix}, nil
}

// releaseScript deletes the lease only when the token still matches,
// so an expired-and-reacquired lease is never released by the old holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lease is a held lock; Release returns it before the TTL runs out.
type Lease struct {
	locker *Locker
	key    string
	token  string
}

// Acquire takes the lease for key, failing fast with ErrNotAcquired
// when it is already held. The TTL bounds how long a crashed holder
// can block the key.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	full := l.prefix + ":" + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lease: %w", err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	return &Lease{locker: l, key: full, token: token}, nil
}

func (le *Lease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, le.locker.client, []string{le.key}, le.token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release lease: %w", err)
	}
	return nil
}

func (l *Locker) Close() error {
	return l.client.Close()
}
