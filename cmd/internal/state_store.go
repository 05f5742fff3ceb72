package internal

import (
	"context"
	"encoding/json"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/planetscale/connect/hubspot/lib"
)

// StateStore loads the state a sync starts from and keeps the latest state it
// emitted, so a later sync can resume without the orchestrator passing it back.
type StateStore interface {
	Load(ctx context.Context) (lib.SyncState, error)
	Save(ctx context.Context, state lib.SyncState) error
	Close() error
}

// FileStateStore reads Singer state from a JSON file. Saving is a no-op: the
// orchestrator collects STATE messages from stdout.
type FileStateStore struct {
	Path string
	// ReadFile defaults to os.ReadFile.
	ReadFile func(path string) ([]byte, error)
}

func (f FileStateStore) Load(ctx context.Context) (lib.SyncState, error) {
	if f.Path == "" {
		return lib.NewSyncState(), nil
	}
	readFile := f.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}
	b, err := readFile(f.Path)
	if err != nil {
		return lib.NewSyncState(), errors.Wrapf(err, "unable to read state file %v", f.Path)
	}
	return lib.ParseSyncState(b)
}

func (f FileStateStore) Save(ctx context.Context, state lib.SyncState) error {
	return nil
}

func (f FileStateStore) Close() error {
	return nil
}

// RedisStateStore keeps state under a single key.
type RedisStateStore struct {
	client *redis.Client
	key    string
}

const defaultRedisStateKey = TapName + ":state"

// NewRedisStateStore connects to a redis://host:port/db URL and checks the
// connection before returning.
func NewRedisStateStore(ctx context.Context, redisURL, key string) (*RedisStateStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid redis url %q", redisURL)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "unable to connect to redis")
	}
	if key == "" {
		key = defaultRedisStateKey
	}
	return &RedisStateStore{client: client, key: key}, nil
}

func (r *RedisStateStore) Load(ctx context.Context) (lib.SyncState, error) {
	b, err := r.client.Get(ctx, r.key).Bytes()
	if err == redis.Nil {
		return lib.NewSyncState(), nil
	}
	if err != nil {
		return lib.NewSyncState(), errors.Wrapf(err, "unable to read state from %v", r.key)
	}
	return lib.ParseSyncState(b)
}

func (r *RedisStateStore) Save(ctx context.Context, state lib.SyncState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "unable to serialize state")
	}
	return errors.Wrapf(r.client.Set(ctx, r.key, b, 0).Err(), "unable to write state to %v", r.key)
}

func (r *RedisStateStore) Close() error {
	return r.client.Close()
}
