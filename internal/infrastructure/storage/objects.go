package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"ContentIngest/internal/ports"
)

// ErrInvalidObjectKey rejects bucket or key values that would escape the store.
var ErrInvalidObjectKey = errors.New("invalid object key")

func checkObjectKey(bucket, key string) error {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return fmt.Errorf("%w: bucket %q", ErrInvalidObjectKey, bucket)
	}
	if key == "" || strings.HasPrefix(key, "/") || path.Clean(key) != key {
		return fmt.Errorf("%w: key %q", ErrInvalidObjectKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return fmt.Errorf("%w: key %q", ErrInvalidObjectKey, key)
		}
	}
	return nil
}

// FSObjectStore writes objects as indented JSON under root/bucket/key.
type FSObjectStore struct {
	root string
}

var _ ports.ObjectStore = (*FSObjectStore)(nil)

// NewFSObjectStore returns a store rooted at dir.
func NewFSObjectStore(dir string) *FSObjectStore {
	return &FSObjectStore{root: dir}
}

// Put serializes payload and replaces any existing object atomically.
func (s *FSObjectStore) Put(ctx context.Context, bucket, key string, payload any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := checkObjectKey(bucket, key); err != nil {
		return false, err
	}

	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return false, fmt.Errorf("marshal object: %w", err)
	}

	target := filepath.Join(s.root, bucket, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return false, fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".put-*")
	if err != nil {
		return false, fmt.Errorf("create temp object: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(body, '\n')); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return false, fmt.Errorf("commit object: %w", err)
	}
	return true, nil
}

// RedisObjectStore keeps objects as JSON strings under "bucket/key".
type RedisObjectStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ ports.ObjectStore = (*RedisObjectStore)(nil)

// NewRedisObjectStore wraps an existing client. A zero ttl keeps objects forever.
func NewRedisObjectStore(client redis.UniversalClient, ttl time.Duration) *RedisObjectStore {
	return &RedisObjectStore{client: client, ttl: ttl}
}

// DialRedis connects and pings the server.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}
	return client, nil
}

// Put stores the serialized payload. It reports false when the server did
// not acknowledge the write.
func (s *RedisObjectStore) Put(ctx context.Context, bucket, key string, payload any) (bool, error) {
	if err := checkObjectKey(bucket, key); err != nil {
		return false, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("marshal object: %w", err)
	}

	status, err := s.client.Set(ctx, bucket+"/"+key, body, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis set: %w", err)
	}
	return status == "OK", nil
}
