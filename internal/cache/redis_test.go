package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis is an in-memory RedisClientInterface.
type fakeRedis struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	closed bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := value.([]byte)
	if !ok {
		return redis.NewStatusResult("", errors.New("unexpected value type"))
	}
	f.data[key] = b
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	b, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(b), nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

// TestRedis tests the Redis cache against a fake client.
func TestRedis(t *testing.T) {
	ctx := context.Background()

	t.Run("Round trip through msgpack", func(t *testing.T) {
		fake := newFakeRedis()
		c := NewRedisWithClient(fake, "nearest:", 5*time.Second)
		snap := testSnapshot()

		if err := c.Set(ctx, "k", snap); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if _, ok := fake.data["nearest:k"]; !ok {
			t.Fatal("Expected prefixed key to be stored")
		}
		if fake.ttls["nearest:k"] != 5*time.Second {
			t.Errorf("Expected 5s TTL, got %v", fake.ttls["nearest:k"])
		}

		got, ok, err := c.Get(ctx, "k")
		if !ok || err != nil {
			t.Fatalf("Expected hit, got ok=%v err=%v", ok, err)
		}
		if len(got.Records) != len(snap.Records) {
			t.Fatalf("Expected %d records, got %d", len(snap.Records), len(got.Records))
		}
		for i := range snap.Records {
			if got.Records[i] != snap.Records[i] {
				t.Errorf("Record %d: expected %+v, got %+v", i, snap.Records[i], got.Records[i])
			}
		}
		if !got.FetchedAt.Equal(snap.FetchedAt) {
			t.Errorf("Expected fetch time %v, got %v", snap.FetchedAt, got.FetchedAt)
		}
	})

	t.Run("Miss is not an error", func(t *testing.T) {
		c := NewRedisWithClient(newFakeRedis(), "", time.Second)
		if _, ok, err := c.Get(ctx, "missing"); ok || err != nil {
			t.Errorf("Expected clean miss, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("Client errors are returned", func(t *testing.T) {
		fake := newFakeRedis()
		fake.getErr = errors.New("connection reset")
		c := NewRedisWithClient(fake, "", time.Second)

		_, ok, err := c.Get(ctx, "k")
		if ok || err == nil || !strings.Contains(err.Error(), "connection reset") {
			t.Errorf("Expected wrapped client error, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("Corrupt values are reported", func(t *testing.T) {
		fake := newFakeRedis()
		fake.data["k"] = []byte{0xc1}
		c := NewRedisWithClient(fake, "", time.Second)

		if _, _, err := c.Get(ctx, "k"); err == nil {
			t.Error("Expected unmarshal error")
		}
	})

	t.Run("Close closes the client", func(t *testing.T) {
		fake := newFakeRedis()
		c := NewRedisWithClient(fake, "p:", time.Second)

		c.Close()
		if !fake.closed {
			t.Error("Expected client to be closed")
		}
	})
}
