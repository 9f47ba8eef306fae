package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis connects to a local Redis and skips when none is running.
// tests/integration covers the same paths against a container.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestSnapshotKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  SnapshotKey
		want string
	}{
		{name: "latest with default prefix", key: SnapshotKey{}, want: "userposts:snapshot:latest"},
		{name: "latest with prefix", key: SnapshotKey{Prefix: "staging"}, want: "staging:snapshot:latest"},
		{name: "run key", key: SnapshotKey{Prefix: "staging", RunID: "abc"}, want: "staging:snapshot:run:abc"},
		{name: "prefix colons trimmed", key: SnapshotKey{Prefix: ":staging:", RunID: "abc"}, want: "staging:snapshot:run:abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("SnapshotKey.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewRedis_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedis should panic with nil redis client")
		}
	}()
	NewRedis(nil, "", time.Minute)
}

func TestRedis_WriteRequiresRunID(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	if err := NewRedis(client, "", time.Minute).Write(context.Background(), "", sampleSnapshot()); err == nil {
		t.Error("Write without run id should fail")
	}
}

func TestRedis_WriteAndGet(t *testing.T) {
	client := setupTestRedis(t)
	s := NewRedis(client, "test", 5*time.Minute)
	ctx := context.Background()

	if err := s.Write(ctx, "run-1", sampleSnapshot()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	for _, key := range []SnapshotKey{{RunID: "run-1"}, {}} {
		got, err := s.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get(%s) failed: %v", key, err)
		}
		if len(got) != 2 || got[0].Company != "Romaguera-Crona" {
			t.Errorf("Get(%s) = %+v, want sample snapshot", key, got)
		}
	}

	ttl, err := client.TTL(ctx, "test:snapshot:latest").Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > 5*time.Minute {
		t.Errorf("TTL = %v, want within (0, 5m]", ttl)
	}
}

func TestRedis_LatestIsOverwritten(t *testing.T) {
	client := setupTestRedis(t)
	s := NewRedis(client, "test", time.Minute)
	ctx := context.Background()

	if err := s.Write(ctx, "run-1", sampleSnapshot()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Write(ctx, "run-2", sampleSnapshot()[:1]); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	latest, err := s.Get(ctx, SnapshotKey{})
	if err != nil {
		t.Fatalf("Get latest failed: %v", err)
	}
	if len(latest) != 1 {
		t.Errorf("latest has %d users, want 1", len(latest))
	}

	first, err := s.Get(ctx, SnapshotKey{RunID: "run-1"})
	if err != nil {
		t.Fatalf("Get run-1 failed: %v", err)
	}
	if len(first) != 2 {
		t.Errorf("run-1 has %d users, want 2", len(first))
	}
}

func TestRedis_GetNotFound(t *testing.T) {
	client := setupTestRedis(t)
	s := NewRedis(client, "test", time.Minute)

	_, err := s.Get(context.Background(), SnapshotKey{RunID: "missing"})
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("Expected ErrSnapshotNotFound, got %v", err)
	}
}
