package services

import (
	"context"
	"os"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	digits := regexp.MustCompile(`^\d{6}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		assert.Regexp(t, digits, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestMemoryOTPStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := NewMemoryOTPStore()
	store.now = func() time.Time { return now }

	_, err := store.Get(ctx, "9876543210")
	assert.ErrorIs(t, err, ErrOTPNotFound)

	require.NoError(t, store.Save(ctx, "9876543210", OTPEntry{Code: "111111", ExpiresAt: now.Add(5 * time.Minute)}))
	require.NoError(t, store.Save(ctx, "9876543210", OTPEntry{Code: "222222", ExpiresAt: now.Add(5 * time.Minute)}))

	entry, err := store.Get(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "222222", entry.Code, "a new code replaces the pending one")

	now = now.Add(6 * time.Minute)
	_, err = store.Get(ctx, "9876543210")
	assert.ErrorIs(t, err, ErrOTPExpired)

	require.NoError(t, store.Delete(ctx, "9876543210"))
	_, err = store.Get(ctx, "9876543210")
	assert.ErrorIs(t, err, ErrOTPNotFound)
}

// consumeConcurrently races n callers offering the same code and counts winners
func consumeConcurrently(t *testing.T, store OTPStore, phone, code string, n int) (won int, errs []error) {
	t.Helper()

	start := make(chan struct{})
	results := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results <- store.Consume(context.Background(), phone, code)
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	for err := range results {
		if err == nil {
			won++
			continue
		}
		errs = append(errs, err)
	}
	return won, errs
}

func TestMemoryOTPStore_Consume(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := NewMemoryOTPStore()
	store.now = func() time.Time { return now }

	assert.ErrorIs(t, store.Consume(ctx, "9876543210", "123456"), ErrOTPNotFound)

	require.NoError(t, store.Save(ctx, "9876543210", OTPEntry{Code: "123456", ExpiresAt: now.Add(time.Minute)}))
	assert.ErrorIs(t, store.Consume(ctx, "9876543210", "654321"), ErrOTPMismatch)
	_, err := store.Get(ctx, "9876543210")
	require.NoError(t, err, "a wrong code leaves the entry in place")

	require.NoError(t, store.Consume(ctx, "9876543210", "123456"))
	assert.ErrorIs(t, store.Consume(ctx, "9876543210", "123456"), ErrOTPNotFound)

	require.NoError(t, store.Save(ctx, "9876543210", OTPEntry{Code: "222222", ExpiresAt: now.Add(time.Minute)}))
	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, store.Consume(ctx, "9876543210", "222222"), ErrOTPExpired)
	assert.ErrorIs(t, store.Consume(ctx, "9876543210", "222222"), ErrOTPNotFound, "an expired entry is dropped")
}

func TestMemoryOTPStore_ConsumeIsSingleUseUnderContention(t *testing.T) {
	store := NewMemoryOTPStore()
	require.NoError(t, store.Save(context.Background(), "9876543210", OTPEntry{Code: "424242", ExpiresAt: time.Now().Add(time.Minute)}))

	won, errs := consumeConcurrently(t, store, "9876543210", "424242", 16)
	assert.Equal(t, 1, won)
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrOTPNotFound)
	}
}

// Runs against a real server when STICHUP_TEST_REDIS_ADDR is set.
func TestRedisOTPStore_Consume(t *testing.T) {
	addr := os.Getenv("STICHUP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STICHUP_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	store := NewRedisOTPStore(client)
	phone := "91" + time.Now().Format("150405000")
	t.Cleanup(func() { _ = store.Delete(ctx, phone) })

	require.NoError(t, store.Save(ctx, phone, OTPEntry{Code: "123456", ExpiresAt: time.Now().Add(time.Minute)}))
	assert.ErrorIs(t, store.Consume(ctx, phone, "000000"), ErrOTPMismatch)

	won, _ := consumeConcurrently(t, store, phone, "123456", 8)
	assert.Equal(t, 1, won)
	assert.ErrorIs(t, store.Consume(ctx, phone, "123456"), ErrOTPNotFound)
}

func TestMemoryOTPStore_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := NewMemoryOTPStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "1111111111", OTPEntry{Code: "123456", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, store.Save(ctx, "2222222222", OTPEntry{Code: "654321", ExpiresAt: now.Add(time.Hour)}))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, store.Sweep())

	_, err := store.Get(ctx, "1111111111")
	assert.ErrorIs(t, err, ErrOTPNotFound)
	_, err = store.Get(ctx, "2222222222")
	assert.NoError(t, err)
}

func TestInitOTPStore_FallsBackToMemory(t *testing.T) {
	previous := GetOTPStore()
	t.Cleanup(func() { SetOTPStore(previous) })

	store := InitOTPStore(nil)
	assert.IsType(t, &MemoryOTPStore{}, store)
	assert.Same(t, store, GetOTPStore())
}
