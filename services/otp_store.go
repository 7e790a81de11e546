package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPLength is the number of digits in a one-time code
const OTPLength = 6

var (
	// ErrOTPNotFound means no code was issued for the phone, or it was already used
	ErrOTPNotFound = errors.New("otp not found")
	// ErrOTPExpired means a code exists but its lifetime has passed
	ErrOTPExpired = errors.New("otp expired")
	// ErrOTPMismatch means the pending code differs from the one offered. The entry is kept.
	ErrOTPMismatch = errors.New("otp mismatch")
)

// OTPEntry is a pending one-time code
type OTPEntry struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// OTPStore keeps at most one pending code per phone number
type OTPStore interface {
	Save(ctx context.Context, phone string, entry OTPEntry) error
	Get(ctx context.Context, phone string) (OTPEntry, error)
	Delete(ctx context.Context, phone string) error
	// Consume deletes the entry for phone if and only if its code equals code.
	// Check and delete are one atomic step, so a code verifies at most once.
	Consume(ctx context.Context, phone, code string) error
}

func codesMatch(pending, offered string) bool {
	return subtle.ConstantTimeCompare([]byte(pending), []byte(offered)) == 1
}

var otpStoreInstance OTPStore = NewMemoryOTPStore()

// InitOTPStore uses Redis when a client is available, memory otherwise
func InitOTPStore(client *redis.Client) OTPStore {
	if client != nil {
		otpStoreInstance = NewRedisOTPStore(client)
	} else {
		otpStoreInstance = NewMemoryOTPStore()
	}
	return otpStoreInstance
}

// GetOTPStore returns the configured store
func GetOTPStore() OTPStore {
	return otpStoreInstance
}

// SetOTPStore replaces the store (primarily for testing)
func SetOTPStore(store OTPStore) {
	otpStoreInstance = store
}

// GenerateOTP returns a uniformly random numeric code
func GenerateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < OTPLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPLength, n.Int64()), nil
}

// RedisOTPStore keeps codes in Redis with a matching TTL
type RedisOTPStore struct {
	client *redis.Client
}

// NewRedisOTPStore wraps a Redis client
func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

func otpKey(phone string) string {
	return "otp:" + phone
}

// Save stores the entry, replacing any previous one
func (s *RedisOTPStore) Save(ctx context.Context, phone string, entry OTPEntry) error {
	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("otp already expired")
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, otpKey(phone), payload, ttl).Err()
}

// Get loads the entry for phone
func (s *RedisOTPStore) Get(ctx context.Context, phone string) (OTPEntry, error) {
	payload, err := s.client.Get(ctx, otpKey(phone)).Bytes()
	if errors.Is(err, redis.Nil) {
		return OTPEntry{}, ErrOTPNotFound
	}
	if err != nil {
		return OTPEntry{}, err
	}

	var entry OTPEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return OTPEntry{}, err
	}
	if time.Now().After(entry.ExpiresAt) {
		return OTPEntry{}, ErrOTPExpired
	}
	return entry, nil
}

// Delete removes the entry for phone
func (s *RedisOTPStore) Delete(ctx context.Context, phone string) error {
	return s.client.Del(ctx, otpKey(phone)).Err()
}

// Consume checks and deletes the code inside a WATCH transaction. A concurrent
// Consume or Save on the same key aborts the EXEC, and the loser sees the code as gone.
func (s *RedisOTPStore) Consume(ctx context.Context, phone, code string) error {
	key := otpKey(phone)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrOTPNotFound
		}
		if err != nil {
			return err
		}

		var entry OTPEntry
		if err := json.Unmarshal(payload, &entry); err != nil {
			return err
		}
		if time.Now().After(entry.ExpiresAt) {
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err != nil {
				return err
			}
			return ErrOTPExpired
		}
		if !codesMatch(entry.Code, code) {
			return ErrOTPMismatch
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrOTPNotFound
	}
	return err
}

// MemoryOTPStore is a process-local store for development and tests
type MemoryOTPStore struct {
	entries map[string]OTPEntry
	mu      sync.Mutex
	now     func() time.Time
}

// NewMemoryOTPStore creates an empty in-memory store
func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{entries: make(map[string]OTPEntry), now: time.Now}
}

// Save stores the entry, replacing any previous one
func (s *MemoryOTPStore) Save(ctx context.Context, phone string, entry OTPEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[phone] = entry
	return nil
}

// Get loads the entry for phone. Expired entries are reported until swept or replaced.
func (s *MemoryOTPStore) Get(ctx context.Context, phone string) (OTPEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[phone]
	if !ok {
		return OTPEntry{}, ErrOTPNotFound
	}
	if s.now().After(entry.ExpiresAt) {
		return OTPEntry{}, ErrOTPExpired
	}
	return entry, nil
}

// Delete removes the entry for phone
func (s *MemoryOTPStore) Delete(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, phone)
	return nil
}

// Consume checks and deletes under one lock
func (s *MemoryOTPStore) Consume(ctx context.Context, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[phone]
	switch {
	case !ok:
		return ErrOTPNotFound
	case s.now().After(entry.ExpiresAt):
		delete(s.entries, phone)
		return ErrOTPExpired
	case !codesMatch(entry.Code, code):
		return ErrOTPMismatch
	}
	delete(s.entries, phone)
	return nil
}

// Sweep drops expired entries and returns how many were removed
func (s *MemoryOTPStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	now := s.now()
	for phone, entry := range s.entries {
		if now.After(entry.ExpiresAt) {
			delete(s.entries, phone)
			removed++
		}
	}
	return removed
}
