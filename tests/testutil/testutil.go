package testutil

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ParthDhoot27/stichUP/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MustSetTestEnvironment pins GO_ENV=test for the rest of t, so nothing under test
// mistakes itself for a development or production process.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()
	t.Setenv("GO_ENV", "test")
}

// NewTestDB opens a migrated in-memory SQLite database and installs it as the
// application database. Each call gets its own database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", sanitize(t.Name()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	// a single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	return db
}

// TestConfig returns a configuration suitable for tests and installs it globally
func TestConfig() *config.Config {
	cfg := &config.Config{
		DatabaseURL:     "sqlite://:memory:",
		Port:            "8080",
		GoEnv:           "test",
		JWTSecret:       "test-secret-that-is-long-enough-for-hs256",
		JWTIssuer:       "stichup-test",
		JWTAudience:     "stichup-test-api",
		TokenTTL:        time.Hour,
		OTPTTL:          5 * time.Minute,
		FrontendURL:     "http://localhost:3000",
		RateLimitWindow: time.Minute,
		RateLimitMax:    100,
		UploadDir:       os.TempDir(),
		PublicBaseURL:   "http://api.test",
		CommissionRate:  0.10,
		LogLevel:        "error",
	}
	config.SetConfig(cfg)
	return cfg
}

func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
