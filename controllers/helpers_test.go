package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ParthDhoot27/stichUP/config"
	"github.com/ParthDhoot27/stichUP/middleware"
	"github.com/ParthDhoot27/stichUP/models"
	"github.com/ParthDhoot27/stichUP/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "Failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db), "Failed to migrate test database")
	config.SetDB(db)
	return db
}

func setupTestConfig(t *testing.T, env string) *config.Config {
	t.Helper()

	previous := config.GetConfig()
	cfg := &config.Config{
		GoEnv:          env,
		JWTSecret:      "test-secret-that-is-long-enough-for-hs256",
		JWTIssuer:      "stichup-test",
		JWTAudience:    "stichup-test-api",
		TokenTTL:       time.Hour,
		OTPTTL:         5 * time.Minute,
		PublicBaseURL:  "http://api.test",
		CommissionRate: 0.10,
	}
	config.SetConfig(cfg)
	t.Cleanup(func() { config.SetConfig(previous) })
	return cfg
}

// setupTestMocks installs in-memory event and image backends for one test
func setupTestMocks(t *testing.T) (*services.MockEventPublisher, *services.MockImageService) {
	t.Helper()

	previousPublisher := services.GetEventPublisher()
	previousImages := services.GetImageService()
	previousOTPs := services.GetOTPStore()

	events := services.NewMockEventPublisher()
	events.SetAsMockForTesting()
	images := services.NewMockImageService()
	images.SetAsMockForTesting()
	services.SetOTPStore(services.NewMemoryOTPStore())

	t.Cleanup(func() {
		services.SetEventPublisher(previousPublisher)
		services.SetImageService(previousImages)
		services.SetOTPStore(previousOTPs)
	})
	return events, images
}

// setupTestEnv prepares a database, config and mocks, the common ground of every handler test
func setupTestEnv(t *testing.T) *gorm.DB {
	t.Helper()

	db := setupTestDB(t)
	setupTestConfig(t, "test")
	setupTestMocks(t)
	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// mockAuthMiddleware authenticates every request as user, or as nobody when user is nil
func mockAuthMiddleware(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			middleware.SetIdentity(c, user.Identity())
		}
		c.Next()
	}
}

func createTestUser(t *testing.T, db *gorm.DB, phone, email, role string) *models.User {
	t.Helper()

	user := &models.User{
		Name:        role + " " + phone,
		Phone:       phone,
		Role:        role,
		CreditLimit: models.DefaultCreditLimit,
		IsActive:    true,
	}
	if email != "" {
		user.Email = &email
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestTailor(t *testing.T, db *gorm.DB, ownerID *uint, name string, lat, lng float64) *models.Tailor {
	t.Helper()

	tailor := &models.Tailor{
		UserID:       ownerID,
		Name:         name,
		Latitude:     lat,
		Longitude:    lng,
		LightAvgMins: 30,
		HeavyAvgMins: 120,
		IsAvailable:  true,
		Rating:       models.InitialRating,
	}
	require.NoError(t, db.Create(tailor).Error)
	return tailor
}

// performRequest sends body as JSON (nil sends no body) and records the response
func performRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "body: %s", w.Body.String())
	return response
}

// errorCode returns error.code of a failure envelope
func errorCode(t *testing.T, response map[string]interface{}) string {
	t.Helper()

	require.Equal(t, false, response["success"])
	errorData, ok := response["error"].(map[string]interface{})
	require.True(t, ok, "response has no error object")
	code, _ := errorData["code"].(string)
	return code
}

// responseData returns the data object of a success envelope
func responseData(t *testing.T, response map[string]interface{}) map[string]interface{} {
	t.Helper()

	require.Equal(t, true, response["success"])
	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object")
	return data
}
