package controllers

import (
	"net/http"
	"testing"

	"github.com/ParthDhoot27/stichUP/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter()
	router.GET("/health", HealthCheck)

	w := performRequest(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	response := decodeResponse(t, w)
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "connected", response["database"])
	assert.Equal(t, "StichUP API is running", response["message"])

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w = performRequest(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	response = decodeResponse(t, w)
	assert.Equal(t, false, response["success"])
	assert.Equal(t, "unavailable", response["database"])
}

func TestHealthCheck_NoDatabase(t *testing.T) {
	previous := config.GetDB()
	config.SetDB(nil)
	t.Cleanup(func() { config.SetDB(previous) })

	router := setupTestRouter()
	router.GET("/health", HealthCheck)

	w := performRequest(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unavailable", decodeResponse(t, w)["database"])
}
