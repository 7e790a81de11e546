package controllers

import (
	"net/http"
	"testing"

	"github.com/ParthDhoot27/stichUP/models"
	"github.com/ParthDhoot27/stichUP/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUserRouter(user *models.User) *gin.Engine {
	router := setupTestRouter()
	router.GET("/users/me", mockAuthMiddleware(user), GetProfile)
	router.PUT("/users/me", mockAuthMiddleware(user), UpdateProfile)
	router.POST("/users/me/credits", mockAuthMiddleware(user), ConsumeCredit)
	return router
}

func TestGetProfile_Success(t *testing.T) {
	db := setupTestEnv(t)
	user := createTestUser(t, db, "9876543210", "asha@example.com", models.RoleCustomer)

	w := performRequest(t, setupUserRouter(user), http.MethodGet, "/users/me", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := responseData(t, decodeResponse(t, w))
	assert.Equal(t, float64(user.ID), data["id"])
	assert.Equal(t, "9876543210", data["phone"])
	assert.Equal(t, float64(0), data["credits_used"])
}

func TestUpdateProfile(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
		checkResponse  func(t *testing.T, data map[string]interface{})
	}{
		{
			name: "Update every field",
			requestBody: map[string]interface{}{
				"name":      "Asha R.",
				"email":     "new@example.com",
				"address":   "4 Church Street",
				"latitude":  12.97,
				"longitude": 77.59,
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, data map[string]interface{}) {
				assert.Equal(t, "Asha R.", data["name"])
				assert.Equal(t, "new@example.com", data["email"])
				assert.Equal(t, "4 Church Street", data["address"])
				assert.Equal(t, 12.97, data["latitude"])
			},
		},
		{
			name:           "Partial update keeps other fields",
			requestBody:    map[string]interface{}{"address": "Indiranagar"},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, data map[string]interface{}) {
				assert.Equal(t, "Indiranagar", data["address"])
				assert.Equal(t, "asha@example.com", data["email"])
				assert.Equal(t, "customer 9876543210", data["name"])
			},
		},
		{
			name:           "Empty update changes nothing",
			requestBody:    map[string]interface{}{},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, data map[string]interface{}) {
				assert.Equal(t, "asha@example.com", data["email"])
			},
		},
		{
			name:           "Invalid email",
			requestBody:    map[string]interface{}{"email": "nope"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  services.CodeValidation,
		},
		{
			name:           "Email owned by another account",
			requestBody:    map[string]interface{}{"email": "taken@example.com"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  services.CodeDuplicateIdentity,
		},
		{
			name:           "Latitude out of range",
			requestBody:    map[string]interface{}{"latitude": 91.0, "longitude": 10.0},
			expectedStatus: http.StatusBadRequest,
			expectedError:  services.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestEnv(t)
			user := createTestUser(t, db, "9876543210", "asha@example.com", models.RoleCustomer)
			createTestUser(t, db, "9000000009", "taken@example.com", models.RoleCustomer)

			w := performRequest(t, setupUserRouter(user), http.MethodPut, "/users/me", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())

			response := decodeResponse(t, w)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, errorCode(t, response))
				return
			}
			tt.checkResponse(t, responseData(t, response))
		})
	}
}

func TestConsumeCredit(t *testing.T) {
	db := setupTestEnv(t)
	user := createTestUser(t, db, "9876543210", "", models.RoleCustomer)
	router := setupUserRouter(user)

	for used := 1; used <= models.DefaultCreditLimit; used++ {
		w := performRequest(t, router, http.MethodPost, "/users/me/credits", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		data := responseData(t, decodeResponse(t, w))
		assert.Equal(t, float64(used), data["credits_used"])
		assert.Equal(t, float64(models.DefaultCreditLimit), data["credit_limit"])
		assert.Equal(t, float64(models.DefaultCreditLimit-used), data["credits_remaining"])
	}

	w := performRequest(t, router, http.MethodPost, "/users/me/credits", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, services.CodeCreditLimitReached, errorCode(t, decodeResponse(t, w)))
}

func TestUserRoutes_WithoutAuth(t *testing.T) {
	setupTestEnv(t)
	router := setupUserRouter(nil)

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/users/me"},
		{http.MethodPut, "/users/me"},
		{http.MethodPost, "/users/me/credits"},
	} {
		w := performRequest(t, router, req.method, req.path, map[string]interface{}{})
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", req.method, req.path)
	}
}
