package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/ParthDhoot27/stichUP/config"
	"github.com/ParthDhoot27/stichUP/models"
	"github.com/ParthDhoot27/stichUP/routes"
	"github.com/ParthDhoot27/stichUP/services"
	"github.com/ParthDhoot27/stichUP/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// apiSuite runs requests through the production router with real session tokens.
// External systems (event broker, object storage) are replaced with mocks.
type apiSuite struct {
	suite.Suite
	router *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	events *services.MockEventPublisher
	images *services.MockImageService
}

// SetupTest gives every test a fresh database and fresh mocks
func (s *apiSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	testutil.MustSetTestEnvironment(s.T())

	s.db = testutil.NewTestDB(s.T())
	s.cfg = testutil.TestConfig()

	previousPublisher := services.GetEventPublisher()
	previousImages := services.GetImageService()
	previousOTPs := services.GetOTPStore()
	s.T().Cleanup(func() {
		services.SetEventPublisher(previousPublisher)
		services.SetImageService(previousImages)
		services.SetOTPStore(previousOTPs)
	})

	s.events = services.NewMockEventPublisher()
	s.events.SetAsMockForTesting()
	s.images = services.NewMockImageService()
	s.images.SetAsMockForTesting()
	services.SetOTPStore(services.NewMemoryOTPStore())

	s.router = routes.Setup(s.cfg, nil)
}

// createUser inserts an account directly and returns it with a signed token
func (s *apiSuite) createUser(phone, role string) (*models.User, string) {
	user := &models.User{Name: "User " + phone, Phone: phone, Role: role}
	s.Require().NoError(s.db.Create(user).Error)
	return user, testutil.MustIssueToken(s.T(), s.cfg, user)
}

// createShop registers a tailor account together with its shop
func (s *apiSuite) createShop(phone string, lat, lng float64) (*models.Tailor, string) {
	owner, token := s.createUser(phone, models.RoleTailor)
	w := s.request(http.MethodPost, "/api/v1/tailors", token, map[string]interface{}{
		"name":      "Shop " + phone,
		"latitude":  lat,
		"longitude": lng,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var tailor models.Tailor
	s.Require().NoError(s.db.Where("user_id = ?", owner.ID).First(&tailor).Error)
	return &tailor, token
}

// request sends body as JSON, nil sends no body
func (s *apiSuite) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", testutil.BearerHeader(token))
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// mustData performs a request that has to return status and yields its data object
func (s *apiSuite) mustData(method, path, token string, body interface{}, status int) map[string]interface{} {
	w := s.request(method, path, token, body)
	s.Require().Equal(status, w.Code, "%s %s: %s", method, path, w.Body.String())
	return s.decode(w)["data"].(map[string]interface{})
}

func (s *apiSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func (s *apiSuite) errorCode(w *httptest.ResponseRecorder) string {
	errBody, ok := s.decode(w)["error"].(map[string]interface{})
	s.Require().True(ok, "expected an error body: %s", w.Body.String())
	return errBody["code"].(string)
}

func (s *apiSuite) reloadTailor(id uint) *models.Tailor {
	var tailor models.Tailor
	s.Require().NoError(s.db.First(&tailor, id).Error)
	return &tailor
}

func jobURL(id uint, action string) string {
	if action == "" {
		return fmt.Sprintf("/api/v1/jobs/%d", id)
	}
	return fmt.Sprintf("/api/v1/jobs/%d/%s", id, action)
}

func adminJobURL(id uint, action string) string {
	return fmt.Sprintf("/api/v1/admin/jobs/%d/%s", id, action)
}
