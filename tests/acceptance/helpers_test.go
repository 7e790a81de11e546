package acceptance

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	"github.com/ParthDhoot27/stichUP/config"
	"github.com/ParthDhoot27/stichUP/routes"
	"github.com/ParthDhoot27/stichUP/services"
	"github.com/ParthDhoot27/stichUP/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

// serverSuite runs the production router behind a real listener
type serverSuite struct {
	suite.Suite
	server *httptest.Server
	cfg    *config.Config
}

func (s *serverSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	testutil.MustSetTestEnvironment(s.T())

	testutil.NewTestDB(s.T())
	s.cfg = testutil.TestConfig()

	previousPublisher := services.GetEventPublisher()
	previousImages := services.GetImageService()
	previousOTPs := services.GetOTPStore()
	s.T().Cleanup(func() {
		services.SetEventPublisher(previousPublisher)
		services.SetImageService(previousImages)
		services.SetOTPStore(previousOTPs)
	})
	services.NewMockEventPublisher().SetAsMockForTesting()
	services.SetImageService(services.NewLocalImageService(s.T().TempDir()))
	services.SetOTPStore(services.NewMemoryOTPStore())

	s.server = httptest.NewServer(routes.Setup(s.cfg, nil))
	s.T().Cleanup(s.server.Close)
}

// call sends body as JSON and decodes the JSON reply
func (s *serverSuite) call(method, path, token string, body interface{}) (int, map[string]interface{}) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req, token)
}

// mustCall performs a request that has to return status and yields its data object
func (s *serverSuite) mustCall(method, path, token string, body interface{}, status int) map[string]interface{} {
	code, response := s.call(method, path, token, body)
	s.Require().Equal(status, code, "%s %s: %v", method, path, response)
	return response["data"].(map[string]interface{})
}

// uploadPhoto posts a multipart image form field
func (s *serverSuite) uploadPhoto(path, token, filename string, content []byte) (int, map[string]interface{}) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(writer.Close())

	req, err := http.NewRequest(http.MethodPost, s.server.URL+path, body)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return s.send(req, token)
}

func (s *serverSuite) send(req *http.Request, token string) (int, map[string]interface{}) {
	if token != "" {
		req.Header.Set("Authorization", testutil.BearerHeader(token))
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

// fetch returns the raw response, for non-JSON bodies
func (s *serverSuite) fetch(path, token string) *http.Response {
	req, err := http.NewRequest(http.MethodGet, s.server.URL+path, nil)
	s.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", testutil.BearerHeader(token))
	}
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	return resp
}

// signup registers an account and returns its session token
func (s *serverSuite) signup(name, phone, role string) string {
	data := s.mustCall(http.MethodPost, "/api/v1/auth/signup", "", map[string]interface{}{
		"name":     name,
		"phone":    phone,
		"password": "secret123",
		"role":     role,
	}, http.StatusCreated)
	return data["token"].(string)
}
