package integration

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ParthDhoot27/stichUP/models"
	"github.com/ParthDhoot27/stichUP/services"
	"github.com/ParthDhoot27/stichUP/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

// FileUploadIntegrationTestSuite uploads job photos to local disk and reads them back
type FileUploadIntegrationTestSuite struct {
	apiSuite
	uploadDir     string
	jobID         uint
	customerToken string
	tailorToken   string
}

func (suite *FileUploadIntegrationTestSuite) SetupTest() {
	suite.apiSuite.SetupTest()

	suite.uploadDir = suite.T().TempDir()
	services.SetImageService(services.NewLocalImageService(suite.uploadDir))

	_, suite.customerToken = suite.createUser("9711111111", models.RoleCustomer)
	tailor, tailorToken := suite.createShop("9722222222", 19.0760, 72.8777)
	suite.tailorToken = tailorToken

	data := suite.mustData(http.MethodPost, "/api/v1/jobs", suite.customerToken, map[string]interface{}{"tailor_id": tailor.ID}, http.StatusCreated)
	suite.jobID = uint(data["id"].(float64))
}

func (suite *FileUploadIntegrationTestSuite) upload(token, filename string, content []byte) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	suite.Require().NoError(err)
	_, err = part.Write(content)
	suite.Require().NoError(err)
	suite.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost, jobURL(suite.jobID, "images/upload"), body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", testutil.BearerHeader(token))

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// TestUploadAndServe stores a photo on disk and serves it back through the public route
func (suite *FileUploadIntegrationTestSuite) TestUploadAndServe() {
	content := []byte("\x89PNG\r\n\x1a\nprogress photo")
	w := suite.upload(suite.tailorToken, "kurta progress.png", content)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	images := suite.decode(w)["data"].(map[string]interface{})["images"].([]interface{})
	suite.Require().Len(images, 1)
	image := images[0].(map[string]interface{})
	assert.Equal(suite.T(), models.SenderTailor, image["uploaded_by"])

	url := image["url"].(string)
	suite.Require().True(strings.HasPrefix(url, "http://api.test/api/v1/uploads/"), url)
	filename := strings.TrimPrefix(url, "http://api.test")
	assert.True(suite.T(), strings.HasSuffix(filename, "_kurta_progress.png"), "spaces are replaced and a timestamp prefixed")

	stored, err := os.ReadFile(filepath.Join(suite.uploadDir, filepath.Base(filename)))
	suite.Require().NoError(err)
	assert.Equal(suite.T(), content, stored)

	served := suite.request(http.MethodGet, filename, "", nil)
	suite.Require().Equal(http.StatusOK, served.Code)
	assert.Equal(suite.T(), "image/png", served.Header().Get("Content-Type"))
	assert.Equal(suite.T(), content, served.Body.Bytes())

	assert.Contains(suite.T(), suite.events.Actions(), "image")
}

// TestUploadRejections covers invalid files and callers outside the job
func (suite *FileUploadIntegrationTestSuite) TestUploadRejections() {
	_, strangerToken := suite.createUser("9733333333", models.RoleCustomer)

	testCases := []struct {
		name     string
		token    string
		filename string
		status   int
		code     string
	}{
		{"Unsupported format", suite.customerToken, "scan.pdf", http.StatusBadRequest, "INVALID_FILE_FORMAT"},
		{"Stranger", strangerToken, "photo.jpg", http.StatusForbidden, services.CodeForbidden},
	}

	for _, tc := range testCases {
		suite.T().Run(tc.name, func(t *testing.T) {
			w := suite.upload(tc.token, tc.filename, []byte("bytes"))
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Equal(t, tc.code, suite.errorCode(w))
		})
	}

	entries, err := os.ReadDir(suite.uploadDir)
	suite.Require().NoError(err)
	assert.Empty(suite.T(), entries, "rejected uploads leave nothing on disk")
}

// TestServeMissingImage returns 404 for a name that was never stored
func (suite *FileUploadIntegrationTestSuite) TestServeMissingImage() {
	w := suite.request(http.MethodGet, "/api/v1/uploads/never-stored.jpg", "", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func TestFileUploadIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(FileUploadIntegrationTestSuite))
}
