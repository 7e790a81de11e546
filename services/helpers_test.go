package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ParthDhoot27/stichUP/config"
	"github.com/ParthDhoot27/stichUP/models"
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
	// every query must share the one in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db), "Failed to migrate test database")
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		GoEnv:       "test",
		JWTSecret:   "test-secret-that-is-long-enough-for-hs256",
		JWTIssuer:   "stichup-test",
		JWTAudience: "stichup-test-api",
		TokenTTL:    time.Hour,
		OTPTTL:      5 * time.Minute,
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

func reloadTailor(t *testing.T, db *gorm.DB, id uint) *models.Tailor {
	t.Helper()

	var tailor models.Tailor
	require.NoError(t, db.First(&tailor, id).Error)
	return &tailor
}

func reloadJob(t *testing.T, db *gorm.DB, id uint) *models.Job {
	t.Helper()

	var job models.Job
	require.NoError(t, db.First(&job, id).Error)
	return &job
}

// jobFixture is a marketplace with one tailor shop and its cast of callers
type jobFixture struct {
	db       *gorm.DB
	svc      *JobService
	tailors  *TailorService
	events   *MockEventPublisher
	images   *MockImageService
	customer *models.User
	stranger *models.User
	owner    *models.User
	admin    *models.User
	tailor   *models.Tailor
	now      time.Time
	ctx      context.Context
}

func newJobFixture(t *testing.T) *jobFixture {
	t.Helper()

	db := setupTestDB(t)
	f := &jobFixture{
		db:     db,
		events: NewMockEventPublisher(),
		images: NewMockImageService(),
		now:    time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		ctx:    context.Background(),
	}
	f.customer = createTestUser(t, db, "9000000001", "customer@example.com", models.RoleCustomer)
	f.stranger = createTestUser(t, db, "9000000002", "stranger@example.com", models.RoleCustomer)
	f.owner = createTestUser(t, db, "9000000003", "owner@example.com", models.RoleTailor)
	f.admin = createTestUser(t, db, "9000000004", "admin@example.com", models.RoleAdmin)
	f.tailor = createTestTailor(t, db, &f.owner.ID, "Stitch Corner", 12.9716, 77.5946)

	f.svc = &JobService{
		db:            db,
		events:        f.events,
		images:        f.images,
		publicBaseURL: "http://api.test",
		now:           func() time.Time { return f.now },
	}
	f.tailors = NewTailorService(db)
	return f
}

func (f *jobFixture) tick(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *jobFixture) createJob(t *testing.T) *models.Job {
	t.Helper()

	job, err := f.svc.Create(f.ctx, f.customer.Identity(), CreateJobInput{TailorID: f.tailor.ID, WorkType: models.WorkTypeLight})
	require.NoError(t, err)
	return job
}

// advance drives a fresh job through the happy path until it reaches status
func (f *jobFixture) advance(t *testing.T, status models.JobStatus) *models.Job {
	t.Helper()

	job := f.createJob(t)
	steps := []struct {
		reached models.JobStatus
		run     func() (*models.Job, error)
	}{
		{models.StatusAccepted, func() (*models.Job, error) { return f.svc.Accept(f.ctx, job.ID, f.owner.Identity()) }},
		{models.StatusInProgress, func() (*models.Job, error) { return f.svc.Start(f.ctx, job.ID, f.owner.Identity()) }},
		{models.StatusFinishedByTailor, func() (*models.Job, error) {
			return f.svc.Finish(f.ctx, job.ID, f.owner.Identity(), FinishJobInput{})
		}},
		{models.StatusAwaitingUserConfirmation, func() (*models.Job, error) { return f.svc.Confirm(f.ctx, job.ID, f.customer.Identity()) }},
		{models.StatusRiderAssigned, func() (*models.Job, error) { return f.svc.AssignRider(f.ctx, job.ID, f.admin.Identity()) }},
		{models.StatusDelivered, func() (*models.Job, error) { return f.svc.MarkDelivered(f.ctx, job.ID, f.admin.Identity()) }},
		{models.StatusClosed, func() (*models.Job, error) { return f.svc.Close(f.ctx, job.ID, f.admin.Identity()) }},
	}

	if status == models.StatusRequested {
		return job
	}
	for _, step := range steps {
		f.tick(time.Minute)
		var err error
		job, err = step.run()
		require.NoError(t, err, "advancing to %s", step.reached)
		if step.reached == status {
			return job
		}
	}
	t.Fatalf("status %s is not on the happy path", status)
	return nil
}

// imageFileHeader builds a multipart file header as a request handler would receive it
func imageFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))

	_, header, err := req.FormFile("image")
	require.NoError(t, err)
	return header
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, ErrorCode(err), "unexpected error: %v", err)
}
