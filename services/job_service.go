package services

import (
	"context"
	"mime/multipart"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ParthDhoot27/stichUP/models"
	"github.com/ParthDhoot27/stichUP/utils"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxInstructionsLength bounds the free-text instructions on a job
const MaxInstructionsLength = 2000

// JobService drives jobs through their lifecycle and keeps the tailor's
// counters in step with every status change
type JobService struct {
	db            *gorm.DB
	events        EventPublisher
	images        ImageService
	publicBaseURL string
	now           func() time.Time
}

// JobServiceOption customizes a JobService
type JobServiceOption func(*JobService)

// WithClock overrides the time source used for phase timestamps
func WithClock(now func() time.Time) JobServiceOption {
	return func(s *JobService) { s.now = now }
}

// WithPublicBaseURL sets the origin used to build links to uploaded photos
func WithPublicBaseURL(baseURL string) JobServiceOption {
	return func(s *JobService) { s.publicBaseURL = strings.TrimRight(baseURL, "/") }
}

// NewJobService creates a job service backed by db, publishing through the
// configured event publisher and storing photos in the configured image service
func NewJobService(db *gorm.DB, opts ...JobServiceOption) *JobService {
	s := &JobService{
		db:            db,
		events:        GetEventPublisher(),
		images:        GetImageService(),
		publicBaseURL: "http://localhost:8080",
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateJobInput is a customer's request for work
type CreateJobInput struct {
	TailorID            uint
	WorkType            string
	SpecialInstructions string
	DeliveryAddress     string
}

// FinishJobInput is what the tailor reports on completion
type FinishJobInput struct {
	ImageURLs []string
	Price     *decimal.Decimal
}

// Pagination describes one page of a list
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Paging defaults
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// NormalizePage clamps page and limit to sane values
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func newPagination(page, limit int, total int64) Pagination {
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}
}

// Create files a new job with an available tailor and puts it in their queue
func (s *JobService) Create(ctx context.Context, caller models.Identity, in CreateJobInput) (*models.Job, error) {
	if caller.Role != models.RoleCustomer {
		return nil, forbidden("Only customers can create jobs")
	}
	workType, err := NormalizeWorkType(in.WorkType)
	if err != nil {
		return nil, err
	}
	instructions := strings.TrimSpace(in.SpecialInstructions)
	if utf8.RuneCountInString(instructions) > MaxInstructionsLength {
		return nil, fieldError("special_instructions", "must be at most 2000 characters")
	}

	var job models.Job
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tailor models.Tailor
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&tailor, in.TailorID).Error; err != nil {
			if utils.IsNotFound(err) {
				return notFound("Tailor")
			}
			return err
		}
		if !tailor.IsAvailable {
			return &AppError{Code: CodeTailorUnavailable, Message: "Tailor is not accepting new jobs"}
		}

		userID := caller.UserID
		job = models.Job{
			UserID:              &userID,
			UserEmail:           caller.Email,
			TailorID:            tailor.ID,
			WorkType:            workType,
			Status:              models.StatusRequested,
			EstimatedMinutes:    tailor.EstimateMinutes(workType),
			SpecialInstructions: instructions,
			DeliveryAddress:     strings.TrimSpace(in.DeliveryAddress),
			PaymentStatus:       models.PaymentPending,
			RequestedAt:         s.now(),
		}
		if err := tx.Create(&job).Error; err != nil {
			return err
		}
		return incrementCounter(tx, tailor.ID, "waiting_list_count").Error
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("job_id", job.ID).Uint("tailor_id", job.TailorID).Int("eta_mins", job.EstimatedMinutes).Msg("job created")
	publishJobEvent(ctx, s.events, s.event("created", &job, "", caller))
	return s.load(ctx, job.ID)
}

// transition describes one status-changing operation
type transition struct {
	action    jobAction
	authorize func(job *models.Job, tailor *models.Tailor) error
	// updates adds operation-specific columns to the status update
	updates func(job *models.Job, tailor *models.Tailor, set map[string]interface{})
	// effects runs after the status update inside the same transaction
	effects func(tx *gorm.DB, job *models.Job, prior models.JobStatus) error
}

// apply runs a transition atomically: the status check, the status write and
// every counter side effect commit together or not at all. Concurrent callers
// racing on the same job see exactly one winner; the rest get InvalidTransition.
func (s *JobService) apply(ctx context.Context, jobID uint, caller models.Identity, t transition) (*models.Job, error) {
	var prior models.JobStatus
	var snapshot models.Job
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, tailor, err := lockJob(tx, jobID)
		if err != nil {
			return err
		}
		if err := t.authorize(job, tailor); err != nil {
			return err
		}
		if !t.action.allows(job.Status) {
			return transitionError(job.Status, t.action)
		}

		prior = job.Status
		set := map[string]interface{}{"status": string(t.action.to)}
		if job.PhaseTimestamp(t.action.to) == nil {
			set[models.PhaseTimestampColumn[t.action.to]] = s.now()
		}
		if t.updates != nil {
			t.updates(job, tailor, set)
		}

		result := tx.Model(&models.Job{}).Where("id = ? AND status = ?", job.ID, string(prior)).Updates(set)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return transitionError(prior, t.action)
		}

		if t.effects != nil {
			if err := t.effects(tx, job, prior); err != nil {
				return err
			}
		}
		snapshot = *job
		return nil
	})
	if err != nil {
		return nil, err
	}

	snapshot.Status = t.action.to
	log.Info().Uint("job_id", jobID).Str("from", string(prior)).Str("to", string(t.action.to)).Uint("actor_id", caller.UserID).Msg("job status changed")
	publishJobEvent(ctx, s.events, s.event(t.action.name, &snapshot, prior, caller))
	return s.load(ctx, jobID)
}

// lockJob loads a job and its tailor, holding a row lock on the job where the database supports it
func lockJob(tx *gorm.DB, jobID uint) (*models.Job, *models.Tailor, error) {
	return findJobAndTailor(tx.Clauses(clause.Locking{Strength: "UPDATE"}), jobID)
}

func findJobAndTailor(db *gorm.DB, jobID uint) (*models.Job, *models.Tailor, error) {
	var job models.Job
	if err := db.First(&job, jobID).Error; err != nil {
		if utils.IsNotFound(err) {
			return nil, nil, notFound("Job")
		}
		return nil, nil, err
	}
	var tailor models.Tailor
	if err := db.Session(&gorm.Session{NewDB: true}).Unscoped().First(&tailor, job.TailorID).Error; err != nil {
		if utils.IsNotFound(err) {
			return nil, nil, notFound("Tailor")
		}
		return nil, nil, err
	}
	return &job, &tailor, nil
}

func tailorSide(caller models.Identity, verb string) func(*models.Job, *models.Tailor) error {
	return func(job *models.Job, tailor *models.Tailor) error {
		if caller.IsAdmin() || tailor.IsOwnedBy(caller.UserID) {
			return nil
		}
		return forbidden("Only the assigned tailor can " + verb + " this job")
	}
}

func customerSide(caller models.Identity, verb string) func(*models.Job, *models.Tailor) error {
	return func(job *models.Job, tailor *models.Tailor) error {
		if caller.IsAdmin() || job.BelongsTo(caller) {
			return nil
		}
		return forbidden("Only the customer who placed this job can " + verb + " it")
	}
}

func adminOnly(caller models.Identity, verb string) func(*models.Job, *models.Tailor) error {
	return func(job *models.Job, tailor *models.Tailor) error {
		if caller.IsAdmin() {
			return nil
		}
		return forbidden("Only administrators can " + verb + " jobs")
	}
}

// Accept moves a requested job out of the queue and into the tailor's current orders
func (s *JobService) Accept(ctx context.Context, jobID uint, caller models.Identity) (*models.Job, error) {
	return s.apply(ctx, jobID, caller, transition{
		action:    actionAccept,
		authorize: tailorSide(caller, "accept"),
		effects: func(tx *gorm.DB, job *models.Job, prior models.JobStatus) error {
			if err := decrementCounter(tx, job.TailorID, "waiting_list_count").Error; err != nil {
				return err
			}
			return incrementCounter(tx, job.TailorID, "current_orders").Error
		},
	})
}

// Start begins work on an accepted job or on a job sent back for revision
func (s *JobService) Start(ctx context.Context, jobID uint, caller models.Identity) (*models.Job, error) {
	return s.apply(ctx, jobID, caller, transition{
		action:    actionStart,
		authorize: tailorSide(caller, "start"),
	})
}

// Finish marks the work done, optionally attaching photos and the final price
func (s *JobService) Finish(ctx context.Context, jobID uint, caller models.Identity, in FinishJobInput) (*models.Job, error) {
	for _, u := range in.ImageURLs {
		if !utils.IsWebURL(u) {
			return nil, fieldError("images", "must be a list of http(s) URLs")
		}
	}
	if in.Price != nil && in.Price.IsNegative() {
		return nil, fieldError("price", "must not be negative")
	}

	return s.apply(ctx, jobID, caller, transition{
		action:    actionFinish,
		authorize: tailorSide(caller, "finish"),
		updates: func(job *models.Job, tailor *models.Tailor, set map[string]interface{}) {
			if in.Price != nil {
				set["price"] = in.Price.Round(2)
			}
		},
		effects: func(tx *gorm.DB, job *models.Job, prior models.JobStatus) error {
			for _, u := range in.ImageURLs {
				img := models.JobImage{JobID: job.ID, URL: u, UploadedBy: models.SenderTailor, CreatedAt: s.now()}
				if err := tx.Create(&img).Error; err != nil {
					return err
				}
			}
			return decrementCounter(tx, job.TailorID, "current_orders").Error
		},
	})
}

// Confirm records that the customer has seen the finished work
func (s *JobService) Confirm(ctx context.Context, jobID uint, caller models.Identity) (*models.Job, error) {
	return s.apply(ctx, jobID, caller, transition{
		action:    actionConfirm,
		authorize: customerSide(caller, "confirm"),
	})
}

// RequestRevision sends finished work back to the tailor
func (s *JobService) RequestRevision(ctx context.Context, jobID uint, caller models.Identity, note string) (*models.Job, error) {
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > models.MaxMessageLength {
		return nil, fieldError("note", "must be at most 1000 characters")
	}

	return s.apply(ctx, jobID, caller, transition{
		action:    actionRequestRevision,
		authorize: customerSide(caller, "request a revision of"),
		updates: func(job *models.Job, tailor *models.Tailor, set map[string]interface{}) {
			set["revision_count"] = gorm.Expr("revision_count + 1")
			if note != "" {
				set["revision_note"] = note
			}
		},
		effects: func(tx *gorm.DB, job *models.Job, prior models.JobStatus) error {
			return incrementCounter(tx, job.TailorID, "current_orders").Error
		},
	})
}

// Cancel stops a job that has not reached a terminal status
func (s *JobService) Cancel(ctx context.Context, jobID uint, caller models.Identity, reason string) (*models.Job, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > models.MaxMessageLength {
		return nil, fieldError("reason", "must be at most 1000 characters")
	}

	return s.apply(ctx, jobID, caller, transition{
		action: actionCancel,
		authorize: func(job *models.Job, tailor *models.Tailor) error {
			if caller.IsAdmin() || job.BelongsTo(caller) || tailor.IsOwnedBy(caller.UserID) {
				return nil
			}
			return forbidden("Only the customer, the assigned tailor or an administrator can cancel this job")
		},
		updates: func(job *models.Job, tailor *models.Tailor, set map[string]interface{}) {
			set["cancelled_by"] = cancelledBy(job, tailor, caller)
			if reason != "" {
				set["cancellation_reason"] = reason
			}
			if job.PaymentStatus == models.PaymentPaid {
				set["payment_status"] = models.PaymentRefunded
			}
		},
		effects: func(tx *gorm.DB, job *models.Job, prior models.JobStatus) error {
			switch {
			case prior == models.StatusRequested:
				return decrementCounter(tx, job.TailorID, "waiting_list_count").Error
			case isActiveStatus(prior):
				return decrementCounter(tx, job.TailorID, "current_orders").Error
			}
			return nil
		},
	})
}

func cancelledBy(job *models.Job, tailor *models.Tailor, caller models.Identity) string {
	switch {
	case job.BelongsTo(caller):
		return models.CancelledByUser
	case tailor.IsOwnedBy(caller.UserID):
		return models.CancelledByTailor
	}
	return models.CancelledByAdmin
}

// AssignRider hands confirmed work to a delivery rider
func (s *JobService) AssignRider(ctx context.Context, jobID uint, caller models.Identity) (*models.Job, error) {
	return s.apply(ctx, jobID, caller, transition{
		action:    actionAssignRider,
		authorize: adminOnly(caller, "assign riders to"),
	})
}

// MarkDelivered records delivery and books the job's price to the tailor
func (s *JobService) MarkDelivered(ctx context.Context, jobID uint, caller models.Identity) (*models.Job, error) {
	return s.apply(ctx, jobID, caller, transition{
		action:    actionDeliver,
		authorize: adminOnly(caller, "mark delivered"),
		effects: func(tx *gorm.DB, job *models.Job, prior models.JobStatus) error {
			return bookEarnings(tx, job.TailorID, job.Price).Error
		},
	})
}

// Close archives a delivered job
func (s *JobService) Close(ctx context.Context, jobID uint, caller models.Identity) (*models.Job, error) {
	return s.apply(ctx, jobID, caller, transition{
		action:    actionClose,
		authorize: adminOnly(caller, "close"),
	})
}

// SetPaymentStatus moves payment from pending to paid, or from paid to refunded
func (s *JobService) SetPaymentStatus(ctx context.Context, jobID uint, caller models.Identity, status string) (*models.Job, error) {
	if !caller.IsAdmin() {
		return nil, forbidden("Only administrators can change payment status")
	}

	var from string
	switch status {
	case models.PaymentPaid:
		from = models.PaymentPending
	case models.PaymentRefunded:
		from = models.PaymentPaid
	default:
		return nil, fieldError("payment_status", "must be paid or refunded")
	}

	var snapshot models.Job
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, _, err := lockJob(tx, jobID)
		if err != nil {
			return err
		}
		if job.PaymentStatus != from {
			return &AppError{
				Code:    CodeInvalidTransition,
				Message: "Invalid payment status transition",
				Details: InvalidTransitionDetails{
					CurrentStatus:   job.PaymentStatus,
					RequestedStatus: status,
					AllowedStatuses: allowedPaymentStatuses(job.PaymentStatus),
				},
			}
		}
		result := tx.Model(&models.Job{}).Where("id = ? AND payment_status = ?", job.ID, from).Update("payment_status", status)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &AppError{Code: CodeInvalidTransition, Message: "Payment status changed concurrently"}
		}
		snapshot = *job
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishJobEvent(ctx, s.events, s.event("payment_"+status, &snapshot, "", caller))
	return s.load(ctx, jobID)
}

func allowedPaymentStatuses(current string) []string {
	switch current {
	case models.PaymentPending:
		return []string{models.PaymentPaid}
	case models.PaymentPaid:
		return []string{models.PaymentRefunded}
	}
	return []string{}
}

// Rate records the customer's single 1-5 rating of a delivered job and
// folds it into the tailor's running mean
func (s *JobService) Rate(ctx context.Context, jobID uint, caller models.Identity, value int, comment string) (*models.Job, error) {
	if value < 1 || value > 5 {
		return nil, fieldError("value", "must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > models.MaxMessageLength {
		return nil, fieldError("comment", "must be at most 1000 characters")
	}

	var snapshot models.Job
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, _, err := lockJob(tx, jobID)
		if err != nil {
			return err
		}
		if !job.BelongsTo(caller) {
			return forbidden("Only the customer who placed this job can rate it")
		}
		if job.Status != models.StatusDelivered && job.Status != models.StatusClosed {
			return invalidTransition("Only delivered jobs can be rated", InvalidTransitionDetails{
				CurrentStatus:   string(job.Status),
				RequestedStatus: "rated",
				AllowedStatuses: AllowedNextStatuses(job.Status),
			})
		}

		set := map[string]interface{}{"rating_value": value}
		if comment != "" {
			set["rating_comment"] = comment
		}
		result := tx.Model(&models.Job{}).Where("id = ? AND rating_value IS NULL", job.ID).Updates(set)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &AppError{Code: CodeAlreadyRated, Message: "Job has already been rated"}
		}
		if err := applyRating(tx, job.TailorID, value).Error; err != nil {
			return err
		}
		snapshot = *job
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishJobEvent(ctx, s.events, s.event("rated", &snapshot, "", caller))
	return s.load(ctx, jobID)
}

// sender resolves which party of the job the caller is, or Forbidden
func sender(job *models.Job, tailor *models.Tailor, caller models.Identity) (string, error) {
	switch {
	case job.BelongsTo(caller):
		return models.SenderUser, nil
	case tailor.IsOwnedBy(caller.UserID):
		return models.SenderTailor, nil
	}
	return "", forbidden("Only the customer and the assigned tailor can do this")
}

func (s *JobService) loadParties(ctx context.Context, jobID uint) (*models.Job, *models.Tailor, error) {
	return findJobAndTailor(s.db.WithContext(ctx), jobID)
}

// AddMessage appends a message from either party. Status is not checked.
func (s *JobService) AddMessage(ctx context.Context, jobID uint, caller models.Identity, text string) (*models.Job, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fieldError("text", "text is required")
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		return nil, fieldError("text", "must be at most 1000 characters")
	}

	job, tailor, err := s.loadParties(ctx, jobID)
	if err != nil {
		return nil, err
	}
	from, err := sender(job, tailor, caller)
	if err != nil {
		return nil, err
	}

	msg := models.JobMessage{JobID: job.ID, Sender: from, SenderID: caller.UserID, Text: text, CreatedAt: s.now()}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}

	publishJobEvent(ctx, s.events, s.event("message", job, "", caller))
	return s.load(ctx, jobID)
}

// AddImage attaches a photo reference from either party
func (s *JobService) AddImage(ctx context.Context, jobID uint, caller models.Identity, url string) (*models.Job, error) {
	url = strings.TrimSpace(url)
	if !utils.IsWebURL(url) {
		return nil, fieldError("url", "must be an http(s) URL")
	}

	job, tailor, err := s.loadParties(ctx, jobID)
	if err != nil {
		return nil, err
	}
	from, err := sender(job, tailor, caller)
	if err != nil {
		return nil, err
	}

	img := models.JobImage{JobID: job.ID, URL: url, UploadedBy: from, CreatedAt: s.now()}
	if err := s.db.WithContext(ctx).Create(&img).Error; err != nil {
		return nil, err
	}

	publishJobEvent(ctx, s.events, s.event("image", job, "", caller))
	return s.load(ctx, jobID)
}

// UploadImage stores a photo file and attaches it to the job
func (s *JobService) UploadImage(ctx context.Context, jobID uint, caller models.Identity, fileHeader *multipart.FileHeader) (*models.Job, error) {
	if s.images == nil {
		return nil, &AppError{Code: CodeServiceUnavailable, Message: "Image storage is not configured"}
	}

	job, tailor, err := s.loadParties(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if _, err := sender(job, tailor, caller); err != nil {
		return nil, err
	}

	filename, err := s.images.UploadImage(ctx, fileHeader)
	if err != nil {
		return nil, err
	}

	updated, err := s.AddImage(ctx, jobID, caller, s.publicBaseURL+utils.GetImageURL(filename))
	if err != nil {
		if delErr := s.images.DeleteImage(ctx, filename); delErr != nil {
			log.Warn().Err(delErr).Str("filename", filename).Msg("failed to remove orphaned upload")
		}
		return nil, err
	}
	return updated, nil
}

// Get returns a job visible to the caller
func (s *JobService) Get(ctx context.Context, jobID uint, caller models.Identity) (*models.Job, error) {
	job, err := s.load(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if caller.IsAdmin() || job.BelongsTo(caller) || (job.Tailor != nil && job.Tailor.IsOwnedBy(caller.UserID)) {
		return job, nil
	}
	return nil, forbidden("You do not have access to this job")
}

// ListMessages returns a job's conversation, oldest first
func (s *JobService) ListMessages(ctx context.Context, jobID uint, caller models.Identity) ([]models.JobMessage, error) {
	job, err := s.Get(ctx, jobID, caller)
	if err != nil {
		return nil, err
	}
	return job.Messages, nil
}

// ListForUser returns the caller's own jobs, newest first
func (s *JobService) ListForUser(ctx context.Context, caller models.Identity, page, limit int) ([]models.Job, Pagination, error) {
	page, limit = NormalizePage(page, limit)
	query := s.db.WithContext(ctx).Model(&models.Job{})
	if caller.Email != "" {
		query = query.Where("user_id = ? OR LOWER(user_email) = LOWER(?)", caller.UserID, caller.Email)
	} else {
		query = query.Where("user_id = ?", caller.UserID)
	}
	return s.list(query, page, limit)
}

// ListForTailor returns a tailor's jobs for the owner or an administrator
func (s *JobService) ListForTailor(ctx context.Context, tailorID uint, caller models.Identity, status string, page, limit int) ([]models.Job, Pagination, error) {
	tailor, err := findTailor(s.db.WithContext(ctx), tailorID)
	if err != nil {
		return nil, Pagination{}, err
	}
	if !caller.IsAdmin() && !tailor.IsOwnedBy(caller.UserID) {
		return nil, Pagination{}, forbidden("You can only view jobs for your own tailor profile")
	}

	page, limit = NormalizePage(page, limit)
	query := s.db.WithContext(ctx).Model(&models.Job{}).Where("tailor_id = ?", tailorID)
	if status != "" {
		if !containsStatus(models.AllJobStatuses, models.JobStatus(status)) {
			return nil, Pagination{}, fieldError("status", "unknown job status")
		}
		query = query.Where("status = ?", status)
	}
	return s.list(query, page, limit)
}

func (s *JobService) list(query *gorm.DB, page, limit int) ([]models.Job, Pagination, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	jobs := []models.Job{}
	if err := query.Preload("Tailor").
		Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, Pagination{}, err
	}
	return jobs, newPagination(page, limit, total), nil
}

// load reads a job with its tailor, photos and conversation
func (s *JobService) load(ctx context.Context, jobID uint) (*models.Job, error) {
	var job models.Job
	err := s.db.WithContext(ctx).
		Preload("Tailor").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("job_images.id ASC") }).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("job_messages.created_at ASC, job_messages.id ASC") }).
		First(&job, jobID).Error
	if err != nil {
		if utils.IsNotFound(err) {
			return nil, notFound("Job")
		}
		return nil, err
	}
	return &job, nil
}

func (s *JobService) event(action string, job *models.Job, from models.JobStatus, caller models.Identity) JobEvent {
	return JobEvent{
		Action:     action,
		JobID:      job.ID,
		TailorID:   job.TailorID,
		UserID:     job.UserID,
		FromStatus: string(from),
		Status:     string(job.Status),
		ActorID:    caller.UserID,
		ActorRole:  caller.Role,
		OccurredAt: s.now(),
	}
}
