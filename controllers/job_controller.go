package controllers

import (
	"net/http"

	"github.com/ParthDhoot27/stichUP/config"
	"github.com/ParthDhoot27/stichUP/models"
	"github.com/ParthDhoot27/stichUP/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateJobRequest represents the request body for POST /jobs
type CreateJobRequest struct {
	TailorID            uint   `json:"tailor_id" binding:"required"`
	WorkType            string `json:"work_type" binding:"omitempty,oneof=light heavy"`
	SpecialInstructions string `json:"special_instructions" binding:"max=2000"`
	DeliveryAddress     string `json:"delivery_address" binding:"max=500"`
}

// FinishJobRequest represents the request body for POST /jobs/:id/finish
type FinishJobRequest struct {
	Images []string         `json:"images" binding:"omitempty,max=20,dive,weburl"`
	Price  *decimal.Decimal `json:"price"`
}

// CancelJobRequest represents the request body for POST /jobs/:id/cancel
type CancelJobRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// RevisionRequest represents the request body for POST /jobs/:id/revision
type RevisionRequest struct {
	Note string `json:"note" binding:"max=1000"`
}

// AddImageRequest represents the request body for POST /jobs/:id/image
type AddImageRequest struct {
	URL string `json:"url" binding:"required,weburl"`
}

// RateJobRequest represents the request body for POST /jobs/:id/rate
type RateJobRequest struct {
	Value   int    `json:"value" binding:"required,gte=1,lte=5"`
	Comment string `json:"comment" binding:"max=1000"`
}

// ListTailorJobsQuery filters GET /jobs/tailor/:id
type ListTailorJobsQuery struct {
	Status string `form:"status"`
}

func jobService() *services.JobService {
	opts := []services.JobServiceOption{}
	if cfg := config.GetConfig(); cfg != nil && cfg.PublicBaseURL != "" {
		opts = append(opts, services.WithPublicBaseURL(cfg.PublicBaseURL))
	}
	return services.NewJobService(config.GetDB(), opts...)
}

// bindOptionalJSON binds a body when one is sent; empty bodies leave req untouched
func bindOptionalJSON(c *gin.Context, req interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

// CreateJob handles POST /api/v1/jobs - a customer files a job with a tailor
func CreateJob(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	job, err := jobService().Create(c.Request.Context(), identity, services.CreateJobInput{
		TailorID:            req.TailorID,
		WorkType:            req.WorkType,
		SpecialInstructions: req.SpecialInstructions,
		DeliveryAddress:     req.DeliveryAddress,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, job)
}

// GetJob handles GET /api/v1/jobs/:id
func GetJob(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}

	job, err := jobService().Get(c.Request.Context(), jobID, identity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, job)
}

// ListMyJobs handles GET /api/v1/jobs/user/me - the caller's jobs, newest first
func ListMyJobs(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	page, limit := pageParams(c)
	jobs, pagination, err := jobService().ListForUser(c.Request.Context(), identity, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       jobs,
		"pagination": pagination,
	})
}

// ListTailorJobs handles GET /api/v1/jobs/tailor/:id (owner or admin)
func ListTailorJobs(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	tailorID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var q ListTailorJobsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	page, limit := pageParams(c)
	jobs, pagination, err := jobService().ListForTailor(c.Request.Context(), tailorID, identity, q.Status, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       jobs,
		"pagination": pagination,
	})
}

// jobAction wraps a body-less status change in the standard request handling
func jobAction(op func(svc *services.JobService, c *gin.Context, jobID uint, identity models.Identity) (*models.Job, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := currentIdentity(c)
		if !ok {
			return
		}
		jobID, ok := idParam(c, "id")
		if !ok {
			return
		}

		job, err := op(jobService(), c, jobID, identity)
		if err != nil {
			respondError(c, err)
			return
		}

		respondData(c, http.StatusOK, job)
	}
}

// AcceptJob handles POST /api/v1/jobs/:id/accept
var AcceptJob = jobAction(func(svc *services.JobService, c *gin.Context, jobID uint, identity models.Identity) (*models.Job, error) {
	return svc.Accept(c.Request.Context(), jobID, identity)
})

// StartJob handles POST /api/v1/jobs/:id/start
var StartJob = jobAction(func(svc *services.JobService, c *gin.Context, jobID uint, identity models.Identity) (*models.Job, error) {
	return svc.Start(c.Request.Context(), jobID, identity)
})

// ConfirmJob handles POST /api/v1/jobs/:id/confirm
var ConfirmJob = jobAction(func(svc *services.JobService, c *gin.Context, jobID uint, identity models.Identity) (*models.Job, error) {
	return svc.Confirm(c.Request.Context(), jobID, identity)
})

// AssignRider handles POST /api/v1/admin/jobs/:id/assign-rider
var AssignRider = jobAction(func(svc *services.JobService, c *gin.Context, jobID uint, identity models.Identity) (*models.Job, error) {
	return svc.AssignRider(c.Request.Context(), jobID, identity)
})

// MarkJobDelivered handles POST /api/v1/admin/jobs/:id/deliver
var MarkJobDelivered = jobAction(func(svc *services.JobService, c *gin.Context, jobID uint, identity models.Identity) (*models.Job, error) {
	return svc.MarkDelivered(c.Request.Context(), jobID, identity)
})

// CloseJob handles POST /api/v1/admin/jobs/:id/close
var CloseJob = jobAction(func(svc *services.JobService, c *gin.Context, jobID uint, identity models.Identity) (*models.Job, error) {
	return svc.Close(c.Request.Context(), jobID, identity)
})

// FinishJob handles POST /api/v1/jobs/:id/finish - optional photos and final price
func FinishJob(c *gin.Context) {
	var req FinishJobRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	jobAction(func(svc *services.JobService, c *gin.Context, jobID uint, identity models.Identity) (*models.Job, error) {
		return svc.Finish(c.Request.Context(), jobID, identity, services.FinishJobInput{
			ImageURLs: req.Images,
			Price:     req.Price,
		})
	})(c)
}

// CancelJob handles POST /api/v1/jobs/:id/cancel
func CancelJob(c *gin.Context) {
	var req CancelJobRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	jobAction(func(svc *services.JobService, c *gin.Context, jobID uint, identity models.Identity) (*models.Job, error) {
		return svc.Cancel(c.Request.Context(), jobID, identity, req.Reason)
	})(c)
}

// RequestRevision handles POST /api/v1/jobs/:id/revision
func RequestRevision(c *gin.Context) {
	var req RevisionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	jobAction(func(svc *services.JobService, c *gin.Context, jobID uint, identity models.Identity) (*models.Job, error) {
		return svc.RequestRevision(c.Request.Context(), jobID, identity, req.Note)
	})(c)
}

// AddJobImage handles POST /api/v1/jobs/:id/image - attaches a photo URL
func AddJobImage(c *gin.Context) {
	var req AddImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	jobAction(func(svc *services.JobService, c *gin.Context, jobID uint, identity models.Identity) (*models.Job, error) {
		return svc.AddImage(c.Request.Context(), jobID, identity, req.URL)
	})(c)
}

// RateJob handles POST /api/v1/jobs/:id/rate
func RateJob(c *gin.Context) {
	var req RateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	jobAction(func(svc *services.JobService, c *gin.Context, jobID uint, identity models.Identity) (*models.Job, error) {
		return svc.Rate(c.Request.Context(), jobID, identity, req.Value, req.Comment)
	})(c)
}
