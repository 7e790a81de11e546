package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/ParthDhoot27/stichUP/config"
	"github.com/ParthDhoot27/stichUP/models"
	"github.com/ParthDhoot27/stichUP/services"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReconcileRequest optionally limits reconciliation to one tailor
type ReconcileRequest struct {
	TailorID *uint `json:"tailor_id" binding:"omitempty,gt=0"`
}

// SetPaymentRequest represents the request body for POST /admin/jobs/:id/payment
type SetPaymentRequest struct {
	Status string `json:"status" binding:"required,oneof=paid refunded"`
}

func adminService() *services.AdminService {
	rate := 0.10
	if cfg := config.GetConfig(); cfg != nil {
		rate = cfg.CommissionRate
	}
	return services.NewAdminService(config.GetDB(), rate)
}

// GetMetrics handles GET /api/v1/admin/metrics
func GetMetrics(c *gin.Context) {
	metrics, err := adminService().Metrics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, metrics)
}

// ExportMetrics handles GET /api/v1/admin/metrics/export - downloads an xlsx workbook
func ExportMetrics(c *gin.Context) {
	var buf bytes.Buffer
	if err := adminService().ExportMetrics(c.Request.Context(), &buf); err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("stichup-metrics-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ReconcileCounters handles POST /api/v1/admin/reconcile - recomputes tailor
// queue counters from live job counts
func ReconcileCounters(c *gin.Context) {
	var req ReconcileRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	corrections, err := tailorService().ReconcileCounters(c.Request.Context(), req.TailorID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    corrections,
		"count":   len(corrections),
	})
}

// VerifyTailor handles POST /api/v1/admin/tailors/:id/verify
func VerifyTailor(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	tailorID, ok := idParam(c, "id")
	if !ok {
		return
	}

	tailor, err := tailorService().Verify(c.Request.Context(), tailorID, identity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, tailor)
}

// SetPaymentStatus handles POST /api/v1/admin/jobs/:id/payment
func SetPaymentStatus(c *gin.Context) {
	var req SetPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	jobAction(func(svc *services.JobService, c *gin.Context, jobID uint, identity models.Identity) (*models.Job, error) {
		return svc.SetPaymentStatus(c.Request.Context(), jobID, identity, req.Status)
	})(c)
}
