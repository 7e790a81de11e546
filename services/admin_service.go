package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ParthDhoot27/stichUP/models"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

// AdminService computes marketplace-wide figures for operators
type AdminService struct {
	db             *gorm.DB
	commissionRate decimal.Decimal
	now            func() time.Time
}

// Metrics is a snapshot of marketplace activity
type Metrics struct {
	TotalTailors     int64            `json:"total_tailors"`
	AvailableTailors int64            `json:"available_tailors"`
	VerifiedTailors  int64            `json:"verified_tailors"`
	TotalCustomers   int64            `json:"total_customers"`
	ActiveCustomers  int64            `json:"active_customers"` // customers with at least one job
	TotalJobs        int64            `json:"total_jobs"`
	JobsByStatus     map[string]int64 `json:"jobs_by_status"`
	OrdersToday      int64            `json:"orders_today"`
	RevenueTotal     decimal.Decimal  `json:"revenue_total"`
	RevenueToday     decimal.Decimal  `json:"revenue_today"`
	CommissionRate   decimal.Decimal  `json:"commission_rate"`
	CommissionToday  decimal.Decimal  `json:"commission_today"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

// NewAdminService creates an admin service. commissionRate is the platform's share of revenue.
func NewAdminService(db *gorm.DB, commissionRate float64) *AdminService {
	return &AdminService{
		db:             db,
		commissionRate: decimal.NewFromFloat(commissionRate),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source (primarily for testing)
func (s *AdminService) SetClock(now func() time.Time) {
	s.now = now
}

// revenueStatuses are the statuses whose price counts as earned
var revenueStatuses = []string{string(models.StatusDelivered), string(models.StatusClosed)}

// Metrics computes the current snapshot. "Today" starts at midnight UTC.
func (s *AdminService) Metrics(ctx context.Context) (*Metrics, error) {
	db := s.db.WithContext(ctx)
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	m := &Metrics{
		JobsByStatus:   make(map[string]int64, len(models.AllJobStatuses)),
		CommissionRate: s.commissionRate,
		GeneratedAt:    now,
	}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&m.TotalTailors, db.Model(&models.Tailor{})},
		{&m.AvailableTailors, db.Model(&models.Tailor{}).Where("is_available = ?", true)},
		{&m.VerifiedTailors, db.Model(&models.Tailor{}).Where("is_verified = ?", true)},
		{&m.TotalCustomers, db.Model(&models.User{}).Where("role = ?", models.RoleCustomer)},
		{&m.TotalJobs, db.Model(&models.Job{})},
		{&m.OrdersToday, db.Model(&models.Job{}).Where("requested_at >= ?", startOfDay)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	// A customer is keyed by email like legacy jobs are, falling back to the
	// account id for phone-only customers.
	if err := db.Model(&models.Job{}).
		Select("COUNT(DISTINCT COALESCE(NULLIF(LOWER(user_email), ''), CAST(user_id AS TEXT)))").
		Scan(&m.ActiveCustomers).Error; err != nil {
		return nil, err
	}

	for _, status := range models.AllJobStatuses {
		m.JobsByStatus[string(status)] = 0
	}
	var rows []struct {
		Status string
		Count  int64
	}
	if err := db.Model(&models.Job{}).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		m.JobsByStatus[r.Status] = r.Count
	}

	var err error
	if m.RevenueTotal, err = sumPrice(db.Model(&models.Job{}).Where("status IN ?", revenueStatuses)); err != nil {
		return nil, err
	}
	if m.RevenueToday, err = sumPrice(db.Model(&models.Job{}).Where("status IN ? AND delivered_at >= ?", revenueStatuses, startOfDay)); err != nil {
		return nil, err
	}
	m.CommissionToday = m.RevenueToday.Mul(s.commissionRate).Round(2)
	return m, nil
}

func sumPrice(query *gorm.DB) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := query.Select("SUM(price)").Row().Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal.Round(2), nil
}

// ExportMetrics writes the metrics snapshot and a per-tailor breakdown as an xlsx workbook
func (s *AdminService) ExportMetrics(ctx context.Context, w io.Writer) error {
	m, err := s.Metrics(ctx)
	if err != nil {
		return err
	}

	var tailors []models.Tailor
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&tailors).Error; err != nil {
		return err
	}

	file := xlsx.NewFile()
	summary, err := file.AddSheet("Metrics")
	if err != nil {
		return fmt.Errorf("failed to create metrics sheet: %w", err)
	}
	addRow(summary, "Metric", "Value")
	addRow(summary, "Generated at", m.GeneratedAt.Format(time.RFC3339))
	addRow(summary, "Total tailors", m.TotalTailors)
	addRow(summary, "Available tailors", m.AvailableTailors)
	addRow(summary, "Verified tailors", m.VerifiedTailors)
	addRow(summary, "Total customers", m.TotalCustomers)
	addRow(summary, "Active customers", m.ActiveCustomers)
	addRow(summary, "Total jobs", m.TotalJobs)
	addRow(summary, "Orders today", m.OrdersToday)
	addRow(summary, "Revenue total", m.RevenueTotal.StringFixed(2))
	addRow(summary, "Revenue today", m.RevenueToday.StringFixed(2))
	addRow(summary, "Commission today", m.CommissionToday.StringFixed(2))
	for _, status := range models.AllJobStatuses {
		addRow(summary, "Jobs "+string(status), m.JobsByStatus[string(status)])
	}

	sheet, err := file.AddSheet("Tailors")
	if err != nil {
		return fmt.Errorf("failed to create tailors sheet: %w", err)
	}
	addRow(sheet, "ID", "Name", "Available", "Verified", "Rating", "Ratings",
		"Current orders", "Waiting list", "Jobs completed", "Earnings")
	for _, t := range tailors {
		addRow(sheet, t.ID, t.Name, t.IsAvailable, t.IsVerified, t.Rating, t.TotalRatings,
			t.CurrentOrders, t.WaitingListCount, t.TotalJobsCompleted, t.TotalEarnings.StringFixed(2))
	}

	return file.Write(w)
}

func addRow(sheet *xlsx.Sheet, values ...interface{}) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetValue(v)
	}
}
