package services

import (
	"context"
	"time"

	"github.com/ParthDhoot27/stichUP/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CounterCorrection records one tailor whose stored counters drifted from their jobs
type CounterCorrection struct {
	TailorID            uint `json:"tailor_id"`
	WaitingListBefore   int  `json:"waiting_list_before"`
	WaitingListAfter    int  `json:"waiting_list_after"`
	CurrentOrdersBefore int  `json:"current_orders_before"`
	CurrentOrdersAfter  int  `json:"current_orders_after"`
}

type statusCount struct {
	TailorID uint
	Status   string
	Count    int
}

// ReconcileCounters recomputes waiting-list and current-order counts from
// live jobs. tailorID limits the pass to one tailor; nil checks them all.
// Only tailors whose counters changed are returned.
func (s *TailorService) ReconcileCounters(ctx context.Context, tailorID *uint) ([]CounterCorrection, error) {
	corrections := []CounterCorrection{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jobQuery := tx.Model(&models.Job{}).
			Select("tailor_id, status, COUNT(*) AS count").
			Where("status IN ?", countedStatuses()).
			Group("tailor_id, status")
		if tailorID != nil {
			jobQuery = jobQuery.Where("tailor_id = ?", *tailorID)
		}

		// Counter updates from job transitions queue behind these locks until the
		// absolute values below are written, so none of them is overwritten.
		var tailors []models.Tailor
		if err := tailorsToReconcile(tx, tailorID).Find(&tailors).Error; err != nil {
			return err
		}
		if tailorID != nil && len(tailors) == 0 {
			return notFound("Tailor")
		}

		var rows []statusCount
		if err := jobQuery.Scan(&rows).Error; err != nil {
			return err
		}

		waiting := map[uint]int{}
		current := map[uint]int{}
		for _, r := range rows {
			if models.JobStatus(r.Status) == models.StatusRequested {
				waiting[r.TailorID] += r.Count
			} else {
				current[r.TailorID] += r.Count
			}
		}

		for _, t := range tailors {
			w, c := waiting[t.ID], current[t.ID]
			if w == t.WaitingListCount && c == t.CurrentOrders {
				continue
			}
			if err := tx.Model(&models.Tailor{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
				"waiting_list_count": w,
				"current_orders":     c,
			}).Error; err != nil {
				return err
			}
			corrections = append(corrections, CounterCorrection{
				TailorID:            t.ID,
				WaitingListBefore:   t.WaitingListCount,
				WaitingListAfter:    w,
				CurrentOrdersBefore: t.CurrentOrders,
				CurrentOrdersAfter:  c,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, c := range corrections {
		log.Warn().
			Uint("tailor_id", c.TailorID).
			Int("waiting_before", c.WaitingListBefore).
			Int("waiting_after", c.WaitingListAfter).
			Int("current_before", c.CurrentOrdersBefore).
			Int("current_after", c.CurrentOrdersAfter).
			Msg("tailor counters reconciled")
	}
	return corrections, nil
}

// tailorsToReconcile selects the tailors to check, locked and in id order so
// concurrent passes take their locks in the same sequence
func tailorsToReconcile(tx *gorm.DB, tailorID *uint) *gorm.DB {
	q := tx.Model(&models.Tailor{}).Clauses(clause.Locking{Strength: "UPDATE"}).Order("id")
	if tailorID != nil {
		q = q.Where("id = ?", *tailorID)
	}
	return q
}

func countedStatuses() []string {
	statuses := []string{string(models.StatusRequested)}
	for _, s := range activeStatuses {
		statuses = append(statuses, string(s))
	}
	return statuses
}

// RunReconciler reconciles every tailor each interval until ctx is done
func (s *TailorService) RunReconciler(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("counter reconciler started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("counter reconciler stopped")
			return
		case <-ticker.C:
			if _, err := s.ReconcileCounters(ctx, nil); err != nil {
				log.Error().Err(err).Msg("counter reconciliation failed")
			}
		}
	}
}
