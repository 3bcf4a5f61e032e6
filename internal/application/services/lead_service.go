// Package services provides application-level orchestration services
package services

import (
	"fmt"
	"time"

	"github.com/pixreview/pixreview-go/internal/domain/funnel"
	"github.com/pixreview/pixreview-go/internal/domain/user"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/performance"
	"github.com/pixreview/pixreview-go/pkg/config"
)

// LeadService owns every mutation of persisted visitor records. The
// FinalBalance invariant (FinalBalance == TotalEarned + signup bonus)
// is enforced here and nowhere else.
type LeadService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	recordRepo  user.RecordRepository
}

// NewLeadService creates a new lead service
func NewLeadService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker, recordRepo user.RecordRepository) *LeadService {
	return &LeadService{
		logger:      logger,
		perfTracker: perfTracker,
		recordRepo:  recordRepo,
	}
}

// LeadStats holds the aggregate numbers for the admin dashboard.
type LeadStats struct {
	TotalUsers       int     `json:"totalUsers"`
	TotalEvaluations int     `json:"totalEvaluations"`
	TotalPaid        float64 `json:"totalPaid"`
	AverageEarned    float64 `json:"averageEarned"`
	WithWithdrawal   int     `json:"withWithdrawal"`
	AllowContact     int     `json:"allowContact"`
}

// EnsureRecord creates the record when it does not exist yet. Records
// are created lazily on the first reward-earning event.
func (s *LeadService) EnsureRecord(recordID, name string) error {
	existing, err := s.recordRepo.FindByID(recordID)
	if err != nil {
		return fmt.Errorf("record lookup failed: %w", err)
	}
	if existing != nil {
		return nil
	}

	now := time.Now().UTC()
	record := &user.Record{
		ID:           recordID,
		Name:         name,
		TotalEarned:  0,
		FinalBalance: config.SignupBonus,
		CreatedAt:    now,
		Changed:      now,
	}
	if err := s.recordRepo.Store(record); err != nil {
		return fmt.Errorf("record insert failed: %w", err)
	}

	s.logger.Funnel().Info("Visitor record created", "recordId", recordID, "name", name)
	return nil
}

// RecordEvaluation appends one evaluation and rolls its earnings (plus
// any feedback bonus) into the record's totals.
func (s *LeadService) RecordEvaluation(recordID, name string, eval *funnel.Evaluation, bonus float64) error {
	marker := s.perfTracker.StartOperation("lead:record_evaluation")
	defer marker.Complete()

	if err := s.EnsureRecord(recordID, name); err != nil {
		marker.SetError(err)
		return err
	}

	if err := s.recordRepo.AppendEvaluation(recordID, eval); err != nil {
		marker.SetError(err)
		return fmt.Errorf("evaluation insert failed: %w", err)
	}

	record, err := s.recordRepo.FindByID(recordID)
	if err != nil || record == nil {
		marker.SetError(err)
		return fmt.Errorf("record reload failed: %w", err)
	}

	record.TotalEarned += eval.EarnedAmount + bonus
	record.FinalBalance = record.TotalEarned + config.SignupBonus
	record.Changed = time.Now().UTC()

	if err := s.recordRepo.Update(record); err != nil {
		marker.SetError(err)
		return fmt.Errorf("record update failed: %w", err)
	}

	marker.AddMetadata("rating", string(eval.Rating))
	marker.SetSuccess(true)
	return nil
}

// SetWithdrawal stores the payout details submitted at finalization.
func (s *LeadService) SetWithdrawal(recordID string, w *user.Withdrawal, allowContact bool) error {
	marker := s.perfTracker.StartOperation("lead:set_withdrawal")
	defer marker.Complete()

	if err := s.recordRepo.SetWithdrawal(recordID, w, allowContact); err != nil {
		marker.SetError(err)
		return fmt.Errorf("withdrawal update failed: %w", err)
	}

	marker.SetSuccess(true)
	return nil
}

// GetRecord loads a single record with its evaluations.
func (s *LeadService) GetRecord(id string) (*user.Record, error) {
	return s.recordRepo.FindByID(id)
}

// ListRecords loads every record, newest first.
func (s *LeadService) ListRecords() ([]*user.Record, error) {
	return s.recordRepo.FindAll()
}

// Stats computes the aggregate dashboard numbers.
func (s *LeadService) Stats() (*LeadStats, error) {
	marker := s.perfTracker.StartOperation("lead:stats")
	defer marker.Complete()

	records, err := s.recordRepo.FindAll()
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	stats := &LeadStats{TotalUsers: len(records)}
	for _, record := range records {
		stats.TotalEvaluations += len(record.Evaluations)
		stats.TotalPaid += record.FinalBalance
		if record.Withdrawal != nil {
			stats.WithWithdrawal++
		}
		if record.AllowFutureContact {
			stats.AllowContact++
		}
	}
	if stats.TotalUsers > 0 {
		stats.AverageEarned = stats.TotalPaid / float64(stats.TotalUsers)
	}

	marker.SetSuccess(true)
	return stats, nil
}
