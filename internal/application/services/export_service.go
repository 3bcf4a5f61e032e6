package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pixreview/pixreview-go/internal/domain/user"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/performance"
)

// ExportService renders the persisted records as a structured JSON dump
// and as a human-readable text report for the admin view.
type ExportService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	leads       *LeadService
	nowFn       func() time.Time
}

// NewExportService creates a new export service
func NewExportService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker, leads *LeadService) *ExportService {
	return &ExportService{
		logger:      logger,
		perfTracker: perfTracker,
		leads:       leads,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

// ExportPayload is the structured dump format.
type ExportPayload struct {
	ExportedAt time.Time      `json:"exportedAt"`
	Stats      *LeadStats     `json:"stats"`
	Records    []*user.Record `json:"records"`
}

// ExportJSON returns the full records collection as indented JSON.
func (s *ExportService) ExportJSON() ([]byte, error) {
	marker := s.perfTracker.StartOperation("export:json")
	defer marker.Complete()

	records, err := s.leads.ListRecords()
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	stats, err := s.leads.Stats()
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	payload := &ExportPayload{
		ExportedAt: s.nowFn(),
		Stats:      stats,
		Records:    records,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	marker.AddMetadata("records", len(records))
	marker.SetSuccess(true)
	return data, nil
}

// ExportReport returns a human-readable text report of every record.
func (s *ExportService) ExportReport() (string, error) {
	marker := s.perfTracker.StartOperation("export:report")
	defer marker.Complete()

	records, err := s.leads.ListRecords()
	if err != nil {
		marker.SetError(err)
		return "", err
	}
	stats, err := s.leads.Stats()
	if err != nil {
		marker.SetError(err)
		return "", err
	}

	var b strings.Builder
	b.WriteString("PIXREVIEW - VISITOR REPORT\n")
	fmt.Fprintf(&b, "Generated: %s\n", s.nowFn().Format(time.RFC3339))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	fmt.Fprintf(&b, "Total visitors:    %d\n", stats.TotalUsers)
	fmt.Fprintf(&b, "Total evaluations: %d\n", stats.TotalEvaluations)
	fmt.Fprintf(&b, "Total balance:     R$ %.2f\n", stats.TotalPaid)
	fmt.Fprintf(&b, "Average balance:   R$ %.2f\n", stats.AverageEarned)
	fmt.Fprintf(&b, "With withdrawal:   %d\n", stats.WithWithdrawal)
	fmt.Fprintf(&b, "Allow contact:     %d\n\n", stats.AllowContact)

	for i, record := range records {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, record.Name, record.ID)
		fmt.Fprintf(&b, "   Registered: %s\n", record.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Fprintf(&b, "   Earned: R$ %.2f - Final balance: R$ %.2f\n", record.TotalEarned, record.FinalBalance)

		for _, eval := range record.Evaluations {
			fmt.Fprintf(&b, "   - %s: %s (R$ %.2f)", eval.ProductName, eval.Rating, eval.EarnedAmount)
			if eval.Feedback != "" {
				fmt.Fprintf(&b, " - %q", eval.Feedback)
			}
			b.WriteString("\n")
		}

		if record.Withdrawal != nil {
			fmt.Fprintf(&b, "   Withdrawal: %s / Pix %s / WhatsApp %s\n",
				record.Withdrawal.FullName, record.Withdrawal.PixKey, record.Withdrawal.WhatsApp)
		}
		fmt.Fprintf(&b, "   Future contact allowed: %v\n\n", record.AllowFutureContact)
	}

	marker.AddMetadata("records", len(records))
	marker.SetSuccess(true)
	return b.String(), nil
}
