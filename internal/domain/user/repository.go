// Package user defines the interfaces for accessing visitor records and
// their evaluations. The repositories abstract persistence details so the
// application services stay decoupled from the database.
// Note: funnel sessions and presence entries are handled by the cache
// layer, not persistence.
package user

import (
	"time"

	"github.com/pixreview/pixreview-go/internal/domain/funnel"
)

// Withdrawal holds the payout details a visitor submits at the end of the
// funnel. No money ever moves; this is lead-capture data.
type Withdrawal struct {
	FullName string `json:"fullName"`
	PixKey   string `json:"pixKey"`
	WhatsApp string `json:"whatsapp"`
}

// Record represents one visitor who earned at least one reward. It is
// created on the first reward-earning event and updated in place.
type Record struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Evaluations        []funnel.Evaluation `json:"evaluations"`
	TotalEarned        float64             `json:"totalEarned"`
	FinalBalance       float64             `json:"finalBalance"`
	Withdrawal         *Withdrawal         `json:"withdrawalData,omitempty"`
	AllowFutureContact bool                `json:"allowFutureContact"`
	CreatedAt          time.Time           `json:"timestamp"`
	Changed            time.Time           `json:"changed"`
}

// RecordRepository defines the operations for persisting visitor records.
type RecordRepository interface {
	FindByID(id string) (*Record, error)
	FindAll() ([]*Record, error)
	Store(record *Record) error
	Update(record *Record) error
	AppendEvaluation(recordID string, eval *funnel.Evaluation) error
	SetWithdrawal(recordID string, w *Withdrawal, allowContact bool) error
}

// SettingsRepository defines the operations for the operator-editable
// settings blobs (tracking pixel id, video embed codes).
type SettingsRepository interface {
	Get(key string) (string, error)
	Set(key, value string) error
	All() (map[string]string, error)
}
