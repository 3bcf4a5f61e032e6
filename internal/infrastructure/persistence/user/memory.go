package user

import (
	"sort"
	"sync"

	"github.com/pixreview/pixreview-go/internal/domain/funnel"
	"github.com/pixreview/pixreview-go/internal/domain/user"
)

// MemoryRecordRepository is an in-memory RecordRepository used when no
// database is configured and by the test suites.
type MemoryRecordRepository struct {
	mu      sync.RWMutex
	records map[string]*user.Record
}

// NewMemoryRecordRepository creates an empty in-memory repository.
func NewMemoryRecordRepository() *MemoryRecordRepository {
	return &MemoryRecordRepository{
		records: make(map[string]*user.Record),
	}
}

func (r *MemoryRecordRepository) FindByID(id string) (*user.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, found := r.records[id]
	if !found {
		return nil, nil
	}
	clone := *record
	clone.Evaluations = append([]funnel.Evaluation(nil), record.Evaluations...)
	return &clone, nil
}

func (r *MemoryRecordRepository) FindAll() ([]*user.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*user.Record, 0, len(r.records))
	for _, record := range r.records {
		clone := *record
		clone.Evaluations = append([]funnel.Evaluation(nil), record.Evaluations...)
		records = append(records, &clone)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (r *MemoryRecordRepository) Store(record *user.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *record
	clone.Evaluations = append([]funnel.Evaluation(nil), record.Evaluations...)
	r.records[record.ID] = &clone
	return nil
}

func (r *MemoryRecordRepository) Update(record *user.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, found := r.records[record.ID]
	if !found {
		return r.storeLocked(record)
	}
	stored.Name = record.Name
	stored.TotalEarned = record.TotalEarned
	stored.FinalBalance = record.FinalBalance
	stored.AllowFutureContact = record.AllowFutureContact
	stored.Changed = record.Changed
	return nil
}

func (r *MemoryRecordRepository) AppendEvaluation(recordID string, eval *funnel.Evaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record, found := r.records[recordID]; found {
		record.Evaluations = append(record.Evaluations, *eval)
	}
	return nil
}

func (r *MemoryRecordRepository) SetWithdrawal(recordID string, w *user.Withdrawal, allowContact bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record, found := r.records[recordID]; found {
		clone := *w
		record.Withdrawal = &clone
		record.AllowFutureContact = allowContact
	}
	return nil
}

func (r *MemoryRecordRepository) storeLocked(record *user.Record) error {
	clone := *record
	clone.Evaluations = append([]funnel.Evaluation(nil), record.Evaluations...)
	r.records[record.ID] = &clone
	return nil
}

// MemorySettingsRepository is an in-memory SettingsRepository.
type MemorySettingsRepository struct {
	mu       sync.RWMutex
	settings map[string]string
}

// NewMemorySettingsRepository creates an empty in-memory settings repository.
func NewMemorySettingsRepository() *MemorySettingsRepository {
	return &MemorySettingsRepository{
		settings: make(map[string]string),
	}
}

func (r *MemorySettingsRepository) Get(key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings[key], nil
}

func (r *MemorySettingsRepository) Set(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[key] = value
	return nil
}

func (r *MemorySettingsRepository) All() (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.settings))
	for k, v := range r.settings {
		out[k] = v
	}
	return out, nil
}
