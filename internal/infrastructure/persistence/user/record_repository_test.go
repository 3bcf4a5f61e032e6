package user

import (
	"log/slog"
	"testing"
	"time"

	"github.com/pixreview/pixreview-go/internal/domain/funnel"
	"github.com/pixreview/pixreview-go/internal/domain/user"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/persistence/database"
)

func newTestDB(t *testing.T) (*database.DB, *logging.ChanneledLogger) {
	t.Helper()

	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		DefaultLevel:  slog.LevelError,
		ChannelLevels: make(map[logging.Channel]slog.Level),
	})
	if err != nil {
		t.Fatalf("NewChanneledLogger() error: %v", err)
	}

	db, err := database.NewConnection("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("NewConnection() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	creator := database.NewTableCreator()
	if err := creator.CreateSchema(db.DB); err != nil {
		t.Fatalf("CreateSchema() error: %v", err)
	}
	return db, logger
}

func testRecord(id string) *user.Record {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	return &user.Record{
		ID:           id,
		Name:         "Joana",
		TotalEarned:  0,
		FinalBalance: 150.0,
		CreatedAt:    now,
		Changed:      now,
	}
}

func TestSQLRecordRoundTrip(t *testing.T) {
	db, logger := newTestDB(t)
	repo := NewSQLRecordRepository(db, logger)

	if err := repo.Store(testRecord("rec-1")); err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	record, err := repo.FindByID("rec-1")
	if err != nil {
		t.Fatalf("FindByID() error: %v", err)
	}
	if record == nil {
		t.Fatal("stored record not found")
	}
	if record.Name != "Joana" || record.FinalBalance != 150.0 {
		t.Errorf("record = %+v", record)
	}
	if record.Withdrawal != nil {
		t.Error("fresh record has withdrawal data")
	}

	missing, err := repo.FindByID("no-such-id")
	if err != nil || missing != nil {
		t.Errorf("FindByID(missing) = %v, %v, want nil, nil", missing, err)
	}
}

func TestSQLAppendEvaluationAndUpdate(t *testing.T) {
	db, logger := newTestDB(t)
	repo := NewSQLRecordRepository(db, logger)

	repo.Store(testRecord("rec-1"))

	eval := &funnel.Evaluation{
		ID:           "eval-1",
		RecordID:     "rec-1",
		ProductID:    3,
		ProductName:  "Bolsa Michael Kors Jet Set",
		Rating:       funnel.RatingDisliked,
		Feedback:     "costura ruim",
		EarnedAmount: 142.37,
		CreatedAt:    time.Date(2026, 3, 15, 12, 5, 0, 0, time.UTC),
	}
	if err := repo.AppendEvaluation("rec-1", eval); err != nil {
		t.Fatalf("AppendEvaluation() error: %v", err)
	}

	record, _ := repo.FindByID("rec-1")
	if len(record.Evaluations) != 1 {
		t.Fatalf("got %d evaluations, want 1", len(record.Evaluations))
	}
	got := record.Evaluations[0]
	if got.ProductID != 3 || got.Rating != funnel.RatingDisliked || got.Feedback != "costura ruim" {
		t.Errorf("evaluation = %+v", got)
	}
	if got.EarnedAmount != 142.37 {
		t.Errorf("earnedAmount = %v", got.EarnedAmount)
	}

	record.TotalEarned = 192.37
	record.FinalBalance = 342.37
	record.Changed = time.Date(2026, 3, 15, 12, 6, 0, 0, time.UTC)
	if err := repo.Update(record); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	reloaded, _ := repo.FindByID("rec-1")
	if reloaded.TotalEarned != 192.37 || reloaded.FinalBalance != 342.37 {
		t.Errorf("updated record = %+v", reloaded)
	}
}

func TestSQLSetWithdrawal(t *testing.T) {
	db, logger := newTestDB(t)
	repo := NewSQLRecordRepository(db, logger)

	repo.Store(testRecord("rec-1"))

	w := &user.Withdrawal{FullName: "Joana Dias", PixKey: "joana@pix.com", WhatsApp: "+5511911112222"}
	if err := repo.SetWithdrawal("rec-1", w, true); err != nil {
		t.Fatalf("SetWithdrawal() error: %v", err)
	}

	record, _ := repo.FindByID("rec-1")
	if record.Withdrawal == nil {
		t.Fatal("withdrawal not persisted")
	}
	if record.Withdrawal.PixKey != "joana@pix.com" || record.Withdrawal.WhatsApp != "+5511911112222" {
		t.Errorf("withdrawal = %+v", record.Withdrawal)
	}
	if !record.AllowFutureContact {
		t.Error("allowFutureContact not persisted")
	}
}

func TestSQLFindAllNewestFirst(t *testing.T) {
	db, logger := newTestDB(t)
	repo := NewSQLRecordRepository(db, logger)

	older := testRecord("rec-old")
	older.CreatedAt = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	newer := testRecord("rec-new")
	newer.CreatedAt = time.Date(2026, 3, 16, 12, 0, 0, 0, time.UTC)

	repo.Store(older)
	repo.Store(newer)

	records, err := repo.FindAll()
	if err != nil {
		t.Fatalf("FindAll() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != "rec-new" || records[1].ID != "rec-old" {
		t.Errorf("order = [%s, %s], want newest first", records[0].ID, records[1].ID)
	}
}

func TestSQLSettings(t *testing.T) {
	db, logger := newTestDB(t)
	if err := database.NewTableCreator().SeedInitialSettings(db.DB); err != nil {
		t.Fatalf("SeedInitialSettings() error: %v", err)
	}
	repo := NewSQLSettingsRepository(db, logger)

	// Seeded keys exist with empty values.
	value, err := repo.Get("pixel_id")
	if err != nil || value != "" {
		t.Fatalf("Get(pixel_id) = %q, %v", value, err)
	}

	if err := repo.Set("pixel_id", "987654"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := repo.Set("pixel_id", "123456"); err != nil {
		t.Fatalf("Set() upsert error: %v", err)
	}

	value, _ = repo.Get("pixel_id")
	if value != "123456" {
		t.Errorf("Get() after upsert = %q, want 123456", value)
	}

	all, err := repo.All()
	if err != nil {
		t.Fatalf("All() error: %v", err)
	}
	if len(all) != 3 || all["pixel_id"] != "123456" {
		t.Errorf("All() = %v", all)
	}

	// Missing keys read as empty without error.
	value, err = repo.Get("missing_key")
	if err != nil || value != "" {
		t.Errorf("Get(missing) = %q, %v", value, err)
	}
}
