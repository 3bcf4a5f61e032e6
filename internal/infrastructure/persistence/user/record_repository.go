// Package user provides the concrete SQL-based implementations of
// the user domain repositories (Record, Settings).
package user

import (
	"database/sql"
	"time"

	"github.com/pixreview/pixreview-go/internal/domain/funnel"
	"github.com/pixreview/pixreview-go/internal/domain/user"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/persistence/database"
)

// SQLRecordRepository is the SQL-based implementation of the RecordRepository.
type SQLRecordRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLRecordRepository creates a new instance of the repository.
func NewSQLRecordRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLRecordRepository {
	return &SQLRecordRepository{
		db:     db,
		logger: logger,
	}
}

// FindByID retrieves a record by its unique identifier, evaluations included.
func (r *SQLRecordRepository) FindByID(id string) (*user.Record, error) {
	const query = `
		SELECT id, name, total_earned, final_balance, withdrawal_full_name,
		       withdrawal_pix_key, withdrawal_whatsapp, allow_future_contact,
		       created_at, changed
		FROM user_records
		WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading record by ID", "id", id)

	row := r.db.QueryRow(query, id)
	record, err := r.scanRecord(row)
	if err != nil {
		r.logger.Database().Error("Failed to load record by ID", "error", err.Error(), "id", id)
		return nil, err
	}
	if record == nil {
		r.logger.Database().Debug("Record not found by ID", "id", id)
		return nil, nil
	}

	record.Evaluations, err = r.loadEvaluations(id)
	if err != nil {
		r.logger.Database().Error("Failed to load evaluations for record", "error", err.Error(), "id", id)
		return nil, err
	}

	duration := time.Since(start)
	r.logger.Database().Info("Record loaded by ID", "id", id, "evaluations", len(record.Evaluations), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration)
	return record, nil
}

// FindAll retrieves every record ordered newest first, evaluations included.
func (r *SQLRecordRepository) FindAll() ([]*user.Record, error) {
	const query = `
		SELECT id, name, total_earned, final_balance, withdrawal_full_name,
		       withdrawal_pix_key, withdrawal_whatsapp, allow_future_contact,
		       created_at, changed
		FROM user_records
		ORDER BY created_at DESC`

	start := time.Now()
	r.logger.Database().Debug("Loading all records")

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Database().Error("Failed to query records", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	records := make([]*user.Record, 0)
	for rows.Next() {
		record, err := r.scanRecordRows(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, record := range records {
		record.Evaluations, err = r.loadEvaluations(record.ID)
		if err != nil {
			return nil, err
		}
	}

	duration := time.Since(start)
	r.logger.Database().Info("Records loaded", "count", len(records), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration)
	return records, nil
}

// Store saves a new record to the database.
func (r *SQLRecordRepository) Store(record *user.Record) error {
	const query = `
		INSERT INTO user_records (id, name, total_earned, final_balance,
		                          allow_future_contact, created_at, changed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing record insert", "id", record.ID, "name", record.Name)

	_, err := r.db.Exec(
		query,
		record.ID,
		record.Name,
		record.TotalEarned,
		record.FinalBalance,
		record.AllowFutureContact,
		record.CreatedAt.Format(time.RFC3339),
		record.Changed.Format(time.RFC3339),
	)
	if err != nil {
		r.logger.Database().Error("Record insert failed", "error", err.Error(), "id", record.ID)
		return err
	}

	duration := time.Since(start)
	r.logger.Database().Info("Record insert completed", "id", record.ID, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration)
	return nil
}

// Update modifies an existing record's balances and metadata.
func (r *SQLRecordRepository) Update(record *user.Record) error {
	const query = `
		UPDATE user_records
		SET name = ?, total_earned = ?, final_balance = ?,
		    allow_future_contact = ?, changed = ?
		WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing record update", "id", record.ID)

	_, err := r.db.Exec(
		query,
		record.Name,
		record.TotalEarned,
		record.FinalBalance,
		record.AllowFutureContact,
		record.Changed.Format(time.RFC3339),
		record.ID,
	)
	if err != nil {
		r.logger.Database().Error("Record update failed", "error", err.Error(), "id", record.ID)
		return err
	}

	duration := time.Since(start)
	r.logger.Database().Info("Record update completed", "id", record.ID, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration)
	return nil
}

// AppendEvaluation inserts one evaluation row for a record.
func (r *SQLRecordRepository) AppendEvaluation(recordID string, eval *funnel.Evaluation) error {
	const query = `
		INSERT INTO evaluations (id, record_id, product_id, product_name,
		                         rating, feedback, earned_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing evaluation insert", "recordId", recordID, "productId", eval.ProductID)

	_, err := r.db.Exec(
		query,
		eval.ID,
		recordID,
		eval.ProductID,
		eval.ProductName,
		string(eval.Rating),
		eval.Feedback,
		eval.EarnedAmount,
		eval.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		r.logger.Database().Error("Evaluation insert failed", "error", err.Error(), "recordId", recordID)
		return err
	}

	duration := time.Since(start)
	r.logger.Database().Info("Evaluation insert completed", "recordId", recordID, "rating", string(eval.Rating), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration)
	return nil
}

// SetWithdrawal stores the payout details for a record.
func (r *SQLRecordRepository) SetWithdrawal(recordID string, w *user.Withdrawal, allowContact bool) error {
	const query = `
		UPDATE user_records
		SET withdrawal_full_name = ?, withdrawal_pix_key = ?,
		    withdrawal_whatsapp = ?, allow_future_contact = ?, changed = ?
		WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing withdrawal update", "recordId", recordID)

	_, err := r.db.Exec(
		query,
		w.FullName,
		w.PixKey,
		w.WhatsApp,
		allowContact,
		time.Now().UTC().Format(time.RFC3339),
		recordID,
	)
	if err != nil {
		r.logger.Database().Error("Withdrawal update failed", "error", err.Error(), "recordId", recordID)
		return err
	}

	duration := time.Since(start)
	r.logger.Database().Info("Withdrawal update completed", "recordId", recordID, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration)
	return nil
}

// loadEvaluations fetches a record's evaluations ordered oldest first.
func (r *SQLRecordRepository) loadEvaluations(recordID string) ([]funnel.Evaluation, error) {
	const query = `
		SELECT id, record_id, product_id, product_name, rating,
		       feedback, earned_amount, created_at
		FROM evaluations
		WHERE record_id = ?
		ORDER BY created_at ASC`

	start := time.Now()
	rows, err := r.db.Query(query, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	evals := make([]funnel.Evaluation, 0)
	for rows.Next() {
		var eval funnel.Evaluation
		var rating string
		var feedback sql.NullString
		var createdAtStr string

		err := rows.Scan(
			&eval.ID,
			&eval.RecordID,
			&eval.ProductID,
			&eval.ProductName,
			&rating,
			&feedback,
			&eval.EarnedAmount,
			&createdAtStr,
		)
		if err != nil {
			return nil, err
		}

		eval.Rating = funnel.Rating(rating)
		if feedback.Valid {
			eval.Feedback = feedback.String
		}
		eval.CreatedAt, err = parseTimestamp(createdAtStr)
		if err != nil {
			return nil, err
		}
		evals = append(evals, eval)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return evals, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord is a helper function to scan a sql.Row into a Record struct.
func (r *SQLRecordRepository) scanRecord(row *sql.Row) (*user.Record, error) {
	record, err := scanRecordFields(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return record, err
}

func (r *SQLRecordRepository) scanRecordRows(rows *sql.Rows) (*user.Record, error) {
	return scanRecordFields(rows)
}

func scanRecordFields(scanner rowScanner) (*user.Record, error) {
	var record user.Record
	var fullName, pixKey, whatsapp sql.NullString
	var createdAtStr string
	var changedStr sql.NullString

	err := scanner.Scan(
		&record.ID,
		&record.Name,
		&record.TotalEarned,
		&record.FinalBalance,
		&fullName,
		&pixKey,
		&whatsapp,
		&record.AllowFutureContact,
		&createdAtStr,
		&changedStr,
	)
	if err != nil {
		return nil, err
	}

	if fullName.Valid && fullName.String != "" {
		record.Withdrawal = &user.Withdrawal{
			FullName: fullName.String,
			PixKey:   pixKey.String,
			WhatsApp: whatsapp.String,
		}
	}

	record.CreatedAt, err = parseTimestamp(createdAtStr)
	if err != nil {
		return nil, err
	}
	if changedStr.Valid {
		record.Changed, err = parseTimestamp(changedStr.String)
		if err != nil {
			return nil, err
		}
	}

	return &record, nil
}

// parseTimestamp accepts both formats SQLite may hand back.
func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
