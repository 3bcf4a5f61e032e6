package user

import (
	"database/sql"
	"time"

	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/persistence/database"
)

// SQLSettingsRepository is the SQL-based implementation of the SettingsRepository.
type SQLSettingsRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLSettingsRepository creates a new instance of the repository.
func NewSQLSettingsRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLSettingsRepository {
	return &SQLSettingsRepository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves a single setting value. Missing keys return an empty string.
func (r *SQLSettingsRepository) Get(key string) (string, error) {
	const query = `SELECT value FROM settings WHERE key = ?`

	start := time.Now()
	var value string
	err := r.db.QueryRow(query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		r.logger.Database().Error("Failed to load setting", "error", err.Error(), "key", key)
		return "", err
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return value, nil
}

// Set stores a setting value, inserting or replacing as needed.
func (r *SQLSettingsRepository) Set(key, value string) error {
	const query = `INSERT INTO settings (key, value) VALUES (?, ?)
	               ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	start := time.Now()
	r.logger.Database().Debug("Executing setting upsert", "key", key)

	_, err := r.db.Exec(query, key, value)
	if err != nil {
		r.logger.Database().Error("Setting upsert failed", "error", err.Error(), "key", key)
		return err
	}

	duration := time.Since(start)
	r.logger.Database().Info("Setting upsert completed", "key", key, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration)
	return nil
}

// All retrieves every setting as a key/value map.
func (r *SQLSettingsRepository) All() (map[string]string, error) {
	const query = `SELECT key, value FROM settings`

	start := time.Now()
	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Database().Error("Failed to query settings", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return settings, nil
}
