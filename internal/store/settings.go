package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/nebula/internal/config"
)

// TuningKey is the settings key holding the persisted tunables.
const TuningKey = "tuning"

// SettingsRepository stores key-value settings.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value stored under key.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	return err
}

// Delete removes key.
func (r *SettingsRepository) Delete(key string) error {
	result, err := r.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// LoadTuning returns the persisted tunables, or ErrNotFound when none were
// saved.
func (r *SettingsRepository) LoadTuning() (config.Config, error) {
	raw, err := r.Get(TuningKey)
	if err != nil {
		return config.Default(), err
	}
	c, err := config.DecodeTuning([]byte(raw))
	if err != nil {
		return config.Default(), fmt.Errorf("stored tuning: %w", err)
	}
	return c, nil
}

// SaveTuning persists c.
func (r *SettingsRepository) SaveTuning(c config.Config) error {
	data, err := config.EncodeTuning(c)
	if err != nil {
		return err
	}
	return r.Set(TuningKey, string(data))
}
