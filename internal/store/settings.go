package store

import (
	"database/sql"
	"strconv"

	"github.com/pkg/errors"
)

// Setting keys
const (
	SettingTrackingEnabled = "tracking_enabled"
	SettingMirror          = "mirror"
)

// SettingsRepository stores application settings as key-value pairs.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value stored under key, or ErrNotFound.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", errors.Wrapf(err, "get setting %s", key)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return errors.Wrapf(err, "set setting %s", key)
}

// Bool returns the boolean stored under key, or def when it is missing or
// unparsable.
func (r *SettingsRepository) Bool(key string, def bool) bool {
	value, err := r.Get(key)
	if err != nil {
		return def
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return b
}

// SetBool stores a boolean under key.
func (r *SettingsRepository) SetBool(key string, value bool) error {
	return r.Set(key, strconv.FormatBool(value))
}
