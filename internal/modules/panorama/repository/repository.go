package repository

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed sql/get-preference.sql
var getPreferenceSQL string

//go:embed sql/upsert-preference.sql
var upsertPreferenceSQL string

// ErrNotFound is returned by GetPreference when the key has no value.
var ErrNotFound = errors.New("preference not found")

// PreferenceRepository is a string key/value store for dashboard preferences.
type PreferenceRepository interface {
	GetPreference(key string) (string, error)
	PutPreference(key string, value string) error
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) PreferenceRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) GetPreference(key string) (string, error) {
	var value string
	err := r.db.QueryRow(getPreferenceSQL, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get preference %q: %w", key, err)
	}
	return value, nil
}

func (r *repositoryImpl) PutPreference(key string, value string) error {
	if _, err := r.db.Exec(upsertPreferenceSQL, key, value); err != nil {
		return fmt.Errorf("put preference %q: %w", key, err)
	}
	return nil
}
