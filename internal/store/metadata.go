package store

import (
	"database/sql"
)

// SetMetadata upserts a key-value pair in the app_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO app_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM app_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Instance describes how the server was last started. It is written on
// startup and copied into archive exports.
type Instance struct {
	Language string
	Provider string
	Model    string
}

// SetInstance stores the instance fields as metadata rows.
func (s *Store) SetInstance(info Instance) error {
	pairs := []struct{ k, v string }{
		{"language", info.Language},
		{"llm_provider", info.Provider},
		{"llm_model", info.Model},
	}
	for _, p := range pairs {
		if err := s.SetMetadata(p.k, p.v); err != nil {
			return err
		}
	}
	return nil
}

// GetInstance reads the instance fields from metadata.
func (s *Store) GetInstance() (Instance, error) {
	var info Instance
	var err error
	if info.Language, err = s.GetMetadata("language"); err != nil {
		return info, err
	}
	if info.Provider, err = s.GetMetadata("llm_provider"); err != nil {
		return info, err
	}
	info.Model, err = s.GetMetadata("llm_model")
	return info, err
}
