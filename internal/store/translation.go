package store

import (
	"database/sql"
	"errors"
	"time"
)

// Translation is one interpretation kept in the history.
type Translation struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Confidence string    `json:"confidence"`
	Language   string    `json:"language"`
	Reason     string    `json:"reason"`
	Frames     int       `json:"frames"`
	Context    string    `json:"context"`
	LatencyMS  int64     `json:"latency_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// TranslationFilter narrows List. Zero values match everything.
type TranslationFilter struct {
	Language string
	Since    time.Time
	Limit    int
}

// TranslationRepository provides access to the translation history.
type TranslationRepository struct {
	db *sql.DB
}

// Translations returns the translation repository for this store.
func (s *Store) Translations() *TranslationRepository {
	return &TranslationRepository{db: s.db}
}

const translationColumns = `id, text, confidence, language, reason, frames, context, latency_ms, created_at`

// Create inserts a translation. A zero CreatedAt is set to now.
func (r *TranslationRepository) Create(t *Translation) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO translations (`+translationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Text, t.Confidence, t.Language, t.Reason, t.Frames, t.Context, t.LatencyMS, t.CreatedAt,
	)
	return err
}

// GetByID retrieves a translation by its ID.
func (r *TranslationRepository) GetByID(id string) (*Translation, error) {
	t := &Translation{}
	err := r.db.QueryRow(
		`SELECT `+translationColumns+` FROM translations WHERE id = ?`,
		id,
	).Scan(&t.ID, &t.Text, &t.Confidence, &t.Language, &t.Reason, &t.Frames, &t.Context, &t.LatencyMS, &t.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// List returns translations newest first.
func (r *TranslationRepository) List(f TranslationFilter) ([]*Translation, error) {
	query := `SELECT ` + translationColumns + ` FROM translations WHERE 1 = 1`
	var args []any

	if f.Language != "" {
		query += ` AND language = ?`
		args = append(args, f.Language)
	}
	if !f.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, f.Since)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Translation
	for rows.Next() {
		t := &Translation{}
		if err := rows.Scan(&t.ID, &t.Text, &t.Confidence, &t.Language, &t.Reason, &t.Frames, &t.Context, &t.LatencyMS, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// Count returns the number of stored translations.
func (r *TranslationRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM translations`).Scan(&n)
	return n, err
}

// Prune keeps only the newest keep translations and returns how many were
// removed. keep <= 0 removes nothing.
func (r *TranslationRepository) Prune(keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	result, err := r.db.Exec(
		`DELETE FROM translations WHERE rowid NOT IN (
			SELECT rowid FROM translations ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteAll clears the history and returns how many rows were removed.
func (r *TranslationRepository) DeleteAll() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM translations`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
