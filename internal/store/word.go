package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/yubimoji/internal/word"
)

var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a reading is already stored.
	ErrDuplicate = errors.New("reading already exists")
)

// Word is a dictionary entry stored in the database.
type Word struct {
	ID        string    `json:"id"`
	Reading   string    `json:"reading"`
	Word      string    `json:"word"`
	CreatedAt time.Time `json:"created_at"`
}

// WordRepository provides CRUD operations for dictionary words.
type WordRepository struct {
	db *sql.DB
}

// Words returns the word repository for this store.
func (s *Store) Words() *WordRepository {
	return &WordRepository{db: s.db}
}

// Create validates and inserts w. An empty ID is filled with a new UUID.
func (r *WordRepository) Create(w *Word) error {
	entry := word.Entry{Reading: w.Reading, Word: w.Word}
	if err := word.ValidateEntry(entry); err != nil {
		return err
	}
	w.Reading = word.CanonicalReading(w.Reading)
	w.Word = strings.TrimSpace(w.Word)
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	w.CreatedAt = time.Now()

	res, err := r.db.Exec(
		`INSERT INTO words (id, reading, word, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(reading) DO NOTHING`,
		w.ID, w.Reading, w.Word, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert word: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert word: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicate, w.Reading)
	}
	return nil
}

// GetByReading retrieves a word by its reading.
func (r *WordRepository) GetByReading(reading string) (*Word, error) {
	w := &Word{}
	err := r.db.QueryRow(
		`SELECT id, reading, word, created_at FROM words WHERE reading = ?`,
		word.CanonicalReading(reading),
	).Scan(&w.ID, &w.Reading, &w.Word, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

// List retrieves all words ordered by reading.
func (r *WordRepository) List() ([]*Word, error) {
	rows, err := r.db.Query(
		`SELECT id, reading, word, created_at FROM words ORDER BY reading`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var words []*Word
	for rows.Next() {
		w := &Word{}
		if err := rows.Scan(&w.ID, &w.Reading, &w.Word, &w.CreatedAt); err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// Delete removes the word with the given reading.
func (r *WordRepository) Delete(reading string) error {
	result, err := r.db.Exec(`DELETE FROM words WHERE reading = ?`, word.CanonicalReading(reading))
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored words.
func (r *WordRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM words`).Scan(&n)
	return n, err
}

// SeedDefaults inserts the built-in entries whose readings are not stored
// yet and returns how many were added.
func (r *WordRepository) SeedDefaults() (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	added := 0
	now := time.Now()
	for _, e := range word.DefaultEntries() {
		result, err := tx.Exec(
			`INSERT OR IGNORE INTO words (id, reading, word, created_at) VALUES (?, ?, ?, ?)`,
			uuid.New().String(), word.CanonicalReading(e.Reading), e.Word, now,
		)
		if err != nil {
			return 0, fmt.Errorf("seed %s: %w", e.Reading, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}
		added += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

// Dictionary builds an in-memory word.Dictionary from the stored words.
func (r *WordRepository) Dictionary() (*word.Dictionary, error) {
	words, err := r.List()
	if err != nil {
		return nil, err
	}
	entries := make([]word.Entry, 0, len(words))
	for _, w := range words {
		entries = append(entries, word.Entry{Reading: w.Reading, Word: w.Word})
	}
	return word.NewDictionary(entries)
}
