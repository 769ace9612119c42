package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatal("database file should not exist before creating store")
	}

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	var name string
	err := s.DB().QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
		"words",
	).Scan(&name)
	if err != nil {
		t.Fatalf("words table not created: %v", err)
	}

	var version int
	if err := s.DB().QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("read user_version: %v", err)
	}
	if version != SchemaVersion() {
		t.Errorf("user_version = %d, want %d", version, SchemaVersion())
	}
}

func TestNewStore_RejectsNewerSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if _, err := s.DB().Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion()+1)); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	s.Close()

	if _, err := New(dbPath); err == nil {
		t.Fatal("expected error opening a newer schema")
	}
}

func TestStore_CloseNil(t *testing.T) {
	var s *Store
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil store = %v", err)
	}
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := s.Words().Create(&Word{Reading: "さき", Word: "先"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer s.Close()

	if _, err := s.Words().GetByReading("さき"); err != nil {
		t.Errorf("GetByReading() after reopen error = %v", err)
	}
}

func TestWordRepository_CreateAndGet(t *testing.T) {
	repo := newTestStore(t).Words()

	w := &Word{Reading: " かき ", Word: "柿"}
	if err := repo.Create(w); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if w.ID == "" {
		t.Error("Create() should assign an ID")
	}
	if w.Reading != "かき" {
		t.Errorf("Reading = %q, want trimmed かき", w.Reading)
	}

	got, err := repo.GetByReading("かき")
	if err != nil {
		t.Fatalf("GetByReading() error = %v", err)
	}
	if got.ID != w.ID || got.Word != "柿" {
		t.Errorf("GetByReading() = %+v, want %+v", got, w)
	}
}

func TestWordRepository_CreateRejectsInvalid(t *testing.T) {
	repo := newTestStore(t).Words()

	tests := []struct {
		name string
		w    Word
	}{
		{"short reading", Word{Reading: "さ", Word: "x"}},
		{"long reading", Word{Reading: "さくら", Word: "桜"}},
		{"missing word", Word{Reading: "さき", Word: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tt.w
			if err := repo.Create(&w); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestWordRepository_CreateDuplicate(t *testing.T) {
	repo := newTestStore(t).Words()

	if err := repo.Create(&Word{Reading: "さき", Word: "先"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	err := repo.Create(&Word{Reading: "さき", Word: "崎"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("Create() duplicate error = %v, want ErrDuplicate", err)
	}
}

func TestWordRepository_GetNotFound(t *testing.T) {
	repo := newTestStore(t).Words()

	if _, err := repo.GetByReading("ない"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByReading() error = %v, want ErrNotFound", err)
	}
}

func TestWordRepository_ListAndDelete(t *testing.T) {
	repo := newTestStore(t).Words()

	for _, w := range []*Word{{Reading: "さけ", Word: "酒"}, {Reading: "あさ", Word: "朝"}} {
		if err := repo.Create(w); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	words, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(words) != 2 || words[0].Reading != "あさ" {
		t.Fatalf("List() = %v, want 2 words ordered by reading", words)
	}

	if err := repo.Delete("あさ"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete("あさ"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
	if n, _ := repo.Count(); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestWordRepository_SeedDefaults(t *testing.T) {
	repo := newTestStore(t).Words()

	if err := repo.Create(&Word{Reading: "さき", Word: "崎"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	added, err := repo.SeedDefaults()
	if err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}
	if added != 7 {
		t.Errorf("SeedDefaults() added %d, want 7", added)
	}

	// existing readings keep their stored word
	got, _ := repo.GetByReading("さき")
	if got.Word != "崎" {
		t.Errorf("さき = %q, want 崎", got.Word)
	}

	added, err = repo.SeedDefaults()
	if err != nil {
		t.Fatalf("second SeedDefaults() error = %v", err)
	}
	if added != 0 {
		t.Errorf("second SeedDefaults() added %d, want 0", added)
	}
}

func TestWordRepository_Dictionary(t *testing.T) {
	repo := newTestStore(t).Words()
	if _, err := repo.SeedDefaults(); err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}

	dict, err := repo.Dictionary()
	if err != nil {
		t.Fatalf("Dictionary() error = %v", err)
	}
	if dict.Len() != 8 {
		t.Errorf("Len() = %d, want 8", dict.Len())
	}
	if w, ok := dict.Lookup("くせ"); !ok || w != "癖" {
		t.Errorf("Lookup(くせ) = %q, %v", w, ok)
	}
}

func TestWordRepository_ConcurrentCreateSameReading(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	// Two handles on one file behave like two processes.
	stores := make([]*Store, 2)
	for i := range stores {
		s, err := New(dbPath)
		if err != nil {
			t.Fatalf("failed to open store %d: %v", i, err)
		}
		t.Cleanup(func() { s.Close() })
		stores[i] = s
	}

	const writers = 8
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = stores[i%2].Words().Create(&Word{Reading: "さき", Word: "先"})
		}()
	}
	wg.Wait()

	created := 0
	for i, err := range errs {
		switch {
		case err == nil:
			created++
		case !errors.Is(err, ErrDuplicate):
			t.Errorf("writer %d: error = %v, want ErrDuplicate", i, err)
		}
	}
	if created != 1 {
		t.Errorf("%d writers created the word, want 1", created)
	}
}
