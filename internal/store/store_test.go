package store

import (
	"os"
	"path/filepath"
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
		t.Errorf("expected path %q, got %q", dbPath, s.Path())
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"transitions", "settings"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q should exist after migrations: %v", table, err)
		}
	}

	for _, idx := range []string{"idx_transitions_occurred_at", "idx_transitions_reason"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
			idx,
		).Scan(&name)
		if err != nil {
			t.Errorf("index %q should exist after migrations: %v", idx, err)
		}
	}
}

func TestNewStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := s.Settings().Set("k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("migrations should be idempotent: %v", err)
	}
	defer s.Close()

	if v, err := s.Settings().Get("k"); err != nil || v != "v" {
		t.Errorf("expected persisted value, got %q, %v", v, err)
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("close should not return error: %v", err)
	}

	if _, err := s.DB().Exec("SELECT 1"); err == nil {
		t.Error("DB operations should fail after close")
	}
}

func TestSettingsRepository(t *testing.T) {
	repo := newTestStore(t).Settings()

	if _, err := repo.Get("missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if !repo.Bool(SettingMirror, true) {
		t.Error("expected default for missing bool")
	}

	if err := repo.SetBool(SettingTrackingEnabled, false); err != nil {
		t.Fatalf("SetBool: %v", err)
	}
	if repo.Bool(SettingTrackingEnabled, true) {
		t.Error("expected stored false")
	}

	if err := repo.SetBool(SettingTrackingEnabled, true); err != nil {
		t.Fatalf("SetBool overwrite: %v", err)
	}
	if !repo.Bool(SettingTrackingEnabled, false) {
		t.Error("expected overwritten true")
	}

	if err := repo.Set(SettingMirror, "sideways"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if repo.Bool(SettingMirror, true) != true {
		t.Error("expected default for unparsable value")
	}
}
