package storage

import (
	"errors"
	"testing"
	"testing/fstest"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

// TestMigrationsOrdered verifies migrations are applied in ascending numeric order.
func TestMigrationsOrdered(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(versions) < 2 {
		t.Fatalf("expected at least two applied migrations, got %v", versions)
	}

	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Errorf("migrations not in ascending order: %v", versions)
			break
		}
	}
}

func TestIndexesExist(t *testing.T) {
	s := openTestStore(t)

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", "idx_user_preferences_updated").Scan(&count)
	if err != nil {
		t.Fatalf("querying sqlite_master: %v", err)
	}
	if count != 1 {
		t.Errorf("index idx_user_preferences_updated not found in sqlite_master")
	}
}

func TestParseMigrationVersion(t *testing.T) {
	v, err := parseMigrationVersion("002_preferences_updated_index.sql")
	if err != nil {
		t.Fatalf("parseMigrationVersion: %v", err)
	}
	if v != 2 {
		t.Errorf("version = %d, want 2", v)
	}

	for _, bad := range []string{"init.sql", "abc_init.sql", "000_zero.sql"} {
		if _, err := parseMigrationVersion(bad); err == nil {
			t.Errorf("parseMigrationVersion(%q): expected error", bad)
		}
	}
}

func TestLoadMigrations_SortsByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/010_later.sql": {Data: []byte("SELECT 10;")},
		"migrations/2_second.sql":  {Data: []byte("SELECT 2;")},
		"migrations/001_first.sql": {Data: []byte("SELECT 1;")},
		"migrations/notes.txt":     {Data: []byte("ignored")},
	}

	ms, err := loadMigrations(fsys)
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	var got []int
	for _, m := range ms {
		got = append(got, m.version)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 10 {
		t.Errorf("versions = %v, want [1 2 10]", got)
	}
}

func TestLoadMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/001_a.sql": {Data: []byte("SELECT 1;")},
		"migrations/1_b.sql":   {Data: []byte("SELECT 1;")},
	}
	if _, err := loadMigrations(fsys); err == nil {
		t.Fatal("expected error for duplicate migration version")
	}
}

func TestMigrate_FailedMigrationNotRecorded(t *testing.T) {
	s := openTestStore(t)

	fsys := fstest.MapFS{
		"migrations/099_broken.sql": {Data: []byte("CREATE TABLE broken (;")},
	}
	if err := s.migrate(fsys); err == nil {
		t.Fatal("expected error for broken migration")
	}

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	for _, v := range versions {
		if v == 99 {
			t.Error("failed migration recorded in schema_version")
		}
	}
}

// TestPreferencesRoundTrip saves a record and reads it back.
func TestPreferencesRoundTrip(t *testing.T) {
	s := openTestStore(t)
	updated := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	in := Preferences{
		UserID:          "u1",
		Subjects:        `["math","science"]`,
		LearningStyle:   "visual",
		DifficultyLevel: "beginner",
		UpdatedAt:       updated,
	}
	if err := s.SavePreferences(in); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}

	got, err := s.GetPreferences("u1")
	if err != nil {
		t.Fatalf("GetPreferences: %v", err)
	}
	if got.Subjects != in.Subjects {
		t.Errorf("Subjects = %q, want %q", got.Subjects, in.Subjects)
	}
	if got.LearningStyle != "visual" || got.DifficultyLevel != "beginner" {
		t.Errorf("got style=%q difficulty=%q", got.LearningStyle, got.DifficultyLevel)
	}
	if !got.UpdatedAt.Equal(updated) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, updated)
	}
}

// TestPreferencesUpsert verifies a second save replaces the first.
func TestPreferencesUpsert(t *testing.T) {
	s := openTestStore(t)

	if err := s.SavePreferences(Preferences{UserID: "u1", LearningStyle: "visual"}); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}
	if err := s.SavePreferences(Preferences{UserID: "u1", LearningStyle: "auditory", Subjects: `["history"]`}); err != nil {
		t.Fatalf("SavePreferences (overwrite): %v", err)
	}

	got, err := s.GetPreferences("u1")
	if err != nil {
		t.Fatalf("GetPreferences: %v", err)
	}
	if got.LearningStyle != "auditory" {
		t.Errorf("LearningStyle = %q, want %q", got.LearningStyle, "auditory")
	}
	if got.Subjects != `["history"]` {
		t.Errorf("Subjects = %q, want %q", got.Subjects, `["history"]`)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be stamped")
	}
}

func TestPreferencesDefaultSubjects(t *testing.T) {
	s := openTestStore(t)

	if err := s.SavePreferences(Preferences{UserID: "u1"}); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}
	got, err := s.GetPreferences("u1")
	if err != nil {
		t.Fatalf("GetPreferences: %v", err)
	}
	if got.Subjects != "[]" {
		t.Errorf("Subjects = %q, want %q", got.Subjects, "[]")
	}
}

func TestGetPreferencesNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetPreferences("nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDeletePreferences(t *testing.T) {
	s := openTestStore(t)

	if err := s.SavePreferences(Preferences{UserID: "u1"}); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}
	if err := s.DeletePreferences("u1"); err != nil {
		t.Fatalf("DeletePreferences: %v", err)
	}
	if _, err := s.GetPreferences("u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPreferences after delete: error = %v, want ErrNotFound", err)
	}
	if err := s.DeletePreferences("u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeletePreferences: error = %v, want ErrNotFound", err)
	}
}
