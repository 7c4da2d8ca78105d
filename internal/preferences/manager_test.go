package preferences

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kalambet/tutor/internal/storage"
)

// --- Mock store ---

type mockStore struct {
	mu   sync.Mutex
	data map[string]storage.Preferences

	getCalls int
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]storage.Preferences)}
}

func (m *mockStore) SavePreferences(p storage.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[p.UserID] = p
	return nil
}

func (m *mockStore) GetPreferences(userID string) (storage.Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	p, ok := m.data[userID]
	if !ok {
		return storage.Preferences{}, storage.ErrNotFound
	}
	return p, nil
}

func (m *mockStore) DeletePreferences(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[userID]; !ok {
		return storage.ErrNotFound
	}
	delete(m.data, userID)
	return nil
}

func (m *mockStore) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCalls
}

// --- Mock clock ---

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// --- Tests ---

func TestGet_NotFound(t *testing.T) {
	mgr := NewManager(newMockStore())

	_, err := mgr.Get("u1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSaveAndGet(t *testing.T) {
	store := newMockStore()
	clock := &mockClock{now: time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)}
	mgr := NewManagerWithClock(store, clock, time.Minute)

	saved, err := mgr.Save("u1", Preferences{
		Subjects:        []string{"Mathematics", "Economics"},
		LearningStyle:   StyleKinesthetic,
		DifficultyLevel: DifficultyAdvanced,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !saved.UpdatedAt.Equal(clock.now) {
		t.Errorf("UpdatedAt = %v, want %v", saved.UpdatedAt, clock.now)
	}

	got, err := mgr.Get("u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Subjects) != 2 || got.Subjects[0] != "Mathematics" || got.Subjects[1] != "Economics" {
		t.Errorf("Subjects = %v, want [Mathematics Economics]", got.Subjects)
	}
	if got.LearningStyle != StyleKinesthetic {
		t.Errorf("LearningStyle = %q, want %q", got.LearningStyle, StyleKinesthetic)
	}
	if got.DifficultyLevel != DifficultyAdvanced {
		t.Errorf("DifficultyLevel = %q, want %q", got.DifficultyLevel, DifficultyAdvanced)
	}
}

func TestSave_Validation(t *testing.T) {
	mgr := NewManager(newMockStore())

	tests := []struct {
		name   string
		userID string
		prefs  Preferences
	}{
		{"missing user", "", Preferences{Subjects: []string{"History"}}},
		{"no subjects", "u1", Preferences{}},
		{"empty subjects", "u1", Preferences{Subjects: []string{}}},
		{"unknown subject", "u1", Preferences{Subjects: []string{"cooking"}}},
		{"inference subject is not a listed subject", "u1", Preferences{Subjects: []string{"math"}}},
		{"subject names are case sensitive", "u1", Preferences{Subjects: []string{"mathematics"}}},
		{"unknown style", "u1", Preferences{Subjects: []string{"History"}, LearningStyle: "telepathic"}},
		{"inferred style is not a stated style", "u1", Preferences{Subjects: []string{"History"}, LearningStyle: "analytical"}},
		{"unknown difficulty", "u1", Preferences{Subjects: []string{"History"}, DifficultyLevel: "expert"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mgr.Save(tt.userID, tt.prefs)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestSave_SubjectsOnlyIsValid(t *testing.T) {
	mgr := NewManager(newMockStore())

	if _, err := mgr.Save("u1", Preferences{Subjects: []string{"Computer Science"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := mgr.Get("u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.LearningStyle != "" || got.DifficultyLevel != "" {
		t.Errorf("got %+v, want style and difficulty unset", got)
	}
}

func TestSave_AllListedSubjects(t *testing.T) {
	mgr := NewManager(newMockStore())

	if _, err := mgr.Save("u1", Preferences{Subjects: Subjects}); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestCacheTTL(t *testing.T) {
	store := newMockStore()
	clock := &mockClock{now: time.Now()}
	mgr := NewManagerWithClock(store, clock, 60*time.Second)

	mgr.Save("u1", Preferences{Subjects: []string{"Biology"}, LearningStyle: StyleVisual})

	mgr.Get("u1")
	mgr.Get("u1")

	if calls := store.calls(); calls != 1 {
		t.Errorf("expected 1 store call (cache hit on second), got %d", calls)
	}
}

func TestCacheExpiry(t *testing.T) {
	store := newMockStore()
	clock := &mockClock{now: time.Now()}
	ttl := 60 * time.Second
	mgr := NewManagerWithClock(store, clock, ttl)

	mgr.Save("u1", Preferences{Subjects: []string{"Biology"}, LearningStyle: StyleVisual})
	mgr.Get("u1")

	// Advance past TTL
	clock.Advance(ttl + time.Second)

	mgr.Get("u1")

	if calls := store.calls(); calls != 2 {
		t.Errorf("expected 2 store calls (cache expired), got %d", calls)
	}
}

func TestSaveInvalidatesCache(t *testing.T) {
	store := newMockStore()
	mgr := NewManagerWithClock(store, &mockClock{now: time.Now()}, time.Hour)

	mgr.Save("u1", Preferences{Subjects: []string{"Biology"}, LearningStyle: StyleVisual})
	mgr.Get("u1")
	mgr.Save("u1", Preferences{Subjects: []string{"Biology"}, LearningStyle: StyleReading})

	got, err := mgr.Get("u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.LearningStyle != StyleReading {
		t.Errorf("LearningStyle = %q, want %q", got.LearningStyle, StyleReading)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	mgr := NewManager(newMockStore())
	mgr.Save("u1", Preferences{Subjects: []string{"Physics"}})

	first, _ := mgr.Get("u1")
	first.Subjects[0] = "mutated"

	second, _ := mgr.Get("u1")
	if second.Subjects[0] != "Physics" {
		t.Errorf("cached value was mutated: %v", second.Subjects)
	}
}

func TestDelete(t *testing.T) {
	mgr := NewManager(newMockStore())
	mgr.Save("u1", Preferences{Subjects: []string{"Languages"}})
	mgr.Get("u1")

	if err := mgr.Delete("u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := mgr.Get("u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete: error = %v, want ErrNotFound", err)
	}
	if err := mgr.Delete("u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: error = %v, want ErrNotFound", err)
	}
}

func TestMalformedSubjectsAreSkipped(t *testing.T) {
	store := newMockStore()
	store.data["u1"] = storage.Preferences{UserID: "u1", Subjects: "not json", LearningStyle: StyleAuditory}
	mgr := NewManager(store)

	got, err := mgr.Get("u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Subjects) != 0 {
		t.Errorf("Subjects = %v, want empty", got.Subjects)
	}
	if got.LearningStyle != StyleAuditory {
		t.Errorf("LearningStyle = %q, want %q", got.LearningStyle, StyleAuditory)
	}
}
