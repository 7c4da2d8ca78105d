package preferences

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kalambet/tutor/internal/storage"
)

// ErrNotFound is returned when no preferences were saved for a user.
var ErrNotFound = storage.ErrNotFound

// Store defines the storage operations the Manager needs.
// Implemented by storage.Store.
type Store interface {
	SavePreferences(p storage.Preferences) error
	GetPreferences(userID string) (storage.Preferences, error)
	DeletePreferences(userID string) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type entry struct {
	prefs    Preferences
	cachedAt time.Time
}

// Manager provides cached, validated access to saved user preferences.
type Manager struct {
	store Store
	clock Clock
	ttl   time.Duration

	mu     sync.RWMutex
	cached map[string]entry
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(store Store) *Manager {
	return NewManagerWithClock(store, realClock{}, 60*time.Second)
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store Store, clock Clock, ttl time.Duration) *Manager {
	return &Manager{
		store:  store,
		clock:  clock,
		ttl:    ttl,
		cached: make(map[string]entry),
	}
}

// Get returns the preferences saved for userID, or ErrNotFound.
func (m *Manager) Get(userID string) (Preferences, error) {
	// Fast path: read lock for cache hit.
	m.mu.RLock()
	if e, ok := m.fresh(userID); ok {
		m.mu.RUnlock()
		return e.prefs.clone(), nil
	}
	m.mu.RUnlock()

	// Slow path: write lock for cache miss.
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock.
	if e, ok := m.fresh(userID); ok {
		return e.prefs.clone(), nil
	}

	rec, err := m.store.GetPreferences(userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Preferences{}, ErrNotFound
		}
		return Preferences{}, fmt.Errorf("loading preferences for %q: %w", userID, err)
	}

	p := fromRecord(rec)
	m.cached[userID] = entry{prefs: p, cachedAt: m.clock.Now()}
	return p.clone(), nil
}

// Save validates and persists preferences for userID, replacing any previous
// record, and returns what was stored.
func (m *Manager) Save(userID string, p Preferences) (Preferences, error) {
	if userID == "" {
		return Preferences{}, fmt.Errorf("%w: user id is required", ErrInvalid)
	}
	if err := p.Validate(); err != nil {
		return Preferences{}, err
	}

	p = p.clone()
	p.UpdatedAt = m.clock.Now().UTC().Truncate(time.Second)

	subjects, err := json.Marshal(p.Subjects)
	if err != nil {
		return Preferences{}, fmt.Errorf("marshalling subjects: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SavePreferences(storage.Preferences{
		UserID:          userID,
		Subjects:        string(subjects),
		LearningStyle:   p.LearningStyle,
		DifficultyLevel: p.DifficultyLevel,
		UpdatedAt:       p.UpdatedAt,
	}); err != nil {
		return Preferences{}, fmt.Errorf("saving preferences for %q: %w", userID, err)
	}

	delete(m.cached, userID)
	return p.clone(), nil
}

// Delete removes saved preferences for userID.
func (m *Manager) Delete(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.cached, userID)
	if err := m.store.DeletePreferences(userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting preferences for %q: %w", userID, err)
	}
	return nil
}

// fresh reports a cache entry that has not outlived the TTL. Callers hold mu.
func (m *Manager) fresh(userID string) (entry, bool) {
	e, ok := m.cached[userID]
	if !ok || !m.clock.Now().Before(e.cachedAt.Add(m.ttl)) {
		return entry{}, false
	}
	return e, true
}

func fromRecord(rec storage.Preferences) Preferences {
	p := Preferences{
		Subjects:        []string{},
		LearningStyle:   rec.LearningStyle,
		DifficultyLevel: rec.DifficultyLevel,
		UpdatedAt:       rec.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(rec.Subjects), &p.Subjects); err != nil {
		slog.Warn("malformed preferences subjects, skipping", "user_id", rec.UserID, "error", err)
		p.Subjects = []string{}
	}
	return p
}
