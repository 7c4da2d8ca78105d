package session

import (
	"log/slog"
	"time"

	"github.com/kalambet/tutor/internal/metrics"
	"github.com/patrickmn/go-cache"
)

// DefaultTTL is how long an idle session survives.
const DefaultTTL = 30 * time.Minute

// Store keeps live sessions in memory. A session expires after ttl without
// being read; expired sessions are swept by a background janitor.
type Store struct {
	items *cache.Cache
	ttl   time.Duration
}

// NewStore creates a Store with the given idle TTL. If ttl <= 0, DefaultTTL is used.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	items := cache.New(ttl, ttl/2)
	items.OnEvicted(func(id string, _ interface{}) {
		metrics.ActiveSessions.Dec()
		slog.Debug("session closed", "session_id", id)
	})
	return &Store{items: items, ttl: ttl}
}

// TTL returns the idle expiry applied to sessions.
func (st *Store) TTL() time.Duration { return st.ttl }

// Create starts a new session seeded with the default profile and greeting.
func (st *Store) Create() *Session {
	s := newSession(time.Now())
	st.items.Set(s.ID, s, cache.DefaultExpiration)
	metrics.ActiveSessions.Inc()
	return s
}

// Get returns the session and pushes back its expiry.
func (st *Store) Get(id string) (*Session, error) {
	v, ok := st.items.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	// Replace only succeeds while the entry is still live, so a concurrent
	// Delete is not undone here.
	if err := st.items.Replace(id, v, cache.DefaultExpiration); err != nil {
		return nil, ErrNotFound
	}
	return v.(*Session), nil
}

// Delete ends a session. Deleting an unknown id returns ErrNotFound.
func (st *Store) Delete(id string) error {
	if _, ok := st.items.Get(id); !ok {
		return ErrNotFound
	}
	st.items.Delete(id)
	return nil
}

// Count returns the number of live sessions.
func (st *Store) Count() int {
	return len(st.items.Items())
}
