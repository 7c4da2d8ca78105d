package session

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kalambet/tutor/internal/learning"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrBusy     = errors.New("a turn is already in progress for this session")
)

// Greeting opens every session. It is shown to clients but never sent to the
// completion service.
const Greeting = "👋 Hi there! I'm your adaptive AI tutor. What would you like to learn today?"

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry of the visible conversation.
type Turn struct {
	Role               string    `json:"role"`
	Content            string    `json:"content"`
	AdaptationsApplied []string  `json:"adaptations_applied,omitempty"`
	Greeting           bool      `json:"greeting,omitempty"`
	At                 time.Time `json:"at"`
}

// Session is the state of one learner conversation: the inferred profile and
// the turn history. Turns are serialized with Begin/End.
type Session struct {
	ID        string
	CreatedAt time.Time

	turn sync.Mutex

	mu        sync.RWMutex
	profile   learning.Profile
	history   []Turn
	updatedAt time.Time
}

// View is a point-in-time copy of a session, safe to encode.
type View struct {
	ID        string           `json:"id"`
	Profile   learning.Profile `json:"profile"`
	History   []Turn           `json:"history"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func newSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		profile:   learning.NewProfile(),
		history: []Turn{{
			Role:     RoleAssistant,
			Content:  Greeting,
			Greeting: true,
			At:       now,
		}},
		updatedAt: now,
	}
}

// Begin claims the session for one turn. It returns ErrBusy instead of
// waiting when another turn holds it. Callers must call End when done.
func (s *Session) Begin() error {
	if !s.turn.TryLock() {
		return ErrBusy
	}
	return nil
}

// End releases the claim taken by Begin.
func (s *Session) End() {
	s.turn.Unlock()
}

// Profile returns a copy of the current profile.
func (s *Session) Profile() learning.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Clone()
}

// SetProfile replaces the session profile.
func (s *Session) SetProfile(p learning.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p.Clone()
	s.updatedAt = time.Now()
}

// History returns a copy of the turn history, oldest first.
func (s *Session) History() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTurns(s.history)
}

// Append adds turns to the end of the history.
func (s *Session) Append(turns ...Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range turns {
		t.AdaptationsApplied = slices.Clone(t.AdaptationsApplied)
		s.history = append(s.history, t)
	}
	s.updatedAt = time.Now()
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return View{
		ID:        s.ID,
		Profile:   s.profile.Clone(),
		History:   cloneTurns(s.history),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.updatedAt,
	}
}

func cloneTurns(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	for i, t := range turns {
		t.AdaptationsApplied = slices.Clone(t.AdaptationsApplied)
		out[i] = t
	}
	return out
}
