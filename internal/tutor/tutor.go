package tutor

import (
	"context"
	"log/slog"
	"time"

	"github.com/kalambet/tutor/internal/composer"
	"github.com/kalambet/tutor/internal/learning"
	"github.com/kalambet/tutor/internal/metrics"
	"github.com/kalambet/tutor/internal/proxy"
	"github.com/kalambet/tutor/internal/session"
)

// FallbackReply is shown when the completion service fails.
const FallbackReply = "Sorry, I couldn't generate a response. Please try again."

// Completer produces the next assistant message for a conversation.
// Implemented by *proxy.Client and proxy.Offline.
type Completer interface {
	Complete(ctx context.Context, messages []proxy.Message) (string, error)
}

// Reply is the outcome of one user turn.
type Reply struct {
	Content            string           `json:"content"`
	AdaptationsApplied []string         `json:"adaptations_applied"`
	Meta               bool             `json:"meta"`
	Failed             bool             `json:"failed"`
	Profile            learning.Profile `json:"profile"`
}

// Tutor runs conversation turns: it folds each message into the session
// profile, answers meta-questions locally and otherwise asks the completion
// service and adapts its reply.
type Tutor struct {
	sessions  *session.Store
	composer  *composer.Composer
	completer Completer
	updater   *learning.Updater
}

// New creates a Tutor. If updater is nil the wall-clock updater is used.
func New(sessions *session.Store, comp *composer.Composer, completer Completer, updater *learning.Updater) *Tutor {
	if updater == nil {
		updater = learning.NewUpdater()
	}
	return &Tutor{
		sessions:  sessions,
		composer:  comp,
		completer: completer,
		updater:   updater,
	}
}

// Sessions returns the session store the tutor serves.
func (t *Tutor) Sessions() *session.Store { return t.sessions }

// Respond handles one user message in the given session. It returns
// session.ErrNotFound for an unknown session and session.ErrBusy while
// another turn is running. A completion failure is not an error: the reply
// carries FallbackReply with Failed set.
func (t *Tutor) Respond(ctx context.Context, sessionID, message string) (Reply, error) {
	s, err := t.sessions.Get(sessionID)
	if err != nil {
		return Reply{}, err
	}
	if err := s.Begin(); err != nil {
		return Reply{}, err
	}
	defer s.End()

	p := t.updater.Update(message, s.Profile())
	s.SetProfile(p)
	s.Append(session.Turn{Role: session.RoleUser, Content: message, At: time.Now()})

	reply := Reply{AdaptationsApplied: []string{}, Profile: p}

	if learning.IsMetaQuestion(message) {
		reply.Content = learning.RenderMetaAnswer(p)
		reply.Meta = true
		metrics.TurnsTotal.WithLabelValues(metrics.OutcomeMeta).Inc()
	} else {
		t.complete(ctx, s, p, &reply)
	}

	s.Append(session.Turn{
		Role:               session.RoleAssistant,
		Content:            reply.Content,
		AdaptationsApplied: reply.AdaptationsApplied,
		At:                 time.Now(),
	})
	return reply, nil
}

func (t *Tutor) complete(ctx context.Context, s *session.Session, p learning.Profile, reply *Reply) {
	msgs := t.composer.Compose(s.History())

	start := time.Now()
	text, err := t.completer.Complete(ctx, msgs)
	metrics.CompletionDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		slog.Warn("completion failed", "session_id", s.ID, "error", err)
		reply.Content = FallbackReply
		reply.Failed = true
		metrics.TurnsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		return
	}

	adapted := learning.Adapt(text, p)
	reply.Content = adapted.Content
	reply.AdaptationsApplied = adapted.AdaptationsApplied
	metrics.TurnsTotal.WithLabelValues(metrics.OutcomeCompleted).Inc()
	for _, label := range adapted.AdaptationsApplied {
		metrics.AdaptationsTotal.WithLabelValues(label).Inc()
	}
}
