package tutor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kalambet/tutor/internal/composer"
	"github.com/kalambet/tutor/internal/learning"
	"github.com/kalambet/tutor/internal/proxy"
	"github.com/kalambet/tutor/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return testNow }

type mockCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	calls [][]proxy.Message
}

func (m *mockCompleter) Complete(_ context.Context, msgs []proxy.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, msgs)
	return m.reply, m.err
}

func newTestTutor(c Completer) *Tutor {
	return New(
		session.NewStore(time.Minute),
		composer.New(4000),
		c,
		learning.NewUpdaterWithClock(fixedClock{}),
	)
}

func TestRespond_CompletesAndAdapts(t *testing.T) {
	mc := &mockCompleter{reply: "Plants turn light into sugar."}
	tu := newTestTutor(mc)
	s := tu.Sessions().Create()

	reply, err := tu.Respond(context.Background(), s.ID, "give me something basic on photosynthesis")
	require.NoError(t, err)

	assert.Equal(t, "## Simplified Explanation\n\nPlants turn light into sugar.", reply.Content)
	assert.Equal(t, []string{learning.LabelSimplified}, reply.AdaptationsApplied)
	assert.False(t, reply.Meta)
	assert.False(t, reply.Failed)
	assert.Equal(t, 2, reply.Profile.ComplexityPreference)
	assert.Equal(t, testNow, reply.Profile.LastInteractionTime)

	require.Len(t, mc.calls, 1)
	assert.Equal(t, []proxy.Message{
		{Role: proxy.RoleUser, Content: "give me something basic on photosynthesis"},
	}, mc.calls[0])

	assert.Equal(t, reply.Profile, s.Profile())
}

func TestRespond_RecordsHistory(t *testing.T) {
	mc := &mockCompleter{reply: "Algebra uses symbols."}
	tu := newTestTutor(mc)
	s := tu.Sessions().Create()

	_, err := tu.Respond(context.Background(), s.ID, "what is algebra")
	require.NoError(t, err)
	_, err = tu.Respond(context.Background(), s.ID, "and calculus?")
	require.NoError(t, err)

	h := s.History()
	require.Len(t, h, 5)
	assert.True(t, h[0].Greeting)
	assert.Equal(t, "what is algebra", h[1].Content)
	assert.Equal(t, "Algebra uses symbols.", h[2].Content)
	assert.Equal(t, session.RoleAssistant, h[4].Role)

	require.Len(t, mc.calls, 2)
	assert.Equal(t, []proxy.Message{
		{Role: proxy.RoleUser, Content: "what is algebra"},
		{Role: proxy.RoleAssistant, Content: "Algebra uses symbols."},
		{Role: proxy.RoleUser, Content: "and calculus?"},
	}, mc.calls[1])

	assert.Equal(t, 7, s.Profile().SubjectInterests[learning.SubjectMath])
}

func TestRespond_MetaQuestionSkipsCompletion(t *testing.T) {
	mc := &mockCompleter{reply: "unused"}
	tu := newTestTutor(mc)
	s := tu.Sessions().Create()

	reply, err := tu.Respond(context.Background(), s.ID, "How do you adapt to me?")
	require.NoError(t, err)

	assert.True(t, reply.Meta)
	assert.Empty(t, mc.calls)
	assert.Empty(t, reply.AdaptationsApplied)
	assert.Equal(t, learning.RenderMetaAnswer(reply.Profile), reply.Content)
	assert.Contains(t, reply.Content, "- **Learning Style:** Analytical\n")
}

func TestRespond_CompletionFailureFallsBack(t *testing.T) {
	mc := &mockCompleter{err: errors.New("upstream down")}
	tu := newTestTutor(mc)
	s := tu.Sessions().Create()

	reply, err := tu.Respond(context.Background(), s.ID, "tell me about ancient rome")
	require.NoError(t, err)

	assert.True(t, reply.Failed)
	assert.Equal(t, FallbackReply, reply.Content)
	assert.Empty(t, reply.AdaptationsApplied)
	require.Len(t, mc.calls, 1, "no retry after a failure")

	// The profile update sticks even though the completion failed.
	assert.Equal(t, 6, s.Profile().SubjectInterests[learning.SubjectHistory])

	h := s.History()
	assert.Equal(t, FallbackReply, h[len(h)-1].Content)
}

func TestRespond_UnknownSession(t *testing.T) {
	tu := newTestTutor(&mockCompleter{})
	_, err := tu.Respond(context.Background(), "nope", "hi")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestRespond_BusySession(t *testing.T) {
	mc := &mockCompleter{reply: "ok"}
	tu := newTestTutor(mc)
	s := tu.Sessions().Create()

	require.NoError(t, s.Begin())
	_, err := tu.Respond(context.Background(), s.ID, "hi")
	s.End()

	assert.ErrorIs(t, err, session.ErrBusy)
	assert.Empty(t, mc.calls)
	assert.Len(t, s.History(), 1)
}

func TestRespond_OfflineCompleter(t *testing.T) {
	tu := newTestTutor(proxy.Offline{})
	s := tu.Sessions().Create()

	reply, err := tu.Respond(context.Background(), s.ID, "history please")
	require.NoError(t, err)
	assert.Equal(t, "History is fascinating! Which period or event would you like to learn more about?", reply.Content)
}
