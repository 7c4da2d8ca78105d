package learning

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func TestUpdate_AlgebraScenario(t *testing.T) {
	u := NewUpdaterWithClock(fixedClock{now: testNow})

	p := u.Update("Can you explain basic algebra with a simple example?", NewProfile())

	assert.Equal(t, 6, p.SubjectInterests[SubjectMath])
	assert.Equal(t, []Subject{SubjectMath}, p.RecentTopics)
	// verbal (explain) and interactive (example) tie at 1; verbal comes first.
	assert.Equal(t, StyleVerbal, p.LearningStyle)
	assert.Equal(t, 2, p.ComplexityPreference)
	assert.Equal(t, LengthBalanced, p.ResponseLength)
	assert.Equal(t, testNow, p.LastInteractionTime)
}

func TestUpdate_NoKeywordsOnlyStampsTime(t *testing.T) {
	u := NewUpdaterWithClock(fixedClock{now: testNow})
	start := NewProfile()

	p := u.Update("hello there", start)

	assert.Equal(t, testNow, p.LastInteractionTime)
	p.LastInteractionTime = time.Time{}
	assert.Equal(t, start, p)
}

func TestUpdate_EmptyMessage(t *testing.T) {
	u := NewUpdaterWithClock(fixedClock{now: testNow})
	p := u.Update("", NewProfile())

	p.LastInteractionTime = time.Time{}
	assert.Equal(t, NewProfile(), p)
}

func TestUpdate_RepeatedMessageKeepsClimbing(t *testing.T) {
	start := NewProfile()

	once := Update("tell me about the french revolution", start)
	twice := Update("tell me about the french revolution", once)

	assert.Equal(t, 6, once.SubjectInterests[SubjectHistory])
	assert.Equal(t, 7, twice.SubjectInterests[SubjectHistory])
	assert.Equal(t, 5, start.SubjectInterests[SubjectHistory])
}

func TestUpdate_LaterAnalyzersSeeEarlierResults(t *testing.T) {
	// "comprehensive" is both an advanced complexity cue and a detailed
	// length cue; both analyzers fire in the same update.
	p := Update("a comprehensive walkthrough", NewProfile())

	assert.Equal(t, 4, p.ComplexityPreference)
	assert.Equal(t, LengthDetailed, p.ResponseLength)
}

func TestUpdate_InvariantsHoldOverRandomMessages(t *testing.T) {
	messages := []string{
		"simple basic easy",
		"advanced in-depth thorough",
		"algebra physics war poem code",
		"show me why",
		"brief",
		"elaborate in detail",
		"",
		"let's practice an exercise",
	}
	rng := rand.New(rand.NewSource(42))

	p := NewProfile()
	for i := 0; i < 500; i++ {
		p = Update(messages[rng.Intn(len(messages))], p)
		require.NoError(t, p.Validate(), "after update %d", i)
		require.LessOrEqual(t, len(p.RecentTopics), 5)
	}
}

func TestUpdate_ZeroProfileIsNormalized(t *testing.T) {
	u := NewUpdaterWithClock(fixedClock{now: testNow})

	p := u.Update("", Profile{})

	require.NoError(t, p.Validate())
	assert.Len(t, p.SubjectInterests, len(Subjects))
	assert.Equal(t, 3, p.ComplexityPreference)
	assert.Equal(t, LengthBalanced, p.ResponseLength)
	assert.Equal(t, testNow, p.LastInteractionTime)
}
