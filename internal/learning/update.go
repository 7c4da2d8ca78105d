package learning

import "time"

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Analyzer maps a message and a profile to an updated profile along one axis.
type Analyzer func(message string, p Profile) Profile

// analyzers run in this order, each seeing the previous one's output.
var analyzers = []Analyzer{
	AnalyzeSubjectInterests,
	AnalyzeLearningStyle,
	AnalyzeComplexityPreference,
	AnalyzeResponseLength,
}

// Updater folds a user message into a profile.
type Updater struct {
	clock Clock
}

// NewUpdater creates an Updater using the wall clock.
func NewUpdater() *Updater {
	return &Updater{clock: realClock{}}
}

// NewUpdaterWithClock creates an Updater with a custom clock (for testing).
func NewUpdaterWithClock(clock Clock) *Updater {
	return &Updater{clock: clock}
}

// Update runs the subject, style, complexity and length analyzers in that
// order and stamps LastInteractionTime. It never fails. The input is
// normalized first, so a zero Profile is treated as a fresh one.
func (u *Updater) Update(message string, p Profile) Profile {
	out := p.Normalize()
	for _, analyze := range analyzers {
		out = analyze(message, out)
	}
	out.LastInteractionTime = u.clock.Now()
	return out
}

var defaultUpdater = NewUpdater()

// Update is Updater.Update with the wall clock.
func Update(message string, p Profile) Profile {
	return defaultUpdater.Update(message, p)
}
