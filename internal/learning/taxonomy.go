package learning

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Subject is one of the fixed subject-interest categories.
type Subject string

const (
	SubjectMath       Subject = "math"
	SubjectScience    Subject = "science"
	SubjectHistory    Subject = "history"
	SubjectLiterature Subject = "literature"
	SubjectTechnology Subject = "technology"
)

// Subjects lists every subject in taxonomy enumeration order. Detection and
// recent-topic ordering follow this order.
var Subjects = []Subject{
	SubjectMath,
	SubjectScience,
	SubjectHistory,
	SubjectLiterature,
	SubjectTechnology,
}

// LearningStyle is the detected way a learner prefers material presented.
// The zero value means no style has been detected yet.
type LearningStyle string

const (
	StyleUnset       LearningStyle = ""
	StyleVisual      LearningStyle = "visual"
	StyleVerbal      LearningStyle = "verbal"
	StyleInteractive LearningStyle = "interactive"
	StyleAnalytical  LearningStyle = "analytical"
)

// LearningStyles lists every style in enumeration order; ties resolve to the
// earliest entry.
var LearningStyles = []LearningStyle{
	StyleVisual,
	StyleVerbal,
	StyleInteractive,
	StyleAnalytical,
}

// ResponseLength is the preferred size of model replies.
type ResponseLength string

const (
	LengthConcise  ResponseLength = "concise"
	LengthDetailed ResponseLength = "detailed"
	LengthBalanced ResponseLength = "balanced"
)

var subjectKeywords = map[Subject][]string{
	SubjectMath:       {"math", "algebra", "calculus", "equation", "geometry", "statistics", "probability"},
	SubjectScience:    {"science", "physics", "chemistry", "biology", "scientific", "molecule", "atom"},
	SubjectHistory:    {"history", "historical", "century", "ancient", "civilization", "war", "revolution"},
	SubjectLiterature: {"literature", "book", "novel", "author", "poem", "character", "shakespeare"},
	SubjectTechnology: {"technology", "computer", "programming", "code", "software", "hardware", "algorithm"},
}

var styleKeywords = map[LearningStyle][]string{
	StyleVisual:      {"see", "look", "view", "show", "image", "picture", "diagram", "visualize"},
	StyleVerbal:      {"explain", "tell", "describe", "define", "summarize", "words", "text"},
	StyleInteractive: {"try", "practice", "example", "exercise", "interact", "activity", "hands-on"},
	StyleAnalytical:  {"why", "how", "analyze", "examine", "investigate", "reason", "logic"},
}

var (
	simplicityCues = []string{"simple", "basic", "beginner", "easy", "fundamental", "elementary"}
	advancedCues   = []string{"advanced", "complex", "detailed", "in-depth", "thorough", "comprehensive"}

	conciseCues  = []string{"brief", "short", "quick", "summarize"}
	detailedCues = []string{"detail", "explain fully", "elaborate", "comprehensive"}
)

// SubjectKeywords returns a copy of the trigger substrings for s.
func SubjectKeywords(s Subject) []string {
	return append([]string(nil), subjectKeywords[s]...)
}

// StyleKeywords returns a copy of the trigger substrings for style.
func StyleKeywords(style LearningStyle) []string {
	return append([]string(nil), styleKeywords[style]...)
}

// IsSubject reports whether name is one of the fixed subjects.
func IsSubject(name string) bool {
	_, ok := subjectKeywords[Subject(name)]
	return ok
}

func (s LearningStyle) valid() bool {
	if s == StyleUnset {
		return true
	}
	_, ok := styleKeywords[s]
	return ok
}

func (l ResponseLength) valid() bool {
	switch l {
	case LengthConcise, LengthDetailed, LengthBalanced:
		return true
	}
	return false
}

// fold lower-cases text for keyword matching. A Caser is not safe for
// concurrent use, so one is built per call.
func fold(text string) string {
	return cases.Lower(language.Und).String(text)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// countMatches counts how many distinct keywords occur in text. Repeated
// occurrences of the same keyword count once.
func countMatches(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

func matchedSubjects(folded string) []Subject {
	var out []Subject
	for _, s := range Subjects {
		if containsAny(folded, subjectKeywords[s]) {
			out = append(out, s)
		}
	}
	return out
}
