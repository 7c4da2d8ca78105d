package learning

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

// Labels reported in AdaptedResponse.AdaptationsApplied.
const (
	LabelConcise     = "Concise response format"
	LabelDetailed    = "Detailed response format"
	LabelVisual      = "Visual learning style adaptations"
	LabelInteractive = "Interactive exercises added"
	LabelAnalytical  = "Analytical perspective emphasized"
	LabelSimplified  = "Simplified complexity level"
	LabelAdvanced    = "Advanced complexity level"
)

const (
	conciseMinLength  = 500
	detailedMaxLength = 1000

	practiceSection  = "\n\n## Practice This Concept\nTry working through this example problem to reinforce your understanding:"
	simplifiedHeader = "## Simplified Explanation\n\n"
	advancedSection  = "\n\n## Advanced Insights\nFor a deeper understanding, consider these additional concepts:"
)

// The rewrite patterns stop at the first period (or literal '$') after the
// trigger phrase. They are a low-precision heuristic over English prose.
var (
	exampleClause = regexp.MustCompile(`(?i)(?:For example|For instance)([^.$]*)`)
	summaryClause = regexp.MustCompile(`(?i)(?:In summary|To summarize)([^.$]*)`)
)

const (
	visualRewrite     = "For example, let's visualize this${1} Imagine a diagram where..."
	analyticalRewrite = "Let's analyze why this is important${1} The underlying principles are..."
)

// AdaptedResponse is a model reply after profile-driven rewriting.
type AdaptedResponse struct {
	Content            string   `json:"content"`
	AdaptationsApplied []string `json:"adaptations_applied"`
}

// Adapt rewrites a model reply for the given profile. Length, learning style
// and complexity rules run in that order; each one that fires appends its
// label. The detailed length rule only reports a label and leaves the text
// alone. Verbal learners get no style rewrite.
func Adapt(text string, p Profile) AdaptedResponse {
	out := text
	applied := []string{}

	n := textLength(text)
	switch {
	case p.ResponseLength == LengthConcise && n > conciseMinLength:
		out = strings.ReplaceAll(out, "\n\n", "\n")
		applied = append(applied, LabelConcise)
	case p.ResponseLength == LengthDetailed && n < detailedMaxLength:
		applied = append(applied, LabelDetailed)
	}

	switch p.LearningStyle {
	case StyleVisual:
		out = exampleClause.ReplaceAllString(out, visualRewrite)
		applied = append(applied, LabelVisual)
	case StyleInteractive:
		out += practiceSection
		applied = append(applied, LabelInteractive)
	case StyleAnalytical:
		out = summaryClause.ReplaceAllString(out, analyticalRewrite)
		applied = append(applied, LabelAnalytical)
	}

	switch {
	case p.ComplexityPreference <= 2:
		out = simplifiedHeader + out
		applied = append(applied, LabelSimplified)
	case p.ComplexityPreference >= 4:
		out += advancedSection
		applied = append(applied, LabelAdvanced)
	}

	return AdaptedResponse{Content: out, AdaptationsApplied: applied}
}

// textLength measures text in UTF-16 code units, the unit browser clients
// use when they count characters.
func textLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
