package learning

// AnalyzeSubjectInterests bumps the score of every subject whose keywords occur
// in message (capped at 10) and prepends the matched subjects, in taxonomy
// order, to RecentTopics. The list is cut to five entries but not
// de-duplicated, so a subject can appear more than once.
func AnalyzeSubjectInterests(message string, p Profile) Profile {
	out := p.Clone()
	folded := fold(message)

	matched := matchedSubjects(folded)
	if len(matched) == 0 {
		return out
	}

	for _, s := range matched {
		score, ok := out.SubjectInterests[s]
		if !ok {
			score = neutralInterest
		}
		out.SubjectInterests[s] = min(score+1, maxInterest)
	}

	topics := make([]Subject, 0, len(matched)+len(out.RecentTopics))
	topics = append(topics, matched...)
	topics = append(topics, out.RecentTopics...)
	if len(topics) > maxRecentTopics {
		topics = topics[:maxRecentTopics]
	}
	out.RecentTopics = topics
	return out
}

// AnalyzeLearningStyle tallies distinct style keywords in message and moves
// the profile to the style with the highest tally. On a tie the current style
// is kept when it is one of the leaders; otherwise the earliest leader in
// LearningStyles wins. A message with no style keywords changes nothing.
func AnalyzeLearningStyle(message string, p Profile) Profile {
	out := p.Clone()
	folded := fold(message)

	tallies := make([]int, len(LearningStyles))
	best := 0
	for i, style := range LearningStyles {
		tallies[i] = countMatches(folded, styleKeywords[style])
		best = max(best, tallies[i])
	}
	if best == 0 {
		return out
	}

	var leaders []LearningStyle
	for i, style := range LearningStyles {
		if tallies[i] == best {
			leaders = append(leaders, style)
		}
	}

	if len(leaders) > 1 && out.LearningStyle != StyleUnset && includesStyle(leaders, out.LearningStyle) {
		return out
	}
	out.LearningStyle = leaders[0]
	return out
}

func includesStyle(styles []LearningStyle, s LearningStyle) bool {
	for _, v := range styles {
		if v == s {
			return true
		}
	}
	return false
}

// AnalyzeComplexityPreference lowers the preference on a simplicity cue and
// raises it on an advanced cue. Both checks run, so a message carrying both
// kinds of cue nets out unless a bound clamps one of the steps.
func AnalyzeComplexityPreference(message string, p Profile) Profile {
	out := p.Clone()
	folded := fold(message)

	if containsAny(folded, simplicityCues) {
		out.ComplexityPreference = max(out.ComplexityPreference-1, minComplexity)
	}
	if containsAny(folded, advancedCues) {
		out.ComplexityPreference = min(out.ComplexityPreference+1, maxComplexity)
	}
	return out
}

// AnalyzeResponseLength overwrites the length preference with the latest
// signal. Concise cues take priority over detailed cues in the same message.
func AnalyzeResponseLength(message string, p Profile) Profile {
	out := p.Clone()
	folded := fold(message)

	switch {
	case containsAny(folded, conciseCues):
		out.ResponseLength = LengthConcise
	case containsAny(folded, detailedCues):
		out.ResponseLength = LengthDetailed
	}
	return out
}
