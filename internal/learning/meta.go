package learning

import (
	"fmt"
	"strings"
)

var metaPhrases = []string{
	"how does the tutor adapt",
	"how does this tutor adapt",
	"how do you adapt",
	"adaptive learning",
	"personalized learning",
	"personalised learning",
	"how do you personalize",
	"how are you personalizing",
	"what is my learning style",
	"what's my learning style",
	"my learning profile",
}

// interestThreshold is the score a subject must exceed to be listed as an
// interest in the meta answer.
const interestThreshold = 5

// IsMetaQuestion reports whether message asks how the tutor personalizes
// itself. Such questions are answered from the profile without a model call.
func IsMetaQuestion(message string) bool {
	return containsAny(fold(message), metaPhrases)
}

// RenderMetaAnswer describes the current profile as a markdown document.
// The output depends only on p.
func RenderMetaAnswer(p Profile) string {
	var sb strings.Builder

	sb.WriteString("## How I Adapt to You\n\n")
	sb.WriteString("I look at every message you send and adjust my answers to the way you learn. ")
	sb.WriteString("Here is what I have picked up so far:\n\n")

	fmt.Fprintf(&sb, "- **Learning Style:** %s\n", styleName(p.LearningStyle))
	fmt.Fprintf(&sb, "- **Complexity Level:** %s (%d/5)\n", ComplexityTier(p.ComplexityPreference), p.ComplexityPreference)
	fmt.Fprintf(&sb, "- **Response Length:** %s\n", titleCase(string(p.ResponseLength)))

	var interests []string
	for _, s := range Subjects {
		if score := p.SubjectInterests[s]; score > interestThreshold {
			interests = append(interests, fmt.Sprintf("%s (%d/10)", titleCase(string(s)), score))
		}
	}
	if len(interests) == 0 {
		sb.WriteString("- **Subjects of Interest:** None detected yet\n")
	} else {
		fmt.Fprintf(&sb, "- **Subjects of Interest:** %s\n", strings.Join(interests, ", "))
	}

	sb.WriteString("\n### What I Adjust\n\n")
	sb.WriteString("- **Style:** visual learners get examples framed as pictures, interactive learners get practice prompts, analytical learners get summaries that dig into the reasoning.\n")
	sb.WriteString("- **Complexity:** asking for something simple or basic makes my explanations gentler; asking for advanced or in-depth material adds deeper insights.\n")
	sb.WriteString("- **Length:** ask for a brief or quick answer to get compact replies, or ask me to elaborate for more detail.\n")
	sb.WriteString("\nKeep chatting and the profile keeps updating with every message.")

	return sb.String()
}

func styleName(s LearningStyle) string {
	if s == StyleUnset {
		return "Not yet determined"
	}
	return titleCase(string(s))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
