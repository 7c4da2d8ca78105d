package proxy

import (
	"context"
	"strings"
)

// Offline answers from a handful of canned replies. It stands in for the
// completion API when no API key is configured so the tutor stays usable in
// development.
type Offline struct{}

// Complete picks a canned reply based on the latest user message.
func (Offline) Complete(ctx context.Context, messages []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var last string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			last = strings.ToLower(messages[i].Content)
			break
		}
	}

	switch {
	case strings.Contains(last, "math"):
		return "I'd be happy to help with math! Here's an example of a properly formatted equation: $E = mc^2$. For more complex equations, we can use display math: $$\\int_{a}^{b} f(x)dx$$", nil
	case strings.Contains(last, "history"):
		return "History is fascinating! Which period or event would you like to learn more about?", nil
	case strings.Contains(last, "science"):
		return "Science covers many fields! Are you interested in biology, chemistry, physics, astronomy, or something else?", nil
	case strings.Contains(last, "hello") || strings.Contains(last, "hi"):
		return "Hello! I'm your adaptive AI tutor. What subject would you like to explore today?", nil
	}
	return "I don't have enough information to help with that yet.", nil
}

// OfflineModel is the model id reported by Offline.
const OfflineModel = "offline"

// ListModels reports the single built-in offline model.
func (Offline) ListModels(ctx context.Context) ([]Model, error) {
	return []Model{{ID: OfflineModel, Object: "model", OwnedBy: "tutor"}}, nil
}
