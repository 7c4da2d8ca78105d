package composer

import (
	"github.com/kalambet/tutor/internal/proxy"
	"github.com/kalambet/tutor/internal/session"
)

const defaultMaxContextTokens = 4000

// Composer turns a session history into the message list sent to the
// completion service.
type Composer struct {
	MaxContextTokens int
}

// New creates a Composer with the given token budget for the conversation.
// If maxContextTokens <= 0, the default (4000) is used.
func New(maxContextTokens int) *Composer {
	if maxContextTokens <= 0 {
		maxContextTokens = defaultMaxContextTokens
	}
	return &Composer{MaxContextTokens: maxContextTokens}
}

// Compose maps history turns to completion messages, oldest first. Greeting
// turns are skipped. When the conversation exceeds the budget the oldest
// turns are dropped; the latest turn is always kept even if it alone is over
// budget.
func (c *Composer) Compose(history []session.Turn) []proxy.Message {
	msgs := make([]proxy.Message, 0, len(history))
	for _, t := range history {
		if t.Greeting {
			continue
		}
		msgs = append(msgs, proxy.Message{Role: role(t.Role), Content: t.Content})
	}
	if len(msgs) == 0 {
		return msgs
	}

	// Walk backwards accumulating turns until the next one would not fit.
	remaining := c.MaxContextTokens
	start := len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		tokens := EstimateTokens(msgs[i].Content)
		if tokens > remaining && start < len(msgs) {
			break
		}
		remaining -= tokens
		start = i
	}
	return msgs[start:]
}

func role(r string) string {
	if r == session.RoleUser {
		return proxy.RoleUser
	}
	return proxy.RoleAssistant
}

// EstimateTokens provides a rough token count using 4 chars per token heuristic.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
