package composer

import (
	"strings"
	"testing"

	"github.com/kalambet/tutor/internal/proxy"
	"github.com/kalambet/tutor/internal/session"
)

func greeting() session.Turn {
	return session.Turn{Role: session.RoleAssistant, Content: session.Greeting, Greeting: true}
}

func user(s string) session.Turn {
	return session.Turn{Role: session.RoleUser, Content: s}
}

func assistant(s string) session.Turn {
	return session.Turn{Role: session.RoleAssistant, Content: s}
}

func TestCompose_SkipsGreeting(t *testing.T) {
	c := New(4000)
	msgs := c.Compose([]session.Turn{greeting(), user("hello")})

	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Role != proxy.RoleUser {
		t.Errorf("role = %q, want %q", msgs[0].Role, proxy.RoleUser)
	}
	if msgs[0].Content != "hello" {
		t.Errorf("content = %q, want %q", msgs[0].Content, "hello")
	}
}

func TestCompose_PreservesOrderAndRoles(t *testing.T) {
	c := New(4000)
	msgs := c.Compose([]session.Turn{
		greeting(),
		user("what is an atom?"),
		assistant("a unit of matter"),
		user("and a molecule?"),
	})

	want := []proxy.Message{
		{Role: proxy.RoleUser, Content: "what is an atom?"},
		{Role: proxy.RoleAssistant, Content: "a unit of matter"},
		{Role: proxy.RoleUser, Content: "and a molecule?"},
	}
	if len(msgs) != len(want) {
		t.Fatalf("got %d messages, want %d", len(msgs), len(want))
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Errorf("msgs[%d] = %+v, want %+v", i, msgs[i], want[i])
		}
	}
}

func TestCompose_DropsOldestOverBudget(t *testing.T) {
	c := New(10)
	// Each turn is 16 chars = 4 tokens, so only two fit in 10.
	msgs := c.Compose([]session.Turn{
		user("aaaaaaaaaaaaaaaa"),
		assistant("bbbbbbbbbbbbbbbb"),
		user("cccccccccccccccc"),
	})

	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if !strings.HasPrefix(msgs[0].Content, "b") || !strings.HasPrefix(msgs[1].Content, "c") {
		t.Errorf("kept wrong turns: %+v", msgs)
	}
}

func TestCompose_KeepsLatestEvenIfOversized(t *testing.T) {
	c := New(2)
	msgs := c.Compose([]session.Turn{
		user("short"),
		user(strings.Repeat("x", 100)),
	})

	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if len(msgs[0].Content) != 100 {
		t.Errorf("latest turn not kept intact")
	}
}

func TestCompose_Empty(t *testing.T) {
	c := New(0)
	if c.MaxContextTokens != defaultMaxContextTokens {
		t.Errorf("MaxContextTokens = %d, want %d", c.MaxContextTokens, defaultMaxContextTokens)
	}
	if msgs := c.Compose([]session.Turn{greeting()}); len(msgs) != 0 {
		t.Errorf("expected no messages, got %d", len(msgs))
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("a", 400), 100},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%d chars) = %d, want %d", len(tt.text), got, tt.want)
		}
	}
}
