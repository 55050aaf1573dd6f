package chat

import (
	"strings"
	"testing"

	"github.com/aldermoor/braindex/internal/domain"
)

func TestTemplate_RendersAllSections(t *testing.T) {
	tpl := NewTemplate("")

	history := []domain.Message{
		{Role: domain.RoleUser, Content: "hello"},
		{Role: domain.RoleAssistant, Content: "hi there"},
	}

	got := tpl.Render("some context", history, "what now?")

	for _, want := range []string{
		"some context",
		"User: hello",
		"Assistant: hi there",
		"User: what now?",
		`say "I don't know"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("rendered prompt lacks %q:\n%s", want, got)
		}
	}
}

func TestTemplate_EmptyContextBecomesMarker(t *testing.T) {
	tpl := NewTemplate("")

	got := tpl.Render("", nil, "q")
	if !strings.Contains(got, noContextMarker) {
		t.Errorf("expected %q in prompt:\n%s", noContextMarker, got)
	}
}

func TestTemplate_EmptyHistoryRendersEmptyString(t *testing.T) {
	tpl := NewTemplate("")

	got := tpl.Render("some context", nil, "q?")
	if !strings.Contains(got, "[RECENT CONVERSATION HISTORY]\n\n") {
		t.Errorf("empty history must leave the section blank:\n%s", got)
	}
	if strings.Contains(got, "User:") && strings.Index(got, "User:") < strings.Index(got, "[CURRENT QUESTION]") {
		t.Errorf("history section must be empty, not a placeholder:\n%s", got)
	}
}

func TestTemplate_CustomText(t *testing.T) {
	tpl := NewTemplate("Q={{question}} C={{context}}")

	got := tpl.Render("ctx", nil, "why")
	if got != "Q=why C=ctx" {
		t.Errorf("unexpected render: %q", got)
	}
}
