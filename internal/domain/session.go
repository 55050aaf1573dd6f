package domain

import "time"

// Role identifies the author of a message within a session.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Session is one persistent multi-turn conversation thread.
// The title is derived once at creation and never recomputed.
type Session struct {
	ID        int64
	Title     string
	CreatedAt time.Time
}

// Message is one turn half within a session. Append-only; ordering within a
// session is defined by the monotonically increasing id.
type Message struct {
	ID        int64
	SessionID int64
	Role      Role
	Content   string
	CreatedAt time.Time
}

// maxTitleLen is the number of leading characters of the first question kept as
// the session title before the ellipsis marker is appended.
const maxTitleLen = 30

// TitleFromQuestion derives a session title from the first question of a new
// session: the question verbatim when it fits, otherwise its first 30
// characters followed by "...".
func TitleFromQuestion(question string) string {
	runes := []rune(question)
	if len(runes) <= maxTitleLen {
		return question
	}
	return string(runes[:maxTitleLen]) + "..."
}
