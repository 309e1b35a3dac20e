package domain

import "time"

const (
	MaxChatMessageLen = 4000

	MessageTypeText = "text"

	BroadcastPrefix = "[BROADCAST] "
)

type ChatMessage struct {
	ID        string
	SenderID  UserID
	MeetingID string // empty for messages outside a meeting
	Content   string
	Type      string
	CreatedAt time.Time
}

// BreakoutChatEntry is one line of a breakout room's chat history.
type BreakoutChatEntry struct {
	UserID    UserID
	Message   string
	Timestamp time.Time
}
