package core

import (
	"context"

	"github.com/dkeye/Meet/internal/domain"
)

// MeetingStore is the read side of the document store. Lookups that find
// nothing return domain.ErrRoomNotFound.
type MeetingStore interface {
	FindActiveMeetingByCode(ctx context.Context, code domain.RoomCode) (*domain.Meeting, error)
	FindMeetingByID(ctx context.Context, id string) (*domain.Meeting, error)
	// FindBreakoutRoomByCode only returns rooms in created or active status,
	// with Parent populated.
	FindBreakoutRoomByCode(ctx context.Context, code domain.RoomCode) (*domain.BreakoutRoom, error)
	ListActiveBreakoutRooms(ctx context.Context, meetingID string) ([]domain.BreakoutRoom, error)
}

// MessageStore is the append side. Callers treat every method as best-effort.
type MessageStore interface {
	PersistChatMessage(ctx context.Context, meetingID string, senderID domain.UserID, content string) error
	AppendBreakoutChat(ctx context.Context, roomID string, entry domain.BreakoutChatEntry) error
}

type Store interface {
	MeetingStore
	MessageStore
	Close(ctx context.Context) error
}
