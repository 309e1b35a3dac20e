package orch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/protocol"
	"github.com/rs/zerolog/log"
)

// roomOf resolves the sender's primary room and identity from the registry.
func (o *Orchestrator) roomOf(sid core.SessionID) (domain.RoomCode, domain.Member, error) {
	code, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return "", domain.Member{}, domain.ErrNotInRoom
	}
	m, _ := o.Registry.Member(sid)
	return code, m, nil
}

// Chat echoes message to the whole room first, then stores it in the
// background.
func (o *Orchestrator) Chat(sid core.SessionID, message string) error {
	if utf8.RuneCountInString(message) > domain.MaxChatMessageLen {
		return domain.ErrMessageTooLong
	}
	code, m, err := o.roomOf(sid)
	if err != nil {
		return err
	}
	o.broadcast(code, "", protocol.Chat{
		Message:           message,
		SenderDisplayName: m.DisplayName(),
		SenderID:          string(m.User.ID),
		At:                nowMillis(),
	})

	room, ok := o.Rooms.Get(code)
	if !ok || o.Messages == nil {
		return nil
	}
	o.persistChat(room.Room(), m.User.ID, message)
	return nil
}

// persistChat stores meeting chat in the meeting's message stream and
// breakout chat in that breakout room's own history.
func (o *Orchestrator) persistChat(room domain.Room, sender domain.UserID, message string) {
	switch {
	case room.Kind == domain.RoomKindBreakout && room.RoomID != "":
		entry := domain.BreakoutChatEntry{UserID: sender, Message: message, Timestamp: time.Now()}
		o.detach("append breakout chat", func(ctx context.Context) error {
			return o.Messages.AppendBreakoutChat(ctx, room.RoomID, entry)
		})
	case room.Kind == domain.RoomKindMeeting && room.MeetingID != "":
		o.detach("persist chat", func(ctx context.Context) error {
			return o.Messages.PersistChatMessage(ctx, room.MeetingID, sender, message)
		})
	}
}

func (o *Orchestrator) RaiseHand(sid core.SessionID) error {
	code, m, err := o.roomOf(sid)
	if err != nil {
		return err
	}
	o.broadcast(code, "", protocol.RaiseHand{UserID: string(m.User.ID), DisplayName: m.DisplayName()})
	return nil
}

// Media tags the toggle with the sender's connection id so receivers can
// find the right tile.
func (o *Orchestrator) Media(sid core.SessionID, videoEnabled, audioEnabled bool) error {
	code, m, err := o.roomOf(sid)
	if err != nil {
		return err
	}
	o.broadcast(code, "", protocol.MediaState{
		VideoEnabled:       videoEnabled,
		AudioEnabled:       audioEnabled,
		UserID:             string(m.User.ID),
		DisplayName:        m.DisplayName(),
		SenderConnectionID: string(sid),
	})
	return nil
}

// YouTube goes to everyone except the controlling client.
func (o *Orchestrator) YouTube(sid core.SessionID, action string, payload json.RawMessage) error {
	code, _, err := o.roomOf(sid)
	if err != nil {
		return err
	}
	o.broadcast(code, sid, protocol.YouTubeSync{Action: action, Payload: payload})
	return nil
}

// DMChat is not persisted.
func (o *Orchestrator) DMChat(sid core.SessionID, message string, user json.RawMessage) error {
	if utf8.RuneCountInString(message) > domain.MaxChatMessageLen {
		return domain.ErrMessageTooLong
	}
	code, ok := o.Registry.DMRoomOf(sid)
	if !ok {
		return domain.ErrNotInRoom
	}
	o.broadcast(code, "", protocol.DMChat{Message: message, User: user, At: nowMillis()})
	return nil
}

// HostBroadcast sends text to every active breakout room of the meeting
// and appends it to each room's chat history. Only the host may do this.
// It returns the number of rooms targeted.
func (o *Orchestrator) HostBroadcast(ctx context.Context, meetingID string, userID domain.UserID, text string) (int, error) {
	meeting, err := o.Meetings.FindMeetingByID(ctx, meetingID)
	if err != nil {
		return 0, err
	}
	if meeting.HostID != userID {
		return 0, domain.ErrForbidden
	}
	rooms, err := o.Meetings.ListActiveBreakoutRooms(ctx, meeting.ID)
	if err != nil {
		return 0, fmt.Errorf("list breakout rooms: %w", err)
	}

	message := domain.BroadcastPrefix + text
	entry := domain.BreakoutChatEntry{UserID: userID, Message: message, Timestamp: time.Now()}
	for _, br := range rooms {
		res := o.broadcast(br.Code, "", protocol.HostBroadcast{Message: message})
		log.Info().Str("module", "orch").Str("room", string(br.Code)).Int("sent_to", res.SendTo).Msg("host broadcast")
		if o.Messages == nil {
			continue
		}
		roomID := br.ID
		o.detach("append breakout chat", func(ctx context.Context) error {
			return o.Messages.AppendBreakoutChat(ctx, roomID, entry)
		})
	}
	return len(rooms), nil
}
