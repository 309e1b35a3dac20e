package orch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Join validates code against the store and seats sid in the room.
// On success every member, the joiner included, gets member-joined and the
// joiner then gets join-confirmed. On failure nothing changes and the
// caller reports the error to the joiner.
func (o *Orchestrator) Join(ctx context.Context, sid core.SessionID, code domain.RoomCode, userID, displayName string) error {
	entry, ok := o.Registry.Get(sid)
	if !ok {
		return domain.ErrSessionNotFound
	}
	code = domain.RoomCode(strings.TrimSpace(string(code)))
	user := domain.NewUser(userID, displayName)

	room, err := o.resolveRoom(ctx, code, user.ID)
	if err != nil {
		log.Info().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("room", string(code)).Msg("join rejected")
		return err
	}

	member := domain.NewMember(user, entry.Member.ClientToken)
	if err := o.Rooms.Admit(room, sid, entry.Session, member); err != nil {
		if errors.Is(err, domain.ErrRoomFull) {
			return fmt.Errorf("%w (%d people)", domain.ErrRoomFull, room.Capacity)
		}
		return err
	}
	o.Registry.UpdateMember(sid, member)
	o.Registry.UpdateRoom(sid, room.Code)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room.Code)).
		Str("user", string(member.User.ID)).Msg("joined room")

	if prev := entry.RoomCode; prev != "" && prev != room.Code {
		o.departRoom(sid, prev)
	}

	o.broadcast(room.Code, "", protocol.MemberJoined{DisplayName: member.DisplayName()})
	o.send(sid, protocol.JoinConfirmed{RoomCode: string(room.Code)})
	return nil
}

// resolveRoom looks code up as an active meeting, then as a joinable
// breakout room. Breakout access is re-checked against the parent
// meeting's participants on every call.
func (o *Orchestrator) resolveRoom(ctx context.Context, code domain.RoomCode, userID domain.UserID) (domain.Room, error) {
	if code == "" {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	meeting, err := o.Meetings.FindActiveMeetingByCode(ctx, code)
	switch {
	case err == nil:
		return meeting.Room(), nil
	case !errors.Is(err, domain.ErrRoomNotFound):
		return domain.Room{}, fmt.Errorf("find meeting %s: %w", code, err)
	}

	br, err := o.Meetings.FindBreakoutRoomByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return domain.Room{}, domain.ErrRoomNotFound
		}
		return domain.Room{}, fmt.Errorf("find breakout room %s: %w", code, err)
	}
	if !br.Joinable() {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	if br.Parent == nil || !br.Parent.HasParticipant(userID) {
		return domain.Room{}, domain.ErrForbidden
	}
	return br.Room(), nil
}

// Leave takes sid out of its primary room and keeps the connection open.
func (o *Orchestrator) Leave(sid core.SessionID) (domain.RoomCode, error) {
	code, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return "", domain.ErrNotInRoom
	}
	o.Registry.RemoveRoom(sid, code)
	o.departRoom(sid, code)
	o.send(sid, protocol.Left{RoomCode: string(code)})
	return code, nil
}

// DMJoin puts sid into the direct-message room for roomID, leaving any
// previous one. Others already there learn about the newcomer.
func (o *Orchestrator) DMJoin(sid core.SessionID, roomID string, user []byte) error {
	entry, ok := o.Registry.Get(sid)
	if !ok {
		return domain.ErrSessionNotFound
	}
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return domain.ErrRoomNotFound
	}
	room := domain.Room{Code: domain.DMRoomCode(roomID), Kind: domain.RoomKindDM}
	if err := o.Rooms.Admit(room, sid, entry.Session, entry.Member); err != nil {
		return err
	}
	prev, _ := o.Registry.UpdateDMRoom(sid, room.Code)
	if prev != "" && prev != room.Code {
		o.departRoom(sid, prev)
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room.Code)).Msg("joined dm room")

	o.broadcast(room.Code, sid, protocol.DMPeerJoined{ID: string(sid), User: user})
	return nil
}

// JoinFailureReason turns a Join error into the text shown to the user.
func JoinFailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return "room does not exist"
	case errors.Is(err, domain.ErrRoomFull):
		return err.Error()
	case errors.Is(err, domain.ErrForbidden):
		return "you must be a participant of the main meeting to join this breakout room"
	default:
		return "could not join room"
	}
}
