package orch

import (
	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/protocol"
	"github.com/rs/zerolog/log"
)

// OnDisconnect cleans up every room sid belonged to. Only the first call
// for a sid does anything.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	entry, ok := o.Registry.Unbind(sid)
	if !ok {
		return
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(entry.RoomCode)).
		Str("dm_room", string(entry.DMRoom)).Msg("disconnect")

	for _, code := range []domain.RoomCode{entry.RoomCode, entry.DMRoom} {
		if code == "" {
			continue
		}
		o.departRoom(sid, code)
	}
}

// departRoom removes sid from code and tells the rest. A failure here is
// contained to this room.
func (o *Orchestrator) departRoom(sid core.SessionID, code domain.RoomCode) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "orch").Str("sid", string(sid)).Str("room", string(code)).
				Interface("panic", r).Msg("depart room failed")
		}
	}()

	meta, ok := o.Rooms.Remove(code, sid)
	if !ok {
		return
	}
	o.broadcast(code, sid, protocol.MemberLeft{DisplayName: meta.DisplayName()})
	o.broadcast(code, sid, protocol.PeerGone{PeerConnectionID: string(sid)})
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(code)).Msg("left room")
}
