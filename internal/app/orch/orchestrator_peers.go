package orch

import (
	"encoding/json"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/protocol"
	"github.com/rs/zerolog/log"
)

// AnnounceReady introduces sid and every other member of its room to each
// other: 2N peer-available notices for N existing members. claimed is the
// room the client believes it is in; the registry wins when they differ.
func (o *Orchestrator) AnnounceReady(sid core.SessionID, claimed domain.RoomCode) int {
	code, self, ok := o.Registry.RoomOf(sid)
	if !ok {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("announce-ready without room")
		return 0
	}
	if claimed != "" && claimed != code {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("room", string(code)).
			Str("claimed", string(claimed)).Msg("announce-ready room mismatch")
	}
	room, ok := o.Rooms.Get(code)
	if !ok {
		return 0
	}

	me, _ := o.Registry.Member(sid)
	selfInfo := peerInfo(me, code)

	peers := 0
	for _, m := range room.MembersSnapshot() {
		if m.SID == sid {
			continue
		}
		o.deliver(room, m.Session, protocol.PeerAvailable{PeerConnectionID: string(sid), PeerInfo: selfInfo})
		o.deliver(room, self, protocol.PeerAvailable{PeerConnectionID: string(m.SID), PeerInfo: peerInfo(m.Member, code)})
		peers++
	}
	log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(code)).Int("peers", peers).Msg("announced")
	return peers
}

func peerInfo(m domain.Member, code domain.RoomCode) protocol.PeerInfo {
	return protocol.PeerInfo{
		UserID:      string(m.User.ID),
		DisplayName: m.DisplayName(),
		RoomCode:    string(code),
	}
}

// Relay forwards an opaque negotiation payload from one connection to
// another. A missing target is dropped; the error is for logging only.
func (o *Orchestrator) Relay(from, to core.SessionID, data json.RawMessage) error {
	return o.relay(from, to, protocol.Signal{From: string(from), Data: data})
}

// RelayDM is Relay for the direct-message flow.
func (o *Orchestrator) RelayDM(from, to core.SessionID, data json.RawMessage) error {
	return o.relay(from, to, protocol.DMSignal{From: string(from), Data: data})
}

func (o *Orchestrator) relay(from, to core.SessionID, ev protocol.Event) error {
	target, ok := o.Registry.GetSession(to)
	if !ok {
		log.Debug().Str("module", "orch").Str("sid", string(from)).Str("to", string(to)).
			Str("type", string(ev.EventType())).Msg("relay target missing")
		return domain.ErrRelayTargetMissing
	}
	o.deliver(nil, target, ev)
	return nil
}
