package signal

import (
	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/protocol"
)

func (ctl *SignalWSController) handleAnnounceReady(sid core.SessionID, p *protocol.AnnounceReady) {
	ctl.Orch.AnnounceReady(sid, domain.RoomCode(p.RoomCode))
}

// Relay failures are never reported back; the peers renegotiate.
func (ctl *SignalWSController) handleSignal(sid core.SessionID, p *protocol.Signal) {
	_ = ctl.Orch.Relay(sid, core.SessionID(p.To), p.Data)
}

func (ctl *SignalWSController) handleDMSignal(sid core.SessionID, p *protocol.DMSignal) {
	_ = ctl.Orch.RelayDM(sid, core.SessionID(p.To), p.Data)
}
