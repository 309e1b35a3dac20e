package signal

import (
	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/protocol"
)

func (ctl *SignalWSController) handleDMJoin(sid core.SessionID, conn *wsSignalConn, p *protocol.DMJoin) {
	if err := ctl.Orch.DMJoin(sid, p.RoomID, p.User); err != nil {
		ctl.sendError(conn, "bad_dm_room")
	}
}

func (ctl *SignalWSController) handleDMChat(sid core.SessionID, conn *wsSignalConn, p *protocol.DMChat) {
	ctl.reportRoomErr(sid, conn, ctl.Orch.DMChat(sid, p.Message, p.User))
}
