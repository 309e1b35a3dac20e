package signal

import (
	"errors"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleChat(sid core.SessionID, conn *wsSignalConn, p *protocol.Chat) {
	ctl.reportRoomErr(sid, conn, ctl.Orch.Chat(sid, p.Message))
}

func (ctl *SignalWSController) handleRaiseHand(sid core.SessionID, conn *wsSignalConn) {
	ctl.reportRoomErr(sid, conn, ctl.Orch.RaiseHand(sid))
}

func (ctl *SignalWSController) handleMedia(sid core.SessionID, conn *wsSignalConn, p *protocol.MediaState) {
	ctl.reportRoomErr(sid, conn, ctl.Orch.Media(sid, p.VideoEnabled, p.AudioEnabled))
}

func (ctl *SignalWSController) handleYouTube(sid core.SessionID, conn *wsSignalConn, p *protocol.YouTubeSync) {
	ctl.reportRoomErr(sid, conn, ctl.Orch.YouTube(sid, p.Action, p.Payload))
}

func (ctl *SignalWSController) reportRoomErr(sid core.SessionID, conn *wsSignalConn, err error) {
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotInRoom):
		ctl.sendError(conn, "not_in_room")
	case errors.Is(err, domain.ErrMessageTooLong):
		ctl.sendError(conn, "message_too_long")
	default:
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("room event")
		ctl.sendError(conn, "internal")
	}
}
