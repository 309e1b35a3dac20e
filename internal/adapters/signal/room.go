package signal

import (
	"context"
	"errors"

	"github.com/dkeye/Meet/internal/app/orch"
	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/protocol"
	"github.com/rs/zerolog/log"
)

const reasonTooManyJoins = "too many join attempts"

func (ctl *SignalWSController) handleJoin(
	ctx context.Context,
	sid core.SessionID,
	conn *wsSignalConn,
	p *protocol.JoinRoom,
) {
	key := p.UserID
	if key == "" {
		key = string(sid)
	}
	if ctl.opts.JoinLimiter != nil && !ctl.opts.JoinLimiter.Allow(key) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("user", key).Msg("join rate limited")
		ctl.send(conn, protocol.JoinFailed{Reason: reasonTooManyJoins})
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomCode).Msg("join")
	err := ctl.Orch.Join(ctx, sid, domain.RoomCode(p.RoomCode), p.UserID, p.DisplayName)
	if err == nil {
		return
	}
	if !isJoinRejection(err) {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomCode).Msg("join failed")
	}
	ctl.send(conn, protocol.JoinFailed{Reason: orch.JoinFailureReason(err)})
}

func isJoinRejection(err error) bool {
	return errors.Is(err, domain.ErrRoomNotFound) ||
		errors.Is(err, domain.ErrRoomFull) ||
		errors.Is(err, domain.ErrForbidden)
}

// handleLeave leaves the current room; the connection stays open.
func (ctl *SignalWSController) handleLeave(
	sid core.SessionID,
	conn *wsSignalConn,
) {
	code, err := ctl.Orch.Leave(sid)
	if err != nil {
		ctl.sendError(conn, "not_in_room")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(code)).Msg("leave")
}
