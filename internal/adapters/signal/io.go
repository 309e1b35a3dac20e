package signal

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, sid core.SessionID, c *wsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump ctx done")
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(ctl.opts.WriteWait))
			// Unblocks the reader so it can reconcile and exit.
			c.Close()
			return
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(ctl.opts.WriteWait))
				log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump set deadline")
				c.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump write error")
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("ping failed")
				c.Close()
				return
			}
		}
	}
}

// readPump owns the connection's lifetime: when it returns the
// connection is torn down and the orchestrator reconciles its rooms.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid core.SessionID, c *wsSignalConn) {
	defer ctl.conns.Done()
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		cancel()
		c.Close()
		ctl.Orch.OnDisconnect(sid)
	}()

	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.pongWait()))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			ctl.dispatch(ctx, sid, c, data)
		}
	}
}

func (ctl *SignalWSController) dispatch(ctx context.Context, sid core.SessionID, c *wsSignalConn, data []byte) {
	ev, err := protocol.Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad frame")
		if errors.Is(err, protocol.ErrUnknownType) {
			ctl.sendError(c, "unknown_type")
		} else {
			ctl.sendError(c, "bad_payload")
		}
		return
	}

	switch e := ev.(type) {
	case *protocol.JoinRoom:
		ctl.handleJoin(ctx, sid, c, e)
	case *protocol.LeaveRoom:
		ctl.handleLeave(sid, c)
	case *protocol.AnnounceReady:
		ctl.handleAnnounceReady(sid, e)
	case *protocol.Signal:
		ctl.handleSignal(sid, e)
	case *protocol.Chat:
		ctl.handleChat(sid, c, e)
	case *protocol.RaiseHand:
		ctl.handleRaiseHand(sid, c)
	case *protocol.MediaState:
		ctl.handleMedia(sid, c, e)
	case *protocol.YouTubeSync:
		ctl.handleYouTube(sid, c, e)
	case *protocol.DMJoin:
		ctl.handleDMJoin(sid, c, e)
	case *protocol.DMSignal:
		ctl.handleDMSignal(sid, e)
	case *protocol.DMChat:
		ctl.handleDMChat(sid, c, e)
	case *protocol.Ping:
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("type", string(ev.EventType())).Msg("unhandled event")
	}
}

func (ctl *SignalWSController) send(c *wsSignalConn, ev protocol.Event) {
	b, err := protocol.Encode(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("send encode")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("type", string(ev.EventType())).Msg("send failed")
	}
}

func (ctl *SignalWSController) sendError(c *wsSignalConn, msg string) {
	ctl.send(c, protocol.Error{Error: msg})
}
