package signal

import "github.com/dkeye/Meet/internal/protocol"

func (ctl *SignalWSController) handlePing(conn *wsSignalConn) {
	ctl.send(conn, protocol.Pong{})
}
