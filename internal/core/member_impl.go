package core

// memberSession implements MemberSession by pairing id + transport.
type memberSession struct {
	sid  SessionID
	conn SignalConnection
}

func NewMemberSession(sid SessionID, conn SignalConnection) MemberSession {
	return &memberSession{sid: sid, conn: conn}
}

func (m *memberSession) ID() SessionID            { return m.sid }
func (m *memberSession) Signal() SignalConnection { return m.conn }
