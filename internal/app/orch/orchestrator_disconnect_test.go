package orch

import (
	"slices"
	"testing"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/protocol"
)

func TestDisconnectNotifiesEveryRoomOnce(t *testing.T) {
	h := newHarness(t)
	h.meeting("ABC123", 10)
	h.connect("gone")
	b := h.connect("b")
	c := h.connect("c")
	d := h.connect("d")

	h.mustJoin("gone", "ABC123", "ug", "Gina")
	h.mustJoin("b", "ABC123", "ub", "Bob")
	h.mustJoin("c", "ABC123", "uc", "Cid")
	_ = h.o.DMJoin("gone", "r1", nil)
	_ = h.o.DMJoin("d", "r1", nil)
	for _, conn := range h.conns {
		conn.reset()
	}

	h.o.OnDisconnect("gone")
	h.o.OnDisconnect("gone")

	for name, conn := range map[string]*fakeConn{"b": b, "c": c, "d": d} {
		gone := received[protocol.PeerGone](t, conn, protocol.TypePeerGone)
		if len(gone) != 1 || gone[0].PeerConnectionID != "gone" {
			t.Errorf("%s peer-gone = %+v", name, gone)
		}
		left := received[protocol.MemberLeft](t, conn, protocol.TypeMemberLeft)
		if len(left) != 1 {
			t.Errorf("%s member-left = %+v", name, left)
		}
	}
	if left := received[protocol.MemberLeft](t, b, protocol.TypeMemberLeft); len(left) == 1 && left[0].DisplayName != "Gina" {
		t.Errorf("member-left name = %q", left[0].DisplayName)
	}
	if slices.Contains(h.members("ABC123"), "gone") || slices.Contains(h.members(domain.DMRoomCode("r1")), "gone") {
		t.Error("departed connection still listed")
	}
	if _, ok := h.o.Registry.GetSession("gone"); ok {
		t.Error("registry entry survived")
	}
}

func TestDisconnectLastMemberClosesRoom(t *testing.T) {
	h := newHarness(t)
	h.meeting("ABC123", 10)
	h.connect("a")
	h.mustJoin("a", "ABC123", "ua", "A")
	h.o.OnDisconnect("a")
	if _, ok := h.o.Rooms.Get("ABC123"); ok {
		t.Fatal("empty room still live")
	}
	if len(h.o.ListRooms()) != 0 {
		t.Fatalf("rooms = %+v", h.o.ListRooms())
	}
}

func TestDisconnectFreesSeat(t *testing.T) {
	h := newHarness(t)
	h.meeting("ABC123", 1)
	h.connect("a")
	h.connect("b")
	h.mustJoin("a", "ABC123", "ua", "A")
	h.o.OnDisconnect("a")
	h.mustJoin("b", "ABC123", "ub", "B")
}

type panicConn struct{}

func (panicConn) TrySend(core.Frame) error { panic("broken transport") }
func (panicConn) Close()                   {}

func TestDisconnectIsolatesRoomFailures(t *testing.T) {
	h := newHarness(t)
	h.meeting("ABC123", 10)
	h.connect("gone")
	h.mustJoin("gone", "ABC123", "ug", "G")
	_ = h.o.DMJoin("gone", "r1", nil)

	room, _ := h.o.Rooms.Get("ABC123")
	if err := h.o.Rooms.Admit(room.Room(), "bad", core.NewMemberSession("bad", panicConn{}), domain.Member{}); err != nil {
		t.Fatal(err)
	}
	d := h.connect("d")
	_ = h.o.DMJoin("d", "r1", nil)
	d.reset()

	h.o.OnDisconnect("gone")

	if got := received[protocol.PeerGone](t, d, protocol.TypePeerGone); len(got) != 1 {
		t.Fatalf("dm room not processed after failure in meeting room: %+v", got)
	}
	if slices.Contains(h.members("ABC123"), "gone") {
		t.Error("failed room still lists departed connection")
	}
}
