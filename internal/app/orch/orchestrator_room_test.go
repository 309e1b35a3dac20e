package orch

import (
	"errors"
	"slices"
	"testing"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/protocol"
)

func TestJoinRoomFull(t *testing.T) {
	h := newHarness(t)
	h.meeting("ABC123", 2)
	h.connect("X")
	h.connect("Y")
	z := h.connect("Z")

	h.mustJoin("X", "ABC123", "ux", "X")
	h.mustJoin("Y", "ABC123", "uy", "Y")

	err := h.o.Join(t.Context(), "Z", "ABC123", "uz", "Z")
	if !errors.Is(err, domain.ErrRoomFull) {
		t.Fatalf("got %v, want ErrRoomFull", err)
	}
	if got := JoinFailureReason(err); got != "room is full (2 people)" {
		t.Errorf("reason = %q", got)
	}
	if got := h.members("ABC123"); !slices.Equal(got, []core.SessionID{"X", "Y"}) {
		t.Errorf("members = %v", got)
	}
	if _, _, ok := h.o.Registry.RoomOf("Z"); ok {
		t.Error("rejected connection has a room")
	}
	if len(z.envelopes(t)) != 0 {
		t.Errorf("rejected joiner got %v", z.types(t))
	}
}

func TestJoinUnknownOrInactiveRoom(t *testing.T) {
	h := newHarness(t)
	h.store.AddMeeting(domain.Meeting{Code: "GONE00", Active: false})
	h.connect("A")

	for _, code := range []domain.RoomCode{"NOPE00", "GONE00", ""} {
		err := h.o.Join(t.Context(), "A", code, "u", "Ann")
		if !errors.Is(err, domain.ErrRoomNotFound) {
			t.Errorf("%q: got %v, want ErrRoomNotFound", code, err)
		}
		if JoinFailureReason(err) != "room does not exist" {
			t.Errorf("%q: reason %q", code, JoinFailureReason(err))
		}
	}
	if _, _, ok := h.o.Registry.RoomOf("A"); ok {
		t.Error("room association set after failed join")
	}
}

func TestJoinBreakoutRequiresParentParticipant(t *testing.T) {
	h := newHarness(t)
	parent := h.meeting("MAIN01", 0, "member")
	h.store.AddBreakoutRoom(domain.BreakoutRoom{Code: "ZZZZZZ", Capacity: 3, Status: domain.BreakoutActive}, parent)
	h.connect("U")
	h.connect("M")

	err := h.o.Join(t.Context(), "U", "ZZZZZZ", "stranger", "U")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("got %v, want ErrForbidden", err)
	}
	if len(h.members("ZZZZZZ")) != 0 {
		t.Fatal("forbidden joiner admitted")
	}

	h.mustJoin("M", "ZZZZZZ", "member", "M")
	room, ok := h.o.Rooms.Get("ZZZZZZ")
	if !ok {
		t.Fatal("breakout room not live")
	}
	if r := room.Room(); r.Kind != domain.RoomKindBreakout || r.MeetingID != parent || r.Capacity != 3 {
		t.Errorf("room = %+v", r)
	}

	// removal from the parent is seen on the next join
	h.store.SetParticipants(parent)
	h.connect("M2")
	if err := h.o.Join(t.Context(), "M2", "ZZZZZZ", "member", "M"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("got %v after removal from parent", err)
	}
}

func TestJoinPrefersActiveMeeting(t *testing.T) {
	h := newHarness(t)
	parent := h.meeting("DUPE01", 5)
	h.store.AddBreakoutRoom(domain.BreakoutRoom{Code: "DUPE01", Status: domain.BreakoutActive}, parent)
	h.connect("A")
	h.mustJoin("A", "DUPE01", "u", "A")
	room, _ := h.o.Rooms.Get("DUPE01")
	if room.Room().Kind != domain.RoomKindMeeting {
		t.Fatalf("kind = %s", room.Room().Kind)
	}
}

func TestJoinNotifications(t *testing.T) {
	h := newHarness(t)
	h.meeting("ABC123", 10)
	x := h.connect("X")
	y := h.connect("Y")

	h.mustJoin("X", "ABC123", "ux", "Xavier")
	x.reset()
	h.mustJoin("Y", "ABC123", "uy", "Yara")

	if got := y.types(t); !slices.Equal(got, []protocol.Type{protocol.TypeMemberJoined, protocol.TypeJoinConfirmed}) {
		t.Fatalf("joiner got %v", got)
	}
	confirmed := received[protocol.JoinConfirmed](t, y, protocol.TypeJoinConfirmed)
	if confirmed[0].RoomCode != "ABC123" {
		t.Errorf("confirmed = %+v", confirmed[0])
	}
	joined := received[protocol.MemberJoined](t, x, protocol.TypeMemberJoined)
	if len(joined) != 1 || joined[0].DisplayName != "Yara" {
		t.Errorf("existing member got %+v", joined)
	}
	if len(received[protocol.JoinConfirmed](t, x, protocol.TypeJoinConfirmed)) != 0 {
		t.Error("join-confirmed leaked to another member")
	}
}

func TestJoinChecksAndStoresTheSameUserID(t *testing.T) {
	h := newHarness(t)
	parent := h.meeting("MAIN01", 0, "member")
	h.store.AddBreakoutRoom(domain.BreakoutRoom{Code: "ZZZZZZ", Status: domain.BreakoutActive}, parent)
	h.connect("M")

	h.mustJoin("M", "ZZZZZZ", "  member ", "M")
	m, _ := h.o.Registry.Member("M")
	if m.User.ID != "member" {
		t.Fatalf("stored user id %q", m.User.ID)
	}
}

func TestRejoinSameRoomKeepsOneSeat(t *testing.T) {
	h := newHarness(t)
	h.meeting("ABC123", 1)
	h.connect("A")
	h.mustJoin("A", "ABC123", "u", "A")
	h.mustJoin("A", "ABC123", "u", "A")
	if n := len(h.members("ABC123")); n != 1 {
		t.Fatalf("count = %d", n)
	}
}

func TestJoinAnotherRoomLeavesTheOld(t *testing.T) {
	h := newHarness(t)
	h.meeting("ROOM01", 10)
	h.meeting("ROOM02", 10)
	h.connect("A")
	b := h.connect("B")
	h.mustJoin("A", "ROOM01", "ua", "Ann")
	h.mustJoin("B", "ROOM01", "ub", "Bob")
	b.reset()

	h.mustJoin("A", "ROOM02", "ua", "Ann")

	if got := h.members("ROOM01"); !slices.Equal(got, []core.SessionID{"B"}) {
		t.Fatalf("old room members = %v", got)
	}
	left := received[protocol.MemberLeft](t, b, protocol.TypeMemberLeft)
	gone := received[protocol.PeerGone](t, b, protocol.TypePeerGone)
	if len(left) != 1 || left[0].DisplayName != "Ann" {
		t.Errorf("member-left = %+v", left)
	}
	if len(gone) != 1 || gone[0].PeerConnectionID != "A" {
		t.Errorf("peer-gone = %+v", gone)
	}
	if code, _, _ := h.o.Registry.RoomOf("A"); code != "ROOM02" {
		t.Errorf("registry room = %s", code)
	}
}

func TestLeaveKeepsConnection(t *testing.T) {
	h := newHarness(t)
	h.meeting("ABC123", 10)
	a := h.connect("A")
	b := h.connect("B")
	h.mustJoin("A", "ABC123", "ua", "Ann")
	h.mustJoin("B", "ABC123", "ub", "Bob")
	a.reset()
	b.reset()

	code, err := h.o.Leave("A")
	if err != nil || code != "ABC123" {
		t.Fatalf("leave = %s, %v", code, err)
	}
	if got := received[protocol.Left](t, a, protocol.TypeLeft); len(got) != 1 || got[0].RoomCode != "ABC123" {
		t.Errorf("left = %+v", got)
	}
	if got := b.types(t); !slices.Equal(got, []protocol.Type{protocol.TypeMemberLeft, protocol.TypePeerGone}) {
		t.Errorf("remaining member got %v", got)
	}
	if _, ok := h.o.Registry.GetSession("A"); !ok {
		t.Error("connection dropped by leave")
	}
	if _, err := h.o.Leave("A"); !errors.Is(err, domain.ErrNotInRoom) {
		t.Errorf("second leave: %v", err)
	}
}

func TestJoinWithoutSession(t *testing.T) {
	h := newHarness(t)
	h.meeting("ABC123", 10)
	if err := h.o.Join(t.Context(), "ghost", "ABC123", "u", "G"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestDMJoin(t *testing.T) {
	h := newHarness(t)
	a := h.connect("A")
	b := h.connect("B")

	if err := h.o.DMJoin("A", "r1", []byte(`{"name":"Ann"}`)); err != nil {
		t.Fatal(err)
	}
	if err := h.o.DMJoin("B", "r1", []byte(`{"name":"Bob"}`)); err != nil {
		t.Fatal(err)
	}

	joined := received[protocol.DMPeerJoined](t, a, protocol.TypeDMPeerJoined)
	if len(joined) != 1 || joined[0].ID != "B" || string(joined[0].User) != `{"name":"Bob"}` {
		t.Fatalf("dm-peer-joined = %+v", joined)
	}
	if len(b.envelopes(t)) != 0 {
		t.Errorf("joiner notified about itself: %v", b.types(t))
	}
	if code, ok := h.o.Registry.DMRoomOf("A"); !ok || code != "dm:r1" {
		t.Errorf("dm room = %s", code)
	}

	if err := h.o.DMJoin("A", " ", nil); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Errorf("blank room id: %v", err)
	}
}
