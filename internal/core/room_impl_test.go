package core

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dkeye/Meet/internal/domain"
)

type stubConn struct {
	mu     sync.Mutex
	frames []Frame
	fail   bool
}

func (c *stubConn) TrySend(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("full")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *stubConn) Close() {}

func (c *stubConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func member(name string) domain.Member {
	return domain.NewMember(domain.NewUser(name, name), "")
}

func hasMember(r RoomService, sid SessionID) bool {
	for _, m := range r.MembersSnapshot() {
		if m.SID == sid {
			return true
		}
	}
	return false
}

func TestMembersDTO(t *testing.T) {
	room := domain.Room{Code: "R", Capacity: 5}
	r := NewRoomService(room)
	_ = r.Admit(room, "b", NewMemberSession("b", &stubConn{}), domain.NewMember(domain.NewUser("u-b", "Bea"), "tok"))
	_ = r.Admit(room, "a", NewMemberSession("a", &stubConn{}), domain.NewMember(domain.NewUser("u-a", ""), "tok"))

	dto := r.MembersDTO()
	want := []MemberDTO{
		{SID: "b", UserID: "u-b", DisplayName: "Bea"},
		{SID: "a", UserID: "u-a", DisplayName: domain.DefaultDisplayName},
	}
	if len(dto) != len(want) {
		t.Fatalf("len = %d", len(dto))
	}
	for i := range want {
		if dto[i] != want[i] {
			t.Errorf("dto[%d] = %+v, want %+v", i, dto[i], want[i])
		}
	}
}

func TestAdmitRespectsCapacity(t *testing.T) {
	room := domain.Room{Code: "ABC123", Kind: domain.RoomKindMeeting, Capacity: 2}
	r := NewRoomService(room)

	for _, sid := range []SessionID{"x", "y"} {
		if err := r.Admit(room, sid, NewMemberSession(sid, &stubConn{}), member(string(sid))); err != nil {
			t.Fatalf("admit %s: %v", sid, err)
		}
	}
	err := r.Admit(room, "z", NewMemberSession("z", &stubConn{}), member("z"))
	if !errors.Is(err, domain.ErrRoomFull) {
		t.Fatalf("got %v, want ErrRoomFull", err)
	}
	if r.MemberCount() != 2 || hasMember(r, "z") {
		t.Fatalf("membership changed after rejected admit")
	}

	// re-admitting a present member is not a new seat
	if err := r.Admit(room, "x", NewMemberSession("x", &stubConn{}), member("x2")); err != nil {
		t.Fatalf("re-admit: %v", err)
	}
	if r.MemberCount() != 2 {
		t.Fatalf("count = %d after re-admit", r.MemberCount())
	}
}

func TestUnboundedRoom(t *testing.T) {
	room := domain.Room{Code: domain.DMRoomCode("r"), Kind: domain.RoomKindDM}
	r := NewRoomService(room)
	for i := 0; i < 50; i++ {
		sid := SessionID(fmt.Sprintf("s%d", i))
		if err := r.Admit(room, sid, NewMemberSession(sid, &stubConn{}), member(string(sid))); err != nil {
			t.Fatalf("admit: %v", err)
		}
	}
	if r.MemberCount() != 50 {
		t.Fatalf("count = %d", r.MemberCount())
	}
}

func TestSnapshotKeepsJoinOrder(t *testing.T) {
	room := domain.Room{Code: "R", Capacity: 10}
	r := NewRoomService(room)
	order := []SessionID{"c", "a", "d", "b"}
	for _, sid := range order {
		_ = r.Admit(room, sid, NewMemberSession(sid, &stubConn{}), member(string(sid)))
	}
	r.RemoveMember("a")
	_ = r.Admit(room, "a", NewMemberSession("a", &stubConn{}), member("a"))

	want := []SessionID{"c", "d", "b", "a"}
	snap := r.MembersSnapshot()
	if len(snap) != len(want) {
		t.Fatalf("len = %d", len(snap))
	}
	for i, s := range snap {
		if s.SID != want[i] {
			t.Errorf("snap[%d] = %s, want %s", i, s.SID, want[i])
		}
	}
}

func TestBroadcastIsolatesFailures(t *testing.T) {
	room := domain.Room{Code: "R", Capacity: 10}
	r := NewRoomService(room)
	a, b, c := &stubConn{}, &stubConn{fail: true}, &stubConn{}
	_ = r.Admit(room, "a", NewMemberSession("a", a), member("a"))
	_ = r.Admit(room, "b", NewMemberSession("b", b), member("b"))
	_ = r.Admit(room, "c", NewMemberSession("c", c), member("c"))

	res := r.Broadcast("", Frame(`{}`))
	if res.SendTo != 2 {
		t.Errorf("SendTo = %d, want 2", res.SendTo)
	}
	if len(res.Dropped) != 1 || res.Dropped[0].SID != "b" {
		t.Errorf("Dropped = %+v", res.Dropped)
	}
	if a.count() != 1 || c.count() != 1 {
		t.Errorf("healthy members missed the frame")
	}

	res = r.Broadcast("a", Frame(`{}`))
	if a.count() != 1 || c.count() != 2 || res.SendTo != 1 {
		t.Errorf("exclude not honoured: a=%d c=%d", a.count(), c.count())
	}
}

func TestRemoveMember(t *testing.T) {
	room := domain.Room{Code: "R", Capacity: 1}
	r := NewRoomService(room)
	_ = r.Admit(room, "a", NewMemberSession("a", &stubConn{}), member("Ann"))

	m, ok := r.RemoveMember("a")
	if !ok || m.User.DisplayName != "Ann" {
		t.Fatalf("RemoveMember = %+v, %v", m, ok)
	}
	if _, ok := r.RemoveMember("a"); ok {
		t.Fatal("second remove reported ok")
	}
	if err := r.Admit(room, "b", NewMemberSession("b", &stubConn{}), member("b")); err != nil {
		t.Fatalf("seat not released: %v", err)
	}
}
