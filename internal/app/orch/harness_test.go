package orch

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/Meet/internal/adapters/store/memory"
	"github.com/dkeye/Meet/internal/app"
	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/protocol"
)

var errClosed = errors.New("closed")

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClosed
	}
	if c.full {
		return errors.New("backpressure")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) envelopes(t *testing.T) []protocol.Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]protocol.Envelope, 0, len(c.frames))
	for _, f := range c.frames {
		var env protocol.Envelope
		if err := json.Unmarshal(f, &env); err != nil {
			t.Fatalf("bad frame %s: %v", f, err)
		}
		out = append(out, env)
	}
	return out
}

func (c *fakeConn) types(t *testing.T) []protocol.Type {
	t.Helper()
	var out []protocol.Type
	for _, env := range c.envelopes(t) {
		out = append(out, env.Type)
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

// received decodes every payload of type typ that c got.
func received[T any](t *testing.T, c *fakeConn, typ protocol.Type) []T {
	t.Helper()
	var out []T
	for _, env := range c.envelopes(t) {
		if env.Type != typ {
			continue
		}
		var v T
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			t.Fatalf("decode %s payload %s: %v", typ, env.Payload, err)
		}
		out = append(out, v)
	}
	return out
}

type harness struct {
	t     *testing.T
	o     *Orchestrator
	store *memory.Store
	conns map[core.SessionID]*fakeConn
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.New()
	o := New(app.NewRegistry(), app.NewDirectory(), app.SimplePolicy{}, store)
	t.Cleanup(o.Wait)
	return &harness{t: t, o: o, store: store, conns: make(map[core.SessionID]*fakeConn)}
}

func (h *harness) connect(sid core.SessionID) *fakeConn {
	conn := &fakeConn{}
	h.conns[sid] = conn
	member := domain.NewMember(domain.User{}, "ct-"+string(sid))
	h.o.Registry.BindSignal(sid, core.NewMemberSession(sid, conn), member, conn.Close)
	return conn
}

func (h *harness) meeting(code domain.RoomCode, capacity int, participants ...domain.UserID) string {
	return h.store.AddMeeting(domain.Meeting{
		Code:         code,
		HostID:       "host",
		Capacity:     capacity,
		Participants: participants,
		Active:       true,
	})
}

func (h *harness) mustJoin(sid core.SessionID, code domain.RoomCode, userID, name string) {
	h.t.Helper()
	if err := h.o.Join(h.t.Context(), sid, code, userID, name); err != nil {
		h.t.Fatalf("join %s -> %s: %v", sid, code, err)
	}
}

func (h *harness) members(code domain.RoomCode) []core.SessionID {
	detail, _ := h.o.Rooms.Detail(code)
	var out []core.SessionID
	for _, m := range detail.Members {
		out = append(out, m.SID)
	}
	return out
}
