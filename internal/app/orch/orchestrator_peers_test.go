package orch

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"testing"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/protocol"
)

func TestMeshDiscovery(t *testing.T) {
	const n = 5
	h := newHarness(t)
	h.meeting("MESH01", 10)

	var sids []core.SessionID
	for i := 0; i < n; i++ {
		sid := core.SessionID(fmt.Sprintf("c%d", i))
		sids = append(sids, sid)
		h.connect(sid)
		h.mustJoin(sid, "MESH01", "u"+string(sid), "User "+string(sid))
		h.o.AnnounceReady(sid, "MESH01")
	}

	for _, sid := range sids {
		notices := received[protocol.PeerAvailable](t, h.conns[sid], protocol.TypePeerAvailable)
		if len(notices) != n-1 {
			t.Fatalf("%s got %d peer-available, want %d", sid, len(notices), n-1)
		}
		var peers []string
		for _, p := range notices {
			if p.PeerConnectionID == string(sid) {
				t.Errorf("%s was told about itself", sid)
			}
			if p.PeerInfo.RoomCode != "MESH01" || p.PeerInfo.DisplayName != "User "+p.PeerConnectionID {
				t.Errorf("bad peer info %+v", p)
			}
			peers = append(peers, p.PeerConnectionID)
		}
		sort.Strings(peers)
		var want []string
		for _, other := range sids {
			if other != sid {
				want = append(want, string(other))
			}
		}
		if !slices.Equal(peers, want) {
			t.Errorf("%s peers = %v, want %v", sid, peers, want)
		}
	}
}

func TestAnnounceReadyCounts(t *testing.T) {
	h := newHarness(t)
	h.meeting("ABC123", 10)
	for _, sid := range []core.SessionID{"a", "b", "c"} {
		h.connect(sid)
		h.mustJoin(sid, "ABC123", string(sid), string(sid))
	}
	for _, c := range h.conns {
		c.reset()
	}

	// the registry room wins over a stale claim
	if got := h.o.AnnounceReady("c", "OTHER0"); got != 2 {
		t.Fatalf("peers = %d, want 2", got)
	}
	if got := len(received[protocol.PeerAvailable](t, h.conns["c"], protocol.TypePeerAvailable)); got != 2 {
		t.Errorf("newcomer got %d notices", got)
	}
	for _, sid := range []core.SessionID{"a", "b"} {
		got := received[protocol.PeerAvailable](t, h.conns[sid], protocol.TypePeerAvailable)
		if len(got) != 1 || got[0].PeerConnectionID != "c" {
			t.Errorf("%s got %+v", sid, got)
		}
	}

	h.connect("lonely")
	if got := h.o.AnnounceReady("lonely", "ABC123"); got != 0 {
		t.Errorf("roomless announce reached %d peers", got)
	}
	if len(h.conns["lonely"].envelopes(t)) != 0 {
		t.Error("roomless connection got notices")
	}
}

func TestRelayDeliversPayloadUnchanged(t *testing.T) {
	h := newHarness(t)
	h.connect("s1")
	s2 := h.connect("s2")
	payload := json.RawMessage(`{"sdp":{"type":"offer","sdp":"v=0\r\n<a=x>"}}`)

	if err := h.o.Relay("s1", "s2", payload); err != nil {
		t.Fatal(err)
	}
	got := received[protocol.Signal](t, s2, protocol.TypeSignal)
	if len(got) != 1 {
		t.Fatalf("got %d signals", len(got))
	}
	if got[0].From != "s1" || got[0].To != "" {
		t.Errorf("addressing = %+v", got[0])
	}
	if string(got[0].Data) != string(payload) {
		t.Errorf("data = %s, want %s", got[0].Data, payload)
	}
	if len(h.conns["s1"].envelopes(t)) != 0 {
		t.Error("sender got its own signal")
	}
}

func TestRelayKeepsPairOrder(t *testing.T) {
	h := newHarness(t)
	h.connect("s1")
	s2 := h.connect("s2")
	for i := 0; i < 20; i++ {
		_ = h.o.Relay("s1", "s2", json.RawMessage(fmt.Sprintf(`{"seq":%d}`, i)))
	}
	got := received[protocol.Signal](t, s2, protocol.TypeSignal)
	for i, s := range got {
		if string(s.Data) != fmt.Sprintf(`{"seq":%d}`, i) {
			t.Fatalf("signal %d = %s", i, s.Data)
		}
	}
}

func TestRelayToDisconnectedTarget(t *testing.T) {
	h := newHarness(t)
	s1 := h.connect("s1")
	h.connect("s2")
	h.o.OnDisconnect("s2")

	err := h.o.Relay("s1", "s2", json.RawMessage(`{}`))
	if !errors.Is(err, domain.ErrRelayTargetMissing) {
		t.Fatalf("got %v", err)
	}
	if len(s1.envelopes(t)) != 0 {
		t.Errorf("sender notified: %v", s1.types(t))
	}
	if err := h.o.RelayDM("s1", "nobody", nil); !errors.Is(err, domain.ErrRelayTargetMissing) {
		t.Fatalf("dm relay: %v", err)
	}
}

func TestRelayDM(t *testing.T) {
	h := newHarness(t)
	h.connect("a")
	b := h.connect("b")
	if err := h.o.RelayDM("a", "b", json.RawMessage(`{"candidate":"x"}`)); err != nil {
		t.Fatal(err)
	}
	got := received[protocol.DMSignal](t, b, protocol.TypeDMSignal)
	if len(got) != 1 || got[0].From != "a" || string(got[0].Data) != `{"candidate":"x"}` {
		t.Fatalf("dm-signal = %+v", got)
	}
}
