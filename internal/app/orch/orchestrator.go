package orch

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/Meet/internal/app"
	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/protocol"
	"github.com/rs/zerolog/log"
)

const DefaultPersistTimeout = 5 * time.Second

// Orchestrator coordinates rooms and connections. Handlers for a single
// connection are expected to be called from that connection's reader
// goroutine; different connections may call in concurrently.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.Directory
	Policy   app.Policy
	Meetings core.MeetingStore
	Messages core.MessageStore

	// PersistTimeout bounds each detached store write.
	PersistTimeout time.Duration

	tasks sync.WaitGroup
}

func New(reg *app.Registry, rooms *app.Directory, policy app.Policy, store core.Store) *Orchestrator {
	return &Orchestrator{
		Registry:       reg,
		Rooms:          rooms,
		Policy:         policy,
		Meetings:       store,
		Messages:       store,
		PersistTimeout: DefaultPersistTimeout,
	}
}

// Wait blocks until every detached persistence task has finished.
func (o *Orchestrator) Wait() {
	o.tasks.Wait()
}

// detach runs fn in the background with its own deadline. Failures are
// logged and never reach the caller.
func (o *Orchestrator) detach(op string, fn func(ctx context.Context) error) {
	timeout := o.PersistTimeout
	if timeout <= 0 {
		timeout = DefaultPersistTimeout
	}
	o.tasks.Add(1)
	go func() {
		defer o.tasks.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("module", "orch").Str("op", op).Interface("panic", r).Msg("detached task panicked")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Error().Err(err).Str("module", "orch").Str("op", op).Msg("detached task failed")
		}
	}()
}

func encode(ev protocol.Event) (core.Frame, bool) {
	b, err := protocol.Encode(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("type", string(ev.EventType())).Msg("encode event")
		return nil, false
	}
	return core.Frame(b), true
}

// send delivers ev to a single connection.
func (o *Orchestrator) send(sid core.SessionID, ev protocol.Event) bool {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return false
	}
	return o.deliver(nil, sess, ev)
}

func (o *Orchestrator) deliver(room core.RoomService, sess core.MemberSession, ev protocol.Event) bool {
	data, ok := encode(ev)
	if !ok {
		return false
	}
	if err := sess.Signal().TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sess.ID())).
			Str("type", string(ev.EventType())).Msg("send failed")
		o.applyPolicy(room, []core.MemberSnapshot{{SID: sess.ID(), Session: sess}})
		return false
	}
	return true
}

// broadcast fans ev out to the live members of code, minus exclude.
func (o *Orchestrator) broadcast(code domain.RoomCode, exclude core.SessionID, ev protocol.Event) core.PublishResult {
	room, ok := o.Rooms.Get(code)
	if !ok {
		return core.PublishResult{}
	}
	data, ok := encode(ev)
	if !ok {
		return core.PublishResult{}
	}
	res := room.Broadcast(exclude, data)
	o.applyPolicy(room, res.Dropped)
	return res
}

func (o *Orchestrator) applyPolicy(room core.RoomService, dropped []core.MemberSnapshot) {
	if o.Policy == nil {
		return
	}
	for _, slow := range dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("sid", string(slow.SID)).Msg("kicking slow member")
			o.KickBySID(slow.SID)
		case app.MarkSlow, app.DropFrame, app.NoAction:
		}
	}
}

// KickBySID cancels the connection. The transport then closes and the
// reader goroutine runs OnDisconnect.
func (o *Orchestrator) KickBySID(sid core.SessionID) bool {
	return o.Registry.Cancel(sid)
}

// ListRooms returns the live room listing.
func (o *Orchestrator) ListRooms() []core.RoomInfo {
	return o.Rooms.List()
}

// RoomDetail returns a live room and its members.
func (o *Orchestrator) RoomDetail(code domain.RoomCode) (core.RoomDetail, bool) {
	return o.Rooms.Detail(code)
}

// Connections is the number of open signaling connections.
func (o *Orchestrator) Connections() int {
	return o.Registry.Count()
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
