package core

import (
	"sort"
	"sync"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
)

type roomMember struct {
	seq     uint64
	session MemberSession
	meta    domain.Member
}

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	mu      sync.RWMutex
	room    domain.Room
	bySID   map[SessionID]*roomMember
	nextSeq uint64
}

func NewRoomService(room domain.Room) RoomService {
	return &roomImpl{
		room:  room,
		bySID: make(map[SessionID]*roomMember),
	}
}

func (r *roomImpl) Room() domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.room
}

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

func (r *roomImpl) Admit(room domain.Room, sid SessionID, ms MemberSession, meta domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Capacity may have been edited since the room was first opened.
	r.room = room
	if m, ok := r.bySID[sid]; ok {
		m.session = ms
		m.meta = meta
		return nil
	}
	if !room.Unbounded() && len(r.bySID) >= room.Capacity {
		log.Info().Str("module", "core.room").Str("room", string(room.Code)).Str("sid", string(sid)).
			Int("capacity", room.Capacity).Msg("room full")
		return domain.ErrRoomFull
	}
	r.nextSeq++
	r.bySID[sid] = &roomMember{seq: r.nextSeq, session: ms, meta: meta}
	log.Info().Str("module", "core.room").Str("room", string(room.Code)).Str("sid", string(sid)).
		Int("count", len(r.bySID)).Msg("member added")
	return nil
}

func (r *roomImpl) RemoveMember(sid SessionID) (domain.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.bySID[sid]
	if !ok {
		return domain.Member{}, false
	}
	delete(r.bySID, sid)
	log.Info().Str("module", "core.room").Str("room", string(r.room.Code)).Str("sid", string(sid)).
		Int("count", len(r.bySID)).Msg("member removed")
	return m.meta, true
}

// snapshotLocked returns members in join order. Caller holds r.mu.
func (r *roomImpl) snapshotLocked() []MemberSnapshot {
	members := make([]*roomMember, 0, len(r.bySID))
	sids := make(map[*roomMember]SessionID, len(r.bySID))
	for sid, m := range r.bySID {
		members = append(members, m)
		sids[m] = sid
	}
	sort.Slice(members, func(i, j int) bool { return members[i].seq < members[j].seq })
	out := make([]MemberSnapshot, 0, len(members))
	for _, m := range members {
		out = append(out, MemberSnapshot{SID: sids[m], Session: m.session, Member: m.meta})
	}
	return out
}

func (r *roomImpl) MembersSnapshot() []MemberSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *roomImpl) MembersDTO() []MemberDTO {
	snap := r.MembersSnapshot()
	out := make([]MemberDTO, 0, len(snap))
	for _, s := range snap {
		out = append(out, MemberDTO{SID: s.SID, UserID: s.Member.User.ID, DisplayName: s.Member.DisplayName()})
	}
	return out
}

// Broadcast fans data out to every member except exclude. A failing
// recipient never stops delivery to the rest.
func (r *roomImpl) Broadcast(exclude SessionID, data Frame) PublishResult {
	r.mu.RLock()
	snap := r.snapshotLocked()
	code := r.room.Code
	r.mu.RUnlock()

	res := PublishResult{}
	for _, m := range snap {
		if m.SID == exclude {
			continue
		}
		if err := m.Session.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(code)).Str("exclude", string(exclude)).
		Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
