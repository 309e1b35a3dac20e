package app

import (
	"context"
	"sync"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Session  core.MemberSession
	Member   domain.Member
	RoomCode domain.RoomCode
	DMRoom   domain.RoomCode
	Cancel   context.CancelFunc
}

// Registry is the per-connection bookkeeping: transport, identity and the
// rooms a connection currently belongs to.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
	}
}

// Entry is a detached copy of a registry record.
type Entry struct {
	SID      core.SessionID
	Session  core.MemberSession
	Member   domain.Member
	RoomCode domain.RoomCode
	DMRoom   domain.RoomCode
}

func (e *sessionEntry) snapshot(sid core.SessionID) Entry {
	return Entry{
		SID:      sid,
		Session:  e.Session,
		Member:   e.Member,
		RoomCode: e.RoomCode,
		DMRoom:   e.DMRoom,
	}
}

func (r *Registry) BindSignal(sid core.SessionID, sess core.MemberSession, member domain.Member, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Session: sess, Member: member, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound signal")
}

func (r *Registry) GetSession(sid core.SessionID) (core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Session, true
	}
	return nil, false
}

func (r *Registry) Get(sid core.SessionID) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return Entry{}, false
	}
	return e.snapshot(sid), true
}

func (r *Registry) Member(sid core.SessionID) (domain.Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Member, true
	}
	return domain.Member{}, false
}

func (r *Registry) UpdateMember(sid core.SessionID, member domain.Member) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.Member = member
	log.Debug().Str("module", "app.registry").Str("sid", string(sid)).
		Str("user", string(member.User.ID)).Msg("updated member")
	return true
}

func (r *Registry) RoomOf(sid core.SessionID) (domain.RoomCode, core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sid]
	if !ok || entry.RoomCode == "" {
		return "", nil, false
	}
	return entry.RoomCode, entry.Session, true
}

func (r *Registry) UpdateRoom(sid core.SessionID, code domain.RoomCode) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return false
	}
	entry.RoomCode = code
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(code)).Msg("updated room")
	return true
}

// RemoveRoom clears the primary room only if it still equals code.
func (r *Registry) RemoveRoom(sid core.SessionID, code domain.RoomCode) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok || entry.RoomCode != code {
		return false
	}
	entry.RoomCode = ""
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(code)).Msg("removed room association")
	return true
}

func (r *Registry) DMRoomOf(sid core.SessionID) (domain.RoomCode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sid]
	if !ok || entry.DMRoom == "" {
		return "", false
	}
	return entry.DMRoom, true
}

// UpdateDMRoom sets the DM room and returns the previous one.
func (r *Registry) UpdateDMRoom(sid core.SessionID, code domain.RoomCode) (domain.RoomCode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return "", false
	}
	prev := entry.DMRoom
	entry.DMRoom = code
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("dm_room", string(code)).Msg("updated dm room")
	return prev, true
}

// Unbind removes the entry and hands back its last state. Only the first
// call for a sid reports ok, so callers can use it as a run-once gate.
func (r *Registry) Unbind(sid core.SessionID) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return Entry{}, false
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
	return e.snapshot(sid), true
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
