package app

import (
	"sort"
	"sync"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
)

// Directory maps room codes to live rooms. Rooms appear on first admission
// and disappear when the last member leaves.
type Directory struct {
	mu    sync.Mutex
	rooms map[domain.RoomCode]core.RoomService
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[domain.RoomCode]core.RoomService)}
}

// Admit seats sid in room, creating the live room if needed. The count
// check and the insert happen under the directory lock, so concurrent
// joins never overshoot capacity.
func (d *Directory) Admit(room domain.Room, sid core.SessionID, ms core.MemberSession, meta domain.Member) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	rs, ok := d.rooms[room.Code]
	created := !ok
	if created {
		rs = core.NewRoomService(room)
	}
	if err := rs.Admit(room, sid, ms, meta); err != nil {
		return err
	}
	if created {
		d.rooms[room.Code] = rs
		log.Info().Str("module", "app.directory").Str("room", string(room.Code)).
			Str("kind", string(room.Kind)).Msg("room opened")
	}
	return nil
}

// Remove takes sid out of the room and drops the room once empty.
func (d *Directory) Remove(code domain.RoomCode, sid core.SessionID) (domain.Member, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rs, ok := d.rooms[code]
	if !ok {
		return domain.Member{}, false
	}
	meta, removed := rs.RemoveMember(sid)
	if rs.MemberCount() == 0 {
		delete(d.rooms, code)
		log.Info().Str("module", "app.directory").Str("room", string(code)).Msg("room closed")
	}
	return meta, removed
}

func (d *Directory) Get(code domain.RoomCode) (core.RoomService, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rs, ok := d.rooms[code]
	return rs, ok
}

// Detail returns the live room code with its members, if it exists.
func (d *Directory) Detail(code domain.RoomCode) (core.RoomDetail, bool) {
	rs, ok := d.Get(code)
	if !ok {
		return core.RoomDetail{}, false
	}
	members := rs.MembersDTO()
	return core.RoomDetail{
		RoomInfo: info(code, rs.Room(), len(members)),
		Members:  members,
	}, true
}

func info(code domain.RoomCode, room domain.Room, count int) core.RoomInfo {
	return core.RoomInfo{
		Code:        code,
		Kind:        room.Kind,
		MemberCount: count,
		Capacity:    room.Capacity,
	}
}

func (d *Directory) List() []core.RoomInfo {
	d.mu.Lock()
	out := make([]core.RoomInfo, 0, len(d.rooms))
	for code, rs := range d.rooms {
		out = append(out, info(code, rs.Room(), rs.MemberCount()))
	}
	d.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
