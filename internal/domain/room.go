package domain

import "slices"

type (
	RoomCode string
	RoomKind string
)

const (
	RoomKindMeeting  RoomKind = "meeting"
	RoomKindBreakout RoomKind = "breakout"
	RoomKindDM       RoomKind = "dm"
)

const (
	DefaultMeetingCapacity  = 250
	DefaultBreakoutCapacity = 10

	dmPrefix = "dm:"
)

// Room is the live, in-memory view of something connections can join.
// Capacity 0 means unbounded.
type Room struct {
	Code     RoomCode
	Kind     RoomKind
	Capacity int
	// MeetingID is the meeting document chat messages are attached to.
	// For breakout rooms it is the parent meeting.
	MeetingID string
	// RoomID is the store document id of the room itself.
	RoomID string
}

func (r Room) Unbounded() bool { return r.Capacity <= 0 }

// DMRoomCode namespaces direct-message rooms away from meeting codes.
func DMRoomCode(id string) RoomCode { return RoomCode(dmPrefix + id) }

type Meeting struct {
	ID           string
	Code         RoomCode
	Title        string
	HostID       UserID
	Capacity     int
	Participants []UserID
	Active       bool
}

func (m *Meeting) HasParticipant(id UserID) bool {
	return slices.Contains(m.Participants, id)
}

func (m *Meeting) Room() Room {
	capacity := m.Capacity
	if capacity <= 0 {
		capacity = DefaultMeetingCapacity
	}
	return Room{
		Code:      m.Code,
		Kind:      RoomKindMeeting,
		Capacity:  capacity,
		MeetingID: m.ID,
		RoomID:    m.ID,
	}
}

type BreakoutStatus string

const (
	BreakoutCreated BreakoutStatus = "created"
	BreakoutActive  BreakoutStatus = "active"
	BreakoutClosed  BreakoutStatus = "closed"
	BreakoutMerged  BreakoutStatus = "merged"
)

type BreakoutRoom struct {
	ID       string
	Code     RoomCode
	Name     string
	Capacity int
	Status   BreakoutStatus
	// Parent is populated by the store on lookup.
	Parent *Meeting
}

func (b *BreakoutRoom) Joinable() bool {
	return b.Status == BreakoutCreated || b.Status == BreakoutActive
}

func (b *BreakoutRoom) Room() Room {
	capacity := b.Capacity
	if capacity <= 0 {
		capacity = DefaultBreakoutCapacity
	}
	r := Room{
		Code:     b.Code,
		Kind:     RoomKindBreakout,
		Capacity: capacity,
		RoomID:   b.ID,
	}
	if b.Parent != nil {
		r.MeetingID = b.Parent.ID
	}
	return r
}
