package core

import (
	"github.com/dkeye/Meet/internal/domain"
)

// MemberSnapshot is a point-in-time copy of one room member.
type MemberSnapshot struct {
	SID     SessionID
	Session MemberSession
	Member  domain.Member
}

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSnapshot
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	SID         SessionID     `json:"sid"`
	UserID      domain.UserID `json:"userId"`
	DisplayName string        `json:"displayName"`
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Room() domain.Room
	MemberCount() int
	MembersSnapshot() []MemberSnapshot
	MembersDTO() []MemberDTO

	// Admit adds the member unless the room is at capacity.
	// Re-admitting a present member only refreshes its meta.
	Admit(room domain.Room, sid SessionID, ms MemberSession, meta domain.Member) error
	RemoveMember(sid SessionID) (domain.Member, bool)
	Broadcast(exclude SessionID, data Frame) PublishResult
}

type RoomInfo struct {
	Code        domain.RoomCode `json:"code"`
	Kind        domain.RoomKind `json:"kind"`
	MemberCount int             `json:"member_count"`
	Capacity    int             `json:"capacity"`
}

// RoomDetail is one live room with its members in join order.
type RoomDetail struct {
	RoomInfo
	Members []MemberDTO `json:"members"`
}
