package app

import "github.com/dkeye/Meet/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

// Policy decides what happens to a member whose send queue is full.
// room is nil for direct sends outside a room fan-out.
type Policy interface {
	OnBackPressure(room core.RoomService, member core.MemberSnapshot) BackpressureAction
}

// SimplePolicy disconnects slow members.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(room core.RoomService, member core.MemberSnapshot) BackpressureAction {
	return KickMember
}

// LenientPolicy only drops the frame.
type LenientPolicy struct{}

func (LenientPolicy) OnBackPressure(room core.RoomService, member core.MemberSnapshot) BackpressureAction {
	return DropFrame
}
