package protocol

import "github.com/pion/webrtc/v4"

// ShouldDefer reports whether self is the polite side of the pair. The
// lexicographically smaller id defers: when offers collide it rolls back
// and accepts the peer's offer. Equal ids never defer.
func ShouldDefer(self, peer string) bool {
	return self < peer
}

type OfferDecision int

const (
	AcceptOffer OfferDecision = iota
	IgnoreOffer
)

func (d OfferDecision) String() string {
	if d == IgnoreOffer {
		return "ignore"
	}
	return "accept"
}

// OfferCollision reports whether an incoming description collides with a
// negotiation this side already started.
func OfferCollision(incoming webrtc.SDPType, state webrtc.SignalingState, makingOffer bool) bool {
	if incoming != webrtc.SDPTypeOffer {
		return false
	}
	return makingOffer || state != webrtc.SignalingStateStable
}

// ResolveOffer applies the politeness rule to an incoming description.
// Answers and non-colliding offers are always accepted.
func ResolveOffer(self, peer string, incoming webrtc.SDPType, state webrtc.SignalingState, makingOffer bool) OfferDecision {
	if !OfferCollision(incoming, state, makingOffer) {
		return AcceptOffer
	}
	if ShouldDefer(self, peer) {
		return AcceptOffer
	}
	return IgnoreOffer
}
