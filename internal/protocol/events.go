// Package protocol defines the signaling wire vocabulary: a closed set of
// event variants carried in a {"type","payload"} envelope.
package protocol

import "encoding/json"

type Type string

const (
	TypeJoinRoom      Type = "join-room"
	TypeJoinConfirmed Type = "join-confirmed"
	TypeJoinFailed    Type = "join-failed"
	TypeLeaveRoom     Type = "leave-room"
	TypeLeft          Type = "left"
	TypeMemberJoined  Type = "member-joined"
	TypeMemberLeft    Type = "member-left"
	TypeAnnounceReady Type = "announce-ready"
	TypePeerAvailable Type = "peer-available"
	TypePeerGone      Type = "peer-gone"
	TypeSignal        Type = "signal"
	TypeChat          Type = "chat"
	TypeRaiseHand     Type = "raise-hand"
	TypeMediaState    Type = "media-state"
	TypeYouTubeSync   Type = "youtube-sync"
	TypeHostBroadcast Type = "host-broadcast"
	TypeDMJoin        Type = "dm-join"
	TypeDMPeerJoined  Type = "dm-peer-joined"
	TypeDMSignal      Type = "dm-signal"
	TypeDMChat        Type = "dm-chat"
	TypePing          Type = "ping"
	TypePong          Type = "pong"
	TypeError         Type = "error"
)

// Event is implemented by every payload variant.
type Event interface {
	EventType() Type
}

type JoinRoom struct {
	RoomCode    string `json:"roomCode"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type JoinConfirmed struct {
	RoomCode string `json:"roomCode"`
}

type JoinFailed struct {
	Reason string `json:"reason"`
}

type LeaveRoom struct{}

type Left struct {
	RoomCode string `json:"roomCode"`
}

type MemberJoined struct {
	DisplayName string `json:"displayName"`
}

type MemberLeft struct {
	DisplayName string `json:"displayName"`
}

type AnnounceReady struct {
	RoomCode string `json:"roomCode"`
}

type PeerInfo struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	RoomCode    string `json:"roomCode"`
}

type PeerAvailable struct {
	PeerConnectionID string   `json:"peerConnectionId"`
	PeerInfo         PeerInfo `json:"peerInfo"`
}

type PeerGone struct {
	PeerConnectionID string `json:"peerConnectionId"`
}

// Signal carries an opaque negotiation payload. Clients fill To, the
// server rewrites it into From on delivery.
type Signal struct {
	To   string          `json:"to,omitempty"`
	From string          `json:"from,omitempty"`
	Data json.RawMessage `json:"data"`
}

type Chat struct {
	Message           string `json:"message"`
	SenderDisplayName string `json:"senderDisplayName,omitempty"`
	SenderID          string `json:"senderId,omitempty"`
	// At is unix milliseconds, set by the server.
	At int64 `json:"at,omitempty"`
}

type RaiseHand struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type MediaState struct {
	VideoEnabled       bool   `json:"videoEnabled"`
	AudioEnabled       bool   `json:"audioEnabled"`
	UserID             string `json:"userId,omitempty"`
	DisplayName        string `json:"displayName,omitempty"`
	SenderConnectionID string `json:"senderConnectionId,omitempty"`
}

type YouTubeSync struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type HostBroadcast struct {
	Message string `json:"message"`
}

// DMJoin and friends carry the client's user object untouched.
type DMJoin struct {
	RoomID string          `json:"roomId"`
	User   json.RawMessage `json:"user,omitempty"`
}

type DMPeerJoined struct {
	ID   string          `json:"id"`
	User json.RawMessage `json:"user,omitempty"`
}

type DMSignal struct {
	To   string          `json:"to,omitempty"`
	From string          `json:"from,omitempty"`
	Data json.RawMessage `json:"data"`
}

type DMChat struct {
	Message string          `json:"message"`
	User    json.RawMessage `json:"user,omitempty"`
	At      int64           `json:"at,omitempty"`
}

type Ping struct{}

type Pong struct{}

type Error struct {
	Error string `json:"error"`
}

func (JoinRoom) EventType() Type      { return TypeJoinRoom }
func (JoinConfirmed) EventType() Type { return TypeJoinConfirmed }
func (JoinFailed) EventType() Type    { return TypeJoinFailed }
func (LeaveRoom) EventType() Type     { return TypeLeaveRoom }
func (Left) EventType() Type          { return TypeLeft }
func (MemberJoined) EventType() Type  { return TypeMemberJoined }
func (MemberLeft) EventType() Type    { return TypeMemberLeft }
func (AnnounceReady) EventType() Type { return TypeAnnounceReady }
func (PeerAvailable) EventType() Type { return TypePeerAvailable }
func (PeerGone) EventType() Type      { return TypePeerGone }
func (Signal) EventType() Type        { return TypeSignal }
func (Chat) EventType() Type          { return TypeChat }
func (RaiseHand) EventType() Type     { return TypeRaiseHand }
func (MediaState) EventType() Type    { return TypeMediaState }
func (YouTubeSync) EventType() Type   { return TypeYouTubeSync }
func (HostBroadcast) EventType() Type { return TypeHostBroadcast }
func (DMJoin) EventType() Type        { return TypeDMJoin }
func (DMPeerJoined) EventType() Type  { return TypeDMPeerJoined }
func (DMSignal) EventType() Type      { return TypeDMSignal }
func (DMChat) EventType() Type        { return TypeDMChat }
func (Ping) EventType() Type          { return TypePing }
func (Pong) EventType() Type          { return TypePong }
func (Error) EventType() Type         { return TypeError }
