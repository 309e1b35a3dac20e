package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownType = errors.New("unknown event type")
	ErrBadPayload  = errors.New("bad payload")
)

type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// marshal encodes without HTML escaping so relayed SDP survives unchanged.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Encode wraps ev in an envelope.
func Encode(ev Event) ([]byte, error) {
	payload, err := marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.EventType(), err)
	}
	return marshal(Envelope{Type: ev.EventType(), Payload: payload})
}

// Decode parses a client frame into one of the inbound variants. Only
// events a client may send are accepted; anything else is ErrUnknownType.
func Decode(frame []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	var ev Event
	switch env.Type {
	case TypeJoinRoom:
		ev = &JoinRoom{}
	case TypeLeaveRoom:
		ev = &LeaveRoom{}
	case TypeAnnounceReady:
		ev = &AnnounceReady{}
	case TypeSignal:
		ev = &Signal{}
	case TypeChat:
		ev = &Chat{}
	case TypeRaiseHand:
		ev = &RaiseHand{}
	case TypeMediaState:
		ev = &MediaState{}
	case TypeYouTubeSync:
		ev = &YouTubeSync{}
	case TypeDMJoin:
		ev = &DMJoin{}
	case TypeDMSignal:
		ev = &DMSignal{}
	case TypeDMChat:
		ev = &DMChat{}
	case TypePing:
		ev = &Ping{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return ev, nil
	}
	if err := json.Unmarshal(env.Payload, ev); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadPayload, env.Type, err)
	}
	return ev, nil
}
