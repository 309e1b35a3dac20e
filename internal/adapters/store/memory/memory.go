// Package memory is an in-process store for development and tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/google/uuid"
)

type breakoutDoc struct {
	room     domain.BreakoutRoom
	parentID string
	history  []domain.BreakoutChatEntry
}

type Store struct {
	mu        sync.RWMutex
	meetings  map[string]*domain.Meeting
	breakouts map[string]*breakoutDoc
	messages  []domain.ChatMessage

	// BeforeWrite, when set, runs ahead of every append. Returning an
	// error fails the write.
	BeforeWrite func(ctx context.Context) error
}

func New() *Store {
	return &Store{
		meetings:  make(map[string]*domain.Meeting),
		breakouts: make(map[string]*breakoutDoc),
	}
}

func cloneMeeting(m *domain.Meeting) *domain.Meeting {
	c := *m
	c.Participants = slices.Clone(m.Participants)
	return &c
}

// AddMeeting stores m and returns its id, generating one if empty.
func (s *Store) AddMeeting(m domain.Meeting) string {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Capacity <= 0 {
		m.Capacity = domain.DefaultMeetingCapacity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings[m.ID] = cloneMeeting(&m)
	return m.ID
}

// AddBreakoutRoom stores b under the meeting parentID and returns its id.
func (s *Store) AddBreakoutRoom(b domain.BreakoutRoom, parentID string) string {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Capacity <= 0 {
		b.Capacity = domain.DefaultBreakoutCapacity
	}
	if b.Status == "" {
		b.Status = domain.BreakoutCreated
	}
	b.Parent = nil
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breakouts[b.ID] = &breakoutDoc{room: b, parentID: parentID}
	return b.ID
}

// SetParticipants replaces a meeting's participant list.
func (s *Store) SetParticipants(meetingID string, ids ...domain.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.meetings[meetingID]; ok {
		m.Participants = slices.Clone(ids)
	}
}

func (s *Store) FindActiveMeetingByCode(_ context.Context, code domain.RoomCode) (*domain.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.meetings {
		if m.Code == code && m.Active {
			return cloneMeeting(m), nil
		}
	}
	return nil, domain.ErrRoomNotFound
}

func (s *Store) FindMeetingByID(_ context.Context, id string) (*domain.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meetings[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return cloneMeeting(m), nil
}

func (s *Store) FindBreakoutRoomByCode(_ context.Context, code domain.RoomCode) (*domain.BreakoutRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.breakouts {
		if doc.room.Code != code || !doc.room.Joinable() {
			continue
		}
		br := doc.room
		parent, ok := s.meetings[doc.parentID]
		if !ok {
			return nil, domain.ErrRoomNotFound
		}
		br.Parent = cloneMeeting(parent)
		return &br, nil
	}
	return nil, domain.ErrRoomNotFound
}

func (s *Store) ListActiveBreakoutRooms(_ context.Context, meetingID string) ([]domain.BreakoutRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.BreakoutRoom
	for _, doc := range s.breakouts {
		if doc.parentID == meetingID && doc.room.Status == domain.BreakoutActive {
			out = append(out, doc.room)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) PersistChatMessage(ctx context.Context, meetingID string, senderID domain.UserID, content string) error {
	if s.BeforeWrite != nil {
		if err := s.BeforeWrite(ctx); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, domain.ChatMessage{
		ID:        uuid.NewString(),
		SenderID:  senderID,
		MeetingID: meetingID,
		Content:   content,
		Type:      domain.MessageTypeText,
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *Store) AppendBreakoutChat(ctx context.Context, roomID string, entry domain.BreakoutChatEntry) error {
	if s.BeforeWrite != nil {
		if err := s.BeforeWrite(ctx); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.breakouts[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	doc.history = append(doc.history, entry)
	return nil
}

// Messages returns the persisted chat messages in write order.
func (s *Store) Messages() []domain.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages)
}

// BreakoutChat returns a breakout room's chat history.
func (s *Store) BreakoutChat(roomID string) []domain.BreakoutChatEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if doc, ok := s.breakouts[roomID]; ok {
		return slices.Clone(doc.history)
	}
	return nil
}

func (s *Store) Close(context.Context) error { return nil }
