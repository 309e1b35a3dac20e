package mongo

import (
	"time"

	"github.com/dkeye/Meet/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	meetingsCollection  = "meetingrooms"
	breakoutsCollection = "breakoutrooms"
	messagesCollection  = "messages"
)

type meetingDoc struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Title        string               `bson:"title"`
	Code         string               `bson:"code"`
	Host         primitive.ObjectID   `bson:"host"`
	Capacity     int                  `bson:"capacity"`
	Participants []primitive.ObjectID `bson:"participants"`
	IsActive     bool                 `bson:"isActive"`
}

type breakoutDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	ParentMeeting primitive.ObjectID `bson:"parentMeeting"`
	RoomName      string             `bson:"roomName"`
	RoomCode      string             `bson:"roomCode"`
	Capacity      int                `bson:"capacity"`
	Status        string             `bson:"status"`
}

type messageDoc struct {
	Sender    any                `bson:"sender"`
	Meeting   primitive.ObjectID `bson:"meeting,omitempty"`
	Content   string             `bson:"content"`
	Type      string             `bson:"type"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type chatEntryDoc struct {
	User      any       `bson:"user"`
	Message   string    `bson:"message"`
	Timestamp time.Time `bson:"timestamp"`
}

// userRef stores user ids as ObjectIDs when they look like one.
func userRef(id domain.UserID) any {
	if oid, err := primitive.ObjectIDFromHex(string(id)); err == nil {
		return oid
	}
	return string(id)
}

func (d *meetingDoc) toDomain() *domain.Meeting {
	m := &domain.Meeting{
		ID:       d.ID.Hex(),
		Code:     domain.RoomCode(d.Code),
		Title:    d.Title,
		HostID:   domain.UserID(d.Host.Hex()),
		Capacity: d.Capacity,
		Active:   d.IsActive,
	}
	if m.Capacity <= 0 {
		m.Capacity = domain.DefaultMeetingCapacity
	}
	m.Participants = make([]domain.UserID, 0, len(d.Participants))
	for _, p := range d.Participants {
		m.Participants = append(m.Participants, domain.UserID(p.Hex()))
	}
	return m
}

func (d *breakoutDoc) toDomain(parent *domain.Meeting) *domain.BreakoutRoom {
	b := &domain.BreakoutRoom{
		ID:       d.ID.Hex(),
		Code:     domain.RoomCode(d.RoomCode),
		Name:     d.RoomName,
		Capacity: d.Capacity,
		Status:   domain.BreakoutStatus(d.Status),
		Parent:   parent,
	}
	if b.Capacity <= 0 {
		b.Capacity = domain.DefaultBreakoutCapacity
	}
	return b
}
