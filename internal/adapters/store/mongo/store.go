// Package mongo reads meetings and breakout rooms from the application's
// MongoDB database and appends chat messages to it.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	client    *mongo.Client
	meetings  *mongo.Collection
	breakouts *mongo.Collection
	messages  *mongo.Collection
}

// Connect dials uri and verifies the server is reachable.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	log.Info().Str("module", "store.mongo").Str("database", database).Msg("connected")
	s := New(client.Database(database))
	s.client = client
	return s, nil
}

func New(db *mongo.Database) *Store {
	return &Store{
		meetings:  db.Collection(meetingsCollection),
		breakouts: db.Collection(breakoutsCollection),
		messages:  db.Collection(messagesCollection),
	}
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrRoomNotFound
	}
	return err
}

func (s *Store) FindActiveMeetingByCode(ctx context.Context, code domain.RoomCode) (*domain.Meeting, error) {
	var doc meetingDoc
	err := s.meetings.FindOne(ctx, bson.M{"code": string(code), "isActive": true}).Decode(&doc)
	if err != nil {
		return nil, notFound(err)
	}
	return doc.toDomain(), nil
}

func (s *Store) FindMeetingByID(ctx context.Context, id string) (*domain.Meeting, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrRoomNotFound
	}
	var doc meetingDoc
	if err := s.meetings.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.toDomain(), nil
}

func (s *Store) FindBreakoutRoomByCode(ctx context.Context, code domain.RoomCode) (*domain.BreakoutRoom, error) {
	filter := bson.M{
		"roomCode": string(code),
		"status":   bson.M{"$in": bson.A{string(domain.BreakoutCreated), string(domain.BreakoutActive)}},
	}
	var doc breakoutDoc
	if err := s.breakouts.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	var parent meetingDoc
	if err := s.meetings.FindOne(ctx, bson.M{"_id": doc.ParentMeeting}).Decode(&parent); err != nil {
		return nil, notFound(err)
	}
	return doc.toDomain(parent.toDomain()), nil
}

func (s *Store) ListActiveBreakoutRooms(ctx context.Context, meetingID string) ([]domain.BreakoutRoom, error) {
	oid, err := primitive.ObjectIDFromHex(meetingID)
	if err != nil {
		return nil, domain.ErrRoomNotFound
	}
	cur, err := s.breakouts.Find(ctx, bson.M{"parentMeeting": oid, "status": string(domain.BreakoutActive)},
		options.Find().SetSort(bson.D{{Key: "roomCode", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []breakoutDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.BreakoutRoom, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].toDomain(nil))
	}
	return out, nil
}

func (s *Store) PersistChatMessage(ctx context.Context, meetingID string, senderID domain.UserID, content string) error {
	now := time.Now()
	doc := messageDoc{
		Sender:    userRef(senderID),
		Content:   content,
		Type:      domain.MessageTypeText,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if oid, err := primitive.ObjectIDFromHex(meetingID); err == nil {
		doc.Meeting = oid
	}
	if _, err := s.messages.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *Store) AppendBreakoutChat(ctx context.Context, roomID string, entry domain.BreakoutChatEntry) error {
	oid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return domain.ErrRoomNotFound
	}
	update := bson.M{"$push": bson.M{"chatHistory": chatEntryDoc{
		User:      userRef(entry.UserID),
		Message:   entry.Message,
		Timestamp: entry.Timestamp,
	}}}
	res, err := s.breakouts.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("append chat history: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
