// Package postgres is the relational alternative to the MongoDB store.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *pgxpool.Pool
}

func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	log.Info().Str("module", "store.postgres").Msg("connected")
	return New(pool), nil
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const meetingColumns = `id, code, title, host_id, capacity, participants, is_active`

func scanMeeting(row pgx.Row) (*domain.Meeting, error) {
	var (
		m            domain.Meeting
		code, host   string
		participants []string
	)
	if err := row.Scan(&m.ID, &code, &m.Title, &host, &m.Capacity, &participants, &m.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	m.Code = domain.RoomCode(code)
	m.HostID = domain.UserID(host)
	m.Participants = make([]domain.UserID, 0, len(participants))
	for _, p := range participants {
		m.Participants = append(m.Participants, domain.UserID(p))
	}
	return &m, nil
}

func (s *Store) FindActiveMeetingByCode(ctx context.Context, code domain.RoomCode) (*domain.Meeting, error) {
	row := s.db.QueryRow(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE code = $1 AND is_active`, string(code))
	return scanMeeting(row)
}

func (s *Store) FindMeetingByID(ctx context.Context, id string) (*domain.Meeting, error) {
	row := s.db.QueryRow(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = $1`, id)
	return scanMeeting(row)
}

func (s *Store) FindBreakoutRoomByCode(ctx context.Context, code domain.RoomCode) (*domain.BreakoutRoom, error) {
	var (
		br       domain.BreakoutRoom
		roomCode string
		status   string
		parentID string
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, room_code, room_name, capacity, status, parent_meeting_id
		FROM breakout_rooms
		WHERE room_code = $1 AND status IN ('created', 'active')`, string(code)).
		Scan(&br.ID, &roomCode, &br.Name, &br.Capacity, &status, &parentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	br.Code = domain.RoomCode(roomCode)
	br.Status = domain.BreakoutStatus(status)

	parent, err := s.FindMeetingByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	br.Parent = parent
	return &br, nil
}

func (s *Store) ListActiveBreakoutRooms(ctx context.Context, meetingID string) ([]domain.BreakoutRoom, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, room_code, room_name, capacity, status
		FROM breakout_rooms
		WHERE parent_meeting_id = $1 AND status = 'active'
		ORDER BY room_code`, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BreakoutRoom
	for rows.Next() {
		var (
			br           domain.BreakoutRoom
			code, status string
		)
		if err := rows.Scan(&br.ID, &code, &br.Name, &br.Capacity, &status); err != nil {
			return nil, err
		}
		br.Code = domain.RoomCode(code)
		br.Status = domain.BreakoutStatus(status)
		out = append(out, br)
	}
	return out, rows.Err()
}

func (s *Store) PersistChatMessage(ctx context.Context, meetingID string, senderID domain.UserID, content string) error {
	var meeting *string
	if meetingID != "" {
		meeting = &meetingID
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO messages (id, meeting_id, sender_id, content, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), meeting, string(senderID), content, domain.MessageTypeText, time.Now())
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *Store) AppendBreakoutChat(ctx context.Context, roomID string, entry domain.BreakoutChatEntry) error {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO breakout_chat_history (room_id, user_id, message, created_at)
		SELECT id, $2, $3, $4 FROM breakout_rooms WHERE id = $1`,
		roomID, string(entry.UserID), entry.Message, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("append chat history: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	s.db.Close()
	return nil
}
