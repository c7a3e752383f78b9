package chatbot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Exchange is one user/bot message pair in a session transcript.
type Exchange struct {
	SessionID   string    `json:"session_id"`
	UserMessage string    `json:"user_message"`
	BotMessage  string    `json:"bot_message"`
	Medicines   []string  `json:"medicines"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists the append-only transcript.
type Store interface {
	Append(ctx context.Context, ex Exchange) error
	History(ctx context.Context, sessionID string) ([]Exchange, error)
}

// Conf implements Store over postgres.
type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

func (c *Conf) Append(ctx context.Context, ex Exchange) error {
	meds, err := json.Marshal(ex.Medicines)
	if err != nil {
		return fmt.Errorf("marshaling medicines: %w", err)
	}
	if ex.Medicines == nil {
		meds = []byte("[]")
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO chat_messages (session_id, user_message, bot_message, medicines)
		VALUES ($1, $2, $3, $4)
	`, ex.SessionID, ex.UserMessage, ex.BotMessage, meds)
	if err != nil {
		return fmt.Errorf("inserting chat message: %w", err)
	}
	return nil
}

// History returns the session's exchanges oldest first.
func (c *Conf) History(ctx context.Context, sessionID string) ([]Exchange, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT session_id, user_message, bot_message, medicines, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at, id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying chat history: %w", err)
	}
	defer rows.Close()

	var history []Exchange
	for rows.Next() {
		var ex Exchange
		var meds []byte
		if err := rows.Scan(&ex.SessionID, &ex.UserMessage, &ex.BotMessage, &meds, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		if err := json.Unmarshal(meds, &ex.Medicines); err != nil {
			return nil, fmt.Errorf("decoding medicines: %w", err)
		}
		history = append(history, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat history: %w", err)
	}
	return history, nil
}
