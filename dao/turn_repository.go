package dao

import (
	"context"
	"database/sql"
	"time"

	"tawarin-backend/model"
)

type TurnRepository struct {
	db *sql.DB
}

func NewTurnRepository(db *sql.DB) *TurnRepository {
	return &TurnRepository{db: db}
}

// List returns the full transcript for a session, oldest first.
func (r *TurnRepository) List(ctx context.Context, sessionID string) ([]model.Turn, error) {
	query := `
		SELECT session_id, seq, speaker, text, proposed_price, created_at
		FROM turns
		WHERE session_id = ?
		ORDER BY seq ASC
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []model.Turn
	for rows.Next() {
		var t model.Turn
		var price sql.NullInt64
		if err := rows.Scan(&t.SessionID, &t.Seq, &t.Speaker, &t.Text, &price, &t.CreatedAt); err != nil {
			return nil, err
		}
		if price.Valid {
			v := int(price.Int64)
			t.ProposedPrice = &v
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// AppendExchange commits a buyer turn and the agent reply as one transaction
// with consecutive sequence numbers. The buyer turn is never persisted
// without its reply, so a replayed List always sees a well-formed history.
func (r *TurnRepository) AppendExchange(ctx context.Context, sessionID, buyerText, agentText string, proposedPrice *int) (model.Turn, model.Turn, error) {
	var buyer, agent model.Turn

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return buyer, agent, err
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq) + 1, 0) FROM turns WHERE session_id = ? FOR UPDATE`,
		sessionID).Scan(&next)
	if err != nil {
		return buyer, agent, err
	}

	now := time.Now()
	buyer = model.Turn{
		SessionID: sessionID,
		Seq:       next,
		Speaker:   model.SpeakerBuyer,
		Text:      buyerText,
		CreatedAt: now,
	}
	agent = model.Turn{
		SessionID:     sessionID,
		Seq:           next + 1,
		Speaker:       model.SpeakerAgent,
		Text:          agentText,
		ProposedPrice: proposedPrice,
		CreatedAt:     now.Add(time.Microsecond),
	}

	insert := `
		INSERT INTO turns (session_id, seq, speaker, text, proposed_price, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for _, t := range []model.Turn{buyer, agent} {
		var price sql.NullInt64
		if t.ProposedPrice != nil {
			price = sql.NullInt64{Int64: int64(*t.ProposedPrice), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, insert, t.SessionID, t.Seq, t.Speaker, t.Text, price, t.CreatedAt); err != nil {
			return buyer, agent, err
		}
	}

	if err := tx.Commit(); err != nil {
		return buyer, agent, err
	}
	return buyer, agent, nil
}
