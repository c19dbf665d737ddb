package dao

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tawarin-backend/model"
)

type AgreementRepository struct {
	db *sql.DB
}

func NewAgreementRepository(db *sql.DB) *AgreementRepository {
	return &AgreementRepository{db: db}
}

// Record inserts the agreement for a session and flips the session to DEALT
// in the same transaction. When an agreement already exists the call is a
// no-op that returns the existing record; the second return value reports
// whether this call created it.
func (r *AgreementRepository) Record(ctx context.Context, sessionID string, finalPrice int) (*model.Agreement, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO agreements (session_id, final_price, created_at) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE session_id = session_id`,
		sessionID, finalPrice, now)
	if err != nil {
		return nil, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	if n == 0 {
		// Lost the race (or replayed). Surface the winner's record unchanged.
		agreement, err := scanAgreement(tx.QueryRowContext(ctx,
			`SELECT session_id, final_price, created_at FROM agreements WHERE session_id = ?`, sessionID))
		if err != nil {
			return nil, false, err
		}
		return agreement, false, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE negotiation_sessions SET state = 'DEALT' WHERE id = ? AND state = 'OPEN'`,
		sessionID); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return &model.Agreement{SessionID: sessionID, FinalPrice: finalPrice, CreatedAt: now}, true, nil
}

// GetBySessionID returns the agreement for a session, or nil when none exists.
func (r *AgreementRepository) GetBySessionID(ctx context.Context, sessionID string) (*model.Agreement, error) {
	a, err := scanAgreement(r.db.QueryRowContext(ctx,
		`SELECT session_id, final_price, created_at FROM agreements WHERE session_id = ?`, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func scanAgreement(row *sql.Row) (*model.Agreement, error) {
	var a model.Agreement
	if err := row.Scan(&a.SessionID, &a.FinalPrice, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
