package dao

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"tawarin-backend/apperr"
	"tawarin-backend/model"
)

const mysqlErrDuplicateEntry = 1062

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// FindOpen returns the OPEN session for the pair, or nil when none exists.
func (r *SessionRepository) FindOpen(ctx context.Context, buyerID, productID string) (*model.NegotiationSession, error) {
	query := `
		SELECT id, buyer_id, product_id, state, created_at
		FROM negotiation_sessions
		WHERE buyer_id = ? AND product_id = ? AND state = 'OPEN'
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, buyerID, productID))
}

// FindLatest returns the most recent session for the pair in any state, or
// nil when the pair has never negotiated.
func (r *SessionRepository) FindLatest(ctx context.Context, buyerID, productID string) (*model.NegotiationSession, error) {
	query := `
		SELECT id, buyer_id, product_id, state, created_at
		FROM negotiation_sessions
		WHERE buyer_id = ? AND product_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, buyerID, productID))
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*model.NegotiationSession, error) {
	query := `
		SELECT id, buyer_id, product_id, state, created_at
		FROM negotiation_sessions
		WHERE id = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// Insert creates a new session. A concurrent insert for the same OPEN pair
// trips the uq_open_session key and comes back as a Conflict.
func (r *SessionRepository) Insert(ctx context.Context, sess *model.NegotiationSession) error {
	query := `
		INSERT INTO negotiation_sessions (id, buyer_id, product_id, state, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, sess.ID, sess.BuyerID, sess.ProductID, sess.State, sess.CreatedAt)
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry {
		return apperr.Conflict("open session already exists for buyer %s product %s", sess.BuyerID, sess.ProductID)
	}
	return err
}

// UpdateState performs a guarded state transition and reports whether a row
// actually moved. A false return means the session was not in `from`.
func (r *SessionRepository) UpdateState(ctx context.Context, id string, from, to model.SessionState) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE negotiation_sessions SET state = ? WHERE id = ? AND state = ?`, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SessionRepository) scanOne(row *sql.Row) (*model.NegotiationSession, error) {
	var s model.NegotiationSession
	err := row.Scan(&s.ID, &s.BuyerID, &s.ProductID, &s.State, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &s, nil
}
