package usecase

import (
	"context"

	"tawarin-backend/model"
)

// Storage interfaces consumed by the usecases and implemented by dao. Kept
// narrow so tests can substitute in-memory fakes.

type ProductStore interface {
	GetByID(ctx context.Context, id string) (*model.Product, error)
	GetAll(ctx context.Context) ([]model.Product, error)
	Insert(ctx context.Context, p *model.Product) error
}

type SessionStore interface {
	FindOpen(ctx context.Context, buyerID, productID string) (*model.NegotiationSession, error)
	FindLatest(ctx context.Context, buyerID, productID string) (*model.NegotiationSession, error)
	GetByID(ctx context.Context, id string) (*model.NegotiationSession, error)
	Insert(ctx context.Context, sess *model.NegotiationSession) error
	UpdateState(ctx context.Context, id string, from, to model.SessionState) (bool, error)
}

type TurnStore interface {
	List(ctx context.Context, sessionID string) ([]model.Turn, error)
	// AppendExchange commits the buyer turn and the agent reply atomically
	// with consecutive sequence numbers.
	AppendExchange(ctx context.Context, sessionID, buyerText, agentText string, proposedPrice *int) (model.Turn, model.Turn, error)
}

type AgreementStore interface {
	// Record inserts the agreement and flips the session to DEALT, or returns
	// the existing agreement when one is already present (created=false).
	Record(ctx context.Context, sessionID string, finalPrice int) (agreement *model.Agreement, created bool, err error)
	GetBySessionID(ctx context.Context, sessionID string) (*model.Agreement, error)
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Insert(ctx context.Context, user *model.User) error
}
