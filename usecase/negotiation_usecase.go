package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"tawarin-backend/apperr"
	"tawarin-backend/model"
	"tawarin-backend/telemetry"
)

// NegotiationUsecase orchestrates one exchange: resolve the session, read the
// transcript, run the policy engine, commit both turns, and record the deal
// on acceptance. Sessions are independent; within a session exchanges are
// serialized by a per-session mutex.
type NegotiationUsecase struct {
	products   ProductStore
	sessions   SessionStore
	turns      TurnStore
	agreements AgreementStore
	engine     *PolicyEngine
	logger     *slog.Logger
	metrics    *telemetry.Metrics

	resolves singleflight.Group
	locks    sync.Map // session id → *sync.Mutex
}

func NewNegotiationUsecase(
	products ProductStore,
	sessions SessionStore,
	turns TurnStore,
	agreements AgreementStore,
	engine *PolicyEngine,
	logger *slog.Logger,
	metrics *telemetry.Metrics,
) *NegotiationUsecase {
	return &NegotiationUsecase{
		products:   products,
		sessions:   sessions,
		turns:      turns,
		agreements: agreements,
		engine:     engine,
		logger:     logger,
		metrics:    metrics,
	}
}

// ExchangeResult is what the chat surface returns to the buyer.
type ExchangeResult struct {
	Session   *model.NegotiationSession
	Reply     string
	Accepted  bool
	Agreement *model.Agreement
}

// Resolve maps (buyer, product) to its negotiation session, creating an OPEN
// one on first contact. A DEALT or ABANDONED session is returned as-is;
// callers must treat it as read-only. Concurrent resolution is collapsed
// in-process and backed by the open-session uniqueness constraint.
func (u *NegotiationUsecase) Resolve(ctx context.Context, buyerID, productID string) (*model.NegotiationSession, error) {
	if buyerID == "" || productID == "" {
		return nil, apperr.Validation("buyer id and product id are required")
	}

	v, err, _ := u.resolves.Do(buyerID+"|"+productID, func() (any, error) {
		return u.resolve(ctx, buyerID, productID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.NegotiationSession), nil
}

func (u *NegotiationUsecase) resolve(ctx context.Context, buyerID, productID string) (*model.NegotiationSession, error) {
	sess, err := u.sessions.FindOpen(ctx, buyerID, productID)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return sess, nil
	}

	sess, err = u.sessions.FindLatest(ctx, buyerID, productID)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return sess, nil
	}

	product, err := u.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperr.NotFound("product %s not found", productID)
	}
	// Fatal at session creation: a product with broken economics never gets
	// a negotiation thread.
	if err := ValidateEconomics(product.ListPrice, product.FloorPrice); err != nil {
		return nil, err
	}

	sess = &model.NegotiationSession{
		ID:        newULID(),
		BuyerID:   buyerID,
		ProductID: productID,
		State:     model.SessionOpen,
		CreatedAt: time.Now(),
	}
	if err := u.sessions.Insert(ctx, sess); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			// Lost the creation race; adopt the winner's session.
			return u.adoptExisting(ctx, buyerID, productID)
		}
		return nil, err
	}
	u.logger.Info("session created", "session_id", sess.ID, "buyer_id", buyerID, "product_id", productID)
	return sess, nil
}

func (u *NegotiationUsecase) adoptExisting(ctx context.Context, buyerID, productID string) (*model.NegotiationSession, error) {
	sess, err := u.sessions.FindOpen(ctx, buyerID, productID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess, err = u.sessions.FindLatest(ctx, buyerID, productID)
		if err != nil {
			return nil, err
		}
	}
	if sess == nil {
		return nil, apperr.NotFound("session for buyer %s product %s not found", buyerID, productID)
	}
	return sess, nil
}

// Exchange processes one buyer message end to end. On backend failure it
// returns a KindBackend error and the transcript is untouched, so the buyer
// can simply resend.
func (u *NegotiationUsecase) Exchange(ctx context.Context, buyerID, productID, text string) (*ExchangeResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("message text is required")
	}

	sess, err := u.Resolve(ctx, buyerID, productID)
	if err != nil {
		return nil, err
	}
	if sess.State.Terminal() {
		return nil, apperr.Conflict("session %s is %s and read-only", sess.ID, sess.State)
	}

	mu := u.lockFor(sess.ID)
	mu.Lock()
	defer mu.Unlock()

	// Re-check under the lock; a concurrent accept may have closed the session.
	cur, err := u.sessions.GetByID(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, apperr.NotFound("session %s not found", sess.ID)
	}
	if cur.State.Terminal() {
		return nil, apperr.Conflict("session %s is %s and read-only", cur.ID, cur.State)
	}

	product, err := u.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperr.NotFound("product %s not found", productID)
	}

	history, err := u.turns.List(ctx, cur.ID)
	if err != nil {
		return nil, err
	}

	decision, err := u.engine.Evaluate(ctx, product, history, text)
	if err != nil {
		return nil, err
	}

	u.metrics.Exchanges.WithLabelValues(decision.Kind()).Inc()

	var proposed *int
	switch d := decision.(type) {
	case Accept:
		proposed = &d.Price
	case Counter:
		proposed = &d.Price
	}

	if _, _, err := u.turns.AppendExchange(ctx, cur.ID, text, decision.VisibleText(), proposed); err != nil {
		return nil, err
	}

	result := &ExchangeResult{Session: cur, Reply: decision.VisibleText()}

	if d, ok := decision.(Accept); ok {
		agreement, created, err := u.agreements.Record(ctx, cur.ID, d.Price)
		if err != nil {
			return nil, err
		}
		if created {
			u.metrics.Deals.Inc()
			u.logger.Info("deal recorded", "session_id", cur.ID, "final_price", agreement.FinalPrice)
		}
		cur.State = model.SessionDealt
		result.Accepted = true
		result.Agreement = agreement
	}

	return result, nil
}

// History returns the transcript for the pair's session, oldest first. A pair
// that never negotiated gets an empty transcript, not an error.
func (u *NegotiationUsecase) History(ctx context.Context, buyerID, productID string) ([]model.Turn, error) {
	if buyerID == "" || productID == "" {
		return nil, apperr.Validation("buyer id and product id are required")
	}

	sess, err := u.sessions.FindOpen(ctx, buyerID, productID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess, err = u.sessions.FindLatest(ctx, buyerID, productID)
		if err != nil {
			return nil, err
		}
	}
	if sess == nil {
		return []model.Turn{}, nil
	}
	return u.turns.List(ctx, sess.ID)
}

// Abandon closes the pair's OPEN session without an agreement. Committed
// turns stay immutable.
func (u *NegotiationUsecase) Abandon(ctx context.Context, buyerID, productID string) error {
	if buyerID == "" || productID == "" {
		return apperr.Validation("buyer id and product id are required")
	}

	sess, err := u.sessions.FindOpen(ctx, buyerID, productID)
	if err != nil {
		return err
	}
	if sess == nil {
		return apperr.NotFound("no open session for buyer %s product %s", buyerID, productID)
	}

	mu := u.lockFor(sess.ID)
	mu.Lock()
	defer mu.Unlock()

	moved, err := u.sessions.UpdateState(ctx, sess.ID, model.SessionOpen, model.SessionAbandoned)
	if err != nil {
		return err
	}
	if !moved {
		return apperr.Conflict("session %s already closed", sess.ID)
	}
	u.logger.Info("session abandoned", "session_id", sess.ID)
	return nil
}

// Agreement exposes the binding record for the checkout collaborator.
func (u *NegotiationUsecase) Agreement(ctx context.Context, sessionID string) (*model.Agreement, error) {
	if sessionID == "" {
		return nil, apperr.Validation("session id is required")
	}
	a, err := u.agreements.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound("no agreement for session %s", sessionID)
	}
	return a, nil
}

func (u *NegotiationUsecase) lockFor(sessionID string) *sync.Mutex {
	v, _ := u.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return v.(*sync.Mutex)
}
