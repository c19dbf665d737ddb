package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tawarin-backend/apperr"
	"tawarin-backend/model"
	"tawarin-backend/pkg/llm"
	"tawarin-backend/telemetry"
)

// memDB backs the in-memory store fakes. Agreement recording flips the
// session state in the same step, mirroring the real transactional store.
type memDB struct {
	mu         sync.Mutex
	products   map[string]*model.Product
	sessions   map[string]*model.NegotiationSession
	turns      map[string][]model.Turn
	agreements map[string]*model.Agreement
}

func newMemDB(products ...*model.Product) *memDB {
	db := &memDB{
		products:   map[string]*model.Product{},
		sessions:   map[string]*model.NegotiationSession{},
		turns:      map[string][]model.Turn{},
		agreements: map[string]*model.Agreement{},
	}
	for _, p := range products {
		db.products[p.ID] = p
	}
	return db
}

func copySession(s *model.NegotiationSession) *model.NegotiationSession {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

type fakeProducts struct{ db *memDB }

func (f fakeProducts) GetByID(ctx context.Context, id string) (*model.Product, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return f.db.products[id], nil
}

func (f fakeProducts) GetAll(ctx context.Context) ([]model.Product, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Product
	for _, p := range f.db.products {
		out = append(out, *p)
	}
	return out, nil
}

func (f fakeProducts) Insert(ctx context.Context, p *model.Product) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.products[p.ID] = p
	return nil
}

type fakeSessions struct{ db *memDB }

func (f fakeSessions) FindOpen(ctx context.Context, buyerID, productID string) (*model.NegotiationSession, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, s := range f.db.sessions {
		if s.BuyerID == buyerID && s.ProductID == productID && s.State == model.SessionOpen {
			return copySession(s), nil
		}
	}
	return nil, nil
}

func (f fakeSessions) FindLatest(ctx context.Context, buyerID, productID string) (*model.NegotiationSession, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var latest *model.NegotiationSession
	for _, s := range f.db.sessions {
		if s.BuyerID == buyerID && s.ProductID == productID {
			if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
				latest = s
			}
		}
	}
	return copySession(latest), nil
}

func (f fakeSessions) GetByID(ctx context.Context, id string) (*model.NegotiationSession, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return copySession(f.db.sessions[id]), nil
}

func (f fakeSessions) Insert(ctx context.Context, sess *model.NegotiationSession) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, s := range f.db.sessions {
		if s.BuyerID == sess.BuyerID && s.ProductID == sess.ProductID && s.State == model.SessionOpen {
			return apperr.Conflict("open session already exists")
		}
	}
	f.db.sessions[sess.ID] = copySession(sess)
	return nil
}

func (f fakeSessions) UpdateState(ctx context.Context, id string, from, to model.SessionState) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.sessions[id]
	if !ok || s.State != from {
		return false, nil
	}
	s.State = to
	return true, nil
}

type fakeTurns struct{ db *memDB }

func (f fakeTurns) List(ctx context.Context, sessionID string) ([]model.Turn, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := make([]model.Turn, len(f.db.turns[sessionID]))
	copy(out, f.db.turns[sessionID])
	return out, nil
}

func (f fakeTurns) AppendExchange(ctx context.Context, sessionID, buyerText, agentText string, proposedPrice *int) (model.Turn, model.Turn, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	seq := len(f.db.turns[sessionID])
	now := time.Now()
	buyer := model.Turn{SessionID: sessionID, Seq: seq, Speaker: model.SpeakerBuyer, Text: buyerText, CreatedAt: now}
	agent := model.Turn{SessionID: sessionID, Seq: seq + 1, Speaker: model.SpeakerAgent, Text: agentText, ProposedPrice: proposedPrice, CreatedAt: now}
	f.db.turns[sessionID] = append(f.db.turns[sessionID], buyer, agent)
	return buyer, agent, nil
}

type fakeAgreements struct{ db *memDB }

func (f fakeAgreements) Record(ctx context.Context, sessionID string, finalPrice int) (*model.Agreement, bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if existing, ok := f.db.agreements[sessionID]; ok {
		return existing, false, nil
	}
	a := &model.Agreement{SessionID: sessionID, FinalPrice: finalPrice, CreatedAt: time.Now()}
	f.db.agreements[sessionID] = a
	if s, ok := f.db.sessions[sessionID]; ok {
		s.State = model.SessionDealt
	}
	return a, true, nil
}

func (f fakeAgreements) GetBySessionID(ctx context.Context, sessionID string) (*model.Agreement, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return f.db.agreements[sessionID], nil
}

func newTestUsecase(db *memDB, client llm.Client) *NegotiationUsecase {
	metrics := telemetry.NewMetrics(prometheus.NewRegistry())
	engine := NewPolicyEngine(client, "test-model", 5*time.Second, testLogger(), metrics)
	return NewNegotiationUsecase(
		fakeProducts{db}, fakeSessions{db}, fakeTurns{db}, fakeAgreements{db},
		engine, testLogger(), metrics,
	)
}

const (
	acceptVerdict  = `{"decision": "ACCEPT", "detected_price": 80000, "response_content": "Sip bos, deal! DEAL_ACCEPTED"}`
	counterVerdict = `{"decision": "COUNTER", "counter_price": 90000, "response_content": "Gimana kalau 90000 bos?"}`
	rejectVerdict  = `{"decision": "REJECT", "response_content": "Waduh, belum bisa segitu bos."}`
)

func TestExchangeAcceptFlow(t *testing.T) {
	db := newMemDB(testProduct())
	uc := newTestUsecase(db, llm.NewMockClient(llm.MockResponse{Content: acceptVerdict}))
	ctx := context.Background()

	result, err := uc.Exchange(ctx, "buyer-1", "prod-1", "80000 deal ga")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if !result.Accepted {
		t.Errorf("Accepted = false, want true")
	}
	if result.Agreement == nil || result.Agreement.FinalPrice != 80000 {
		t.Fatalf("Agreement = %#v, want final price 80000", result.Agreement)
	}

	turns, err := uc.History(ctx, "buyer-1", "prod-1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("turns = %d, want 2", len(turns))
	}
	if turns[0].Seq != 0 || turns[0].Speaker != model.SpeakerBuyer {
		t.Errorf("turn 0 = %+v, want buyer at seq 0", turns[0])
	}
	if turns[1].Seq != 1 || turns[1].Speaker != model.SpeakerAgent {
		t.Errorf("turn 1 = %+v, want agent at seq 1", turns[1])
	}
	if turns[1].ProposedPrice == nil || *turns[1].ProposedPrice != 80000 {
		t.Errorf("agent proposed price = %v, want 80000", turns[1].ProposedPrice)
	}

	sess := db.sessions[result.Session.ID]
	if sess.State != model.SessionDealt {
		t.Errorf("session state = %s, want DEALT", sess.State)
	}
}

func TestExchangeOnDealtSessionConflicts(t *testing.T) {
	db := newMemDB(testProduct())
	uc := newTestUsecase(db, llm.NewMockClient(llm.MockResponse{Content: acceptVerdict}))
	ctx := context.Background()

	if _, err := uc.Exchange(ctx, "buyer-1", "prod-1", "80000 deal ga"); err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	_, err := uc.Exchange(ctx, "buyer-1", "prod-1", "eh jadinya 75000 deh")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("Exchange() on DEALT session error = %v, want KindConflict", err)
	}

	turns, _ := uc.History(ctx, "buyer-1", "prod-1")
	if len(turns) != 2 {
		t.Errorf("transcript grew to %d turns after conflict, want 2", len(turns))
	}
}

func TestExchangeSequenceContiguity(t *testing.T) {
	db := newMemDB(testProduct())
	uc := newTestUsecase(db, llm.NewMockClient(
		llm.MockResponse{Content: rejectVerdict},
		llm.MockResponse{Content: counterVerdict},
		llm.MockResponse{Content: acceptVerdict},
	))
	ctx := context.Background()

	for _, msg := range []string{"mau 50000", "75000 gimana", "oke 80000 deal"} {
		if _, err := uc.Exchange(ctx, "buyer-1", "prod-1", msg); err != nil {
			t.Fatalf("Exchange(%q) error = %v", msg, err)
		}
	}

	turns, err := uc.History(ctx, "buyer-1", "prod-1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(turns) != 6 {
		t.Fatalf("turns = %d, want 6", len(turns))
	}
	for i, turn := range turns {
		if turn.Seq != i {
			t.Errorf("turn %d has seq %d, want %d", i, turn.Seq, i)
		}
		want := model.SpeakerBuyer
		if i%2 == 1 {
			want = model.SpeakerAgent
		}
		if turn.Speaker != want {
			t.Errorf("turn %d speaker = %s, want %s", i, turn.Speaker, want)
		}
	}
}

func TestExchangeBackendFailureLeavesNoTrace(t *testing.T) {
	db := newMemDB(testProduct())
	uc := newTestUsecase(db, llm.NewMockClient(llm.MockResponse{Error: errors.New("timeout")}))
	ctx := context.Background()

	_, err := uc.Exchange(ctx, "buyer-1", "prod-1", "halo bang")
	if !apperr.Is(err, apperr.KindBackend) {
		t.Fatalf("Exchange() error = %v, want KindBackend", err)
	}

	turns, _ := uc.History(ctx, "buyer-1", "prod-1")
	if len(turns) != 0 {
		t.Errorf("transcript has %d turns after backend failure, want 0", len(turns))
	}
}

func TestExchangeFloorNeverVisible(t *testing.T) {
	// Run a whole conversation, including verdicts that try to leak the
	// floor, and assert no buyer-visible text ever contains it.
	db := newMemDB(testProduct())
	uc := newTestUsecase(db, llm.NewMockClient(
		llm.MockResponse{Content: `{"decision": "REJECT", "response_content": "Modal saya 70000 bos, ga bisa."}`},
		llm.MockResponse{Content: `{"decision": "COUNTER", "counter_price": 70000, "response_content": "Mentok di Rp 70.000 nih."}`},
		llm.MockResponse{Content: acceptVerdict},
	))
	ctx := context.Background()

	for _, msg := range []string{"mau 50000", "yaudah naik dikit", "oke 80000"} {
		result, err := uc.Exchange(ctx, "buyer-1", "prod-1", msg)
		if err != nil {
			t.Fatalf("Exchange(%q) error = %v", msg, err)
		}
		if strings.Contains(result.Reply, "70000") || strings.Contains(result.Reply, "70.000") {
			t.Errorf("reply to %q leaks floor: %q", msg, result.Reply)
		}
	}

	turns, _ := uc.History(ctx, "buyer-1", "prod-1")
	for _, turn := range turns {
		if turn.Speaker == model.SpeakerAgent &&
			(strings.Contains(turn.Text, "70000") || strings.Contains(turn.Text, "70.000")) {
			t.Errorf("stored agent turn leaks floor: %q", turn.Text)
		}
	}
}

func TestResolveConcurrentCreatesOneSession(t *testing.T) {
	db := newMemDB(testProduct())
	uc := newTestUsecase(db, llm.NewMockClient(llm.MockResponse{Content: rejectVerdict}))
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 20)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, err := uc.Resolve(ctx, "buyer-1", "prod-1")
			if err != nil {
				t.Errorf("Resolve() error = %v", err)
				return
			}
			ids[i] = sess.ID
		}(i)
	}
	wg.Wait()

	if len(db.sessions) != 1 {
		t.Fatalf("sessions created = %d, want 1", len(db.sessions))
	}
	for _, id := range ids {
		if id != ids[0] {
			t.Errorf("resolved session ids diverge: %q vs %q", id, ids[0])
		}
	}
}

func TestResolveReturnsTerminalSessionAsIs(t *testing.T) {
	db := newMemDB(testProduct())
	uc := newTestUsecase(db, llm.NewMockClient(llm.MockResponse{Content: acceptVerdict}))
	ctx := context.Background()

	result, err := uc.Exchange(ctx, "buyer-1", "prod-1", "80000 deal")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	sess, err := uc.Resolve(ctx, "buyer-1", "prod-1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if sess.ID != result.Session.ID {
		t.Errorf("Resolve() returned %q, want dealt session %q", sess.ID, result.Session.ID)
	}
	if sess.State != model.SessionDealt {
		t.Errorf("state = %s, want DEALT", sess.State)
	}
	if len(db.sessions) != 1 {
		t.Errorf("sessions = %d, want no new session after deal", len(db.sessions))
	}
}

func TestResolveUnknownProduct(t *testing.T) {
	db := newMemDB()
	uc := newTestUsecase(db, llm.NewMockClient())

	_, err := uc.Resolve(context.Background(), "buyer-1", "nope")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("Resolve() error = %v, want KindNotFound", err)
	}
}

func TestResolveBrokenEconomics(t *testing.T) {
	db := newMemDB(&model.Product{ID: "broken", Name: "x", ListPrice: 100, FloorPrice: 500})
	uc := newTestUsecase(db, llm.NewMockClient())

	_, err := uc.Resolve(context.Background(), "buyer-1", "broken")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("Resolve() error = %v, want KindValidation", err)
	}
}

func TestExchangeEmptyMessage(t *testing.T) {
	db := newMemDB(testProduct())
	uc := newTestUsecase(db, llm.NewMockClient())

	_, err := uc.Exchange(context.Background(), "buyer-1", "prod-1", "  \n ")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("Exchange() error = %v, want KindValidation", err)
	}
}

func TestHistoryWithoutSession(t *testing.T) {
	db := newMemDB(testProduct())
	uc := newTestUsecase(db, llm.NewMockClient())

	turns, err := uc.History(context.Background(), "buyer-1", "prod-1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if turns == nil || len(turns) != 0 {
		t.Errorf("History() = %#v, want empty slice", turns)
	}
}

func TestAbandon(t *testing.T) {
	db := newMemDB(testProduct())
	uc := newTestUsecase(db, llm.NewMockClient(llm.MockResponse{Content: counterVerdict}))
	ctx := context.Background()

	if _, err := uc.Exchange(ctx, "buyer-1", "prod-1", "75000 bisa?"); err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	if err := uc.Abandon(ctx, "buyer-1", "prod-1"); err != nil {
		t.Fatalf("Abandon() error = %v", err)
	}

	// Abandoned session is read-only; a second abandon finds nothing open.
	if err := uc.Abandon(ctx, "buyer-1", "prod-1"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("second Abandon() error = %v, want KindNotFound", err)
	}
	if _, err := uc.Exchange(ctx, "buyer-1", "prod-1", "eh balik lagi"); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("Exchange() after abandon error = %v, want KindConflict", err)
	}

	turns, _ := uc.History(ctx, "buyer-1", "prod-1")
	if len(turns) != 2 {
		t.Errorf("transcript = %d turns after abandon, want 2 untouched", len(turns))
	}
}

func TestAgreementLookup(t *testing.T) {
	db := newMemDB(testProduct())
	uc := newTestUsecase(db, llm.NewMockClient(llm.MockResponse{Content: acceptVerdict}))
	ctx := context.Background()

	result, err := uc.Exchange(ctx, "buyer-1", "prod-1", "80000 deal")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	a, err := uc.Agreement(ctx, result.Session.ID)
	if err != nil {
		t.Fatalf("Agreement() error = %v", err)
	}
	if a.FinalPrice != 80000 {
		t.Errorf("final price = %d, want 80000", a.FinalPrice)
	}

	if _, err := uc.Agreement(ctx, "missing"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Agreement(missing) error = %v, want KindNotFound", err)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	db := newMemDB(testProduct(), &model.Product{ID: "prod-2", Name: "Tas", ListPrice: 50000, FloorPrice: 30000})
	uc := newTestUsecase(db, llm.NewMockClient(llm.MockResponse{Content: rejectVerdict}))
	ctx := context.Background()

	if _, err := uc.Exchange(ctx, "buyer-1", "prod-1", "mau 50000"); err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if _, err := uc.Exchange(ctx, "buyer-1", "prod-2", "mau 10000"); err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	if len(db.sessions) != 2 {
		t.Fatalf("sessions = %d, want one per (buyer, product) pair", len(db.sessions))
	}
	t1, _ := uc.History(ctx, "buyer-1", "prod-1")
	t2, _ := uc.History(ctx, "buyer-1", "prod-2")
	if len(t1) != 2 || len(t2) != 2 {
		t.Errorf("transcripts = %d and %d turns, want 2 each", len(t1), len(t2))
	}
}
