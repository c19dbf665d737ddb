package usecase

// Decision is the closed set of outcomes an exchange can produce. It is built
// once at the reply-interpreter boundary; nothing downstream inspects raw
// backend text.
type Decision interface {
	decision()
	// Kind names the variant for logs and metrics.
	Kind() string
	// VisibleText is the buyer-facing reply. It never contains the acceptance
	// marker or the floor price.
	VisibleText() string
}

// Accept closes the negotiation at Price.
type Accept struct {
	Price int
	Text  string
}

// Counter proposes Price without closing the negotiation. Nett marks the
// fixed best-price discount rather than a haggling counter.
type Counter struct {
	Price int
	Nett  bool
	Text  string
}

// Reject declines the buyer's offer.
type Reject struct {
	Text string
}

// Clarify is a reply that takes no price position (answers a question,
// small talk, or an uninterpretable backend reply).
type Clarify struct {
	Text string
}

func (Accept) decision()  {}
func (Counter) decision() {}
func (Reject) decision()  {}
func (Clarify) decision() {}

func (Accept) Kind() string  { return "accept" }
func (Counter) Kind() string { return "counter" }
func (Reject) Kind() string  { return "reject" }
func (Clarify) Kind() string { return "clarify" }

func (d Accept) VisibleText() string  { return d.Text }
func (d Counter) VisibleText() string { return d.Text }
func (d Reject) VisibleText() string  { return d.Text }
func (d Clarify) VisibleText() string { return d.Text }
