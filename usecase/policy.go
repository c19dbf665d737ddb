package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"tawarin-backend/apperr"
	"tawarin-backend/model"
	"tawarin-backend/pkg/llm"
	"tawarin-backend/telemetry"
)

// FallbackReply is the in-persona line returned to the buyer when the
// generation backend fails or times out. Raw errors never reach the buyer.
const FallbackReply = "Sinyal lagi jelek nih bos, ulangi dong."

const nettDiscountPercent = 5

const (
	acceptLine      = "Sip bos, deal ya! Langsung checkout aja."
	rejectLine      = "Waduh bos, belum dapet segitu mah. Naikin dikit lagi ya."
	counterLineFmt  = "Gimana kalau Rp %s aja bos? Udah harga bagus itu."
	counterSafeLine = "Belum bisa segitu bos, naikin dikit lagi ya."
)

// PolicyEngine turns (product economics, history, buyer message) into a typed
// Decision via one bounded backend call. The backend is trusted for language
// and intent only; every price in its verdict is re-validated here against
// the hidden floor.
type PolicyEngine struct {
	client  llm.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

func NewPolicyEngine(client llm.Client, model string, timeout time.Duration, logger *slog.Logger, metrics *telemetry.Metrics) *PolicyEngine {
	return &PolicyEngine{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
}

// Evaluate runs one negotiation step. history must be ordered oldest-first.
// On backend failure or timeout it returns a KindBackend error and nothing
// has been written anywhere.
func (e *PolicyEngine) Evaluate(ctx context.Context, product *model.Product, history []model.Turn, buyerMessage string) (Decision, error) {
	if product.ListPrice <= 0 {
		return nil, apperr.Validation("product %s has non-positive list price", product.ID)
	}
	if product.FloorPrice < 0 || product.FloorPrice > product.ListPrice {
		return nil, apperr.Validation("product %s has floor price outside [0, list price]", product.ID)
	}
	if strings.TrimSpace(buyerMessage) == "" {
		return nil, apperr.Validation("buyer message is empty")
	}

	messages := make([]llm.Message, 0, len(history)+1)
	for _, t := range history {
		role := llm.RoleUser
		if t.Speaker == model.SpeakerAgent {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: t.Text})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: buyerMessage})

	temperature := 0.7
	req := llm.ChatRequest{
		Model:       e.model,
		System:      e.systemPrompt(product),
		Messages:    messages,
		MaxTokens:   300,
		Temperature: &temperature,
	}

	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	resp, err := e.client.Chat(cctx, req)
	e.metrics.BackendLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		e.metrics.BackendFailures.Inc()
		e.logger.Warn("generation backend failed", "product_id", product.ID, "error", err)
		return nil, apperr.Wrap(apperr.KindBackend, err)
	}

	return e.enforce(Interpret(resp.Content), product, history), nil
}

// enforce applies the server-side negotiation rules to the backend's verdict:
// no accept below the hidden floor, non-increasing counters strictly below
// the list price, a locally computed nett discount, and no floor disclosure
// in visible text.
func (e *PolicyEngine) enforce(d Decision, product *model.Product, history []model.Turn) Decision {
	floor, list := product.FloorPrice, product.ListPrice

	switch v := d.(type) {
	case Accept:
		price := v.Price
		if price == 0 {
			// Plain agreement ("ok deal") closes at the standing counter.
			price = lastAgentPrice(history)
		}
		if price == 0 {
			price = list
		}
		if price < floor {
			e.logger.Warn("backend accepted below floor, downgraded to reject",
				"product_id", product.ID, "price", price)
			return Reject{Text: scrubFloor(rejectLine, rejectLine, floor)}
		}
		return Accept{Price: price, Text: scrubFloor(v.Text, acceptLine, floor)}

	case Counter:
		price := v.Price
		if v.Nett {
			price = list - list*nettDiscountPercent/100
		}

		upper := list - 1
		if prev := lastAgentPrice(history); prev > 0 && prev < upper {
			upper = prev
		}
		// A counter equal to the floor would put the floor value in buyer-visible
		// text, so the lower bound is one above it.
		lower := floor + 1
		if upper < lower {
			return Reject{Text: scrubFloor(rejectLine, rejectLine, floor)}
		}
		if price <= 0 || price > upper {
			price = upper
		}
		if price < lower {
			price = lower
		}

		text := v.Text
		if text == "" {
			text = fmt.Sprintf(counterLineFmt, formatRupiah(price))
		}
		return Counter{Price: price, Nett: v.Nett, Text: scrubFloor(text, counterSafeLine, floor)}

	case Reject:
		return Reject{Text: scrubFloor(v.Text, rejectLine, floor)}

	case Clarify:
		return Clarify{Text: scrubFloor(v.Text, FallbackReply, floor)}
	}
	return d
}

func (e *PolicyEngine) systemPrompt(p *model.Product) string {
	return fmt.Sprintf(`PERAN: Kamu adalah 'Mang Asep', pedagang pasar legendaris yang ramah, sedikit kocak, tapi jago berhitung. Kamu mewakili penjual di aplikasi marketplace.

KONTEKS BARANG:
- Nama: %s
- Harga Jual: Rp %s
- Harga Modal (RAHASIA): Rp %s (Jangan pernah sebut angka ini ke pembeli!)

LOGIKA NEGOSIASI:
1. DEAL: Jika tawaran pembeli >= Harga Modal, decision "ACCEPT", isi detected_price dengan tawarannya, dan sertakan penanda "DEAL_ACCEPTED" di response_content.
2. TOLAK: Jika tawaran < Harga Modal, decision "REJECT". Tolak dengan sopan dan bercanda, tanpa menyebut angka modal.
3. TAWAR BALIK: Jika tawaran di atas Modal tapi masih jauh dari Harga Jual, decision "COUNTER" dengan counter_price sedikit di bawah Harga Jual. Jangan pernah menaikkan counter di atas tawaran balik kamu yang sebelumnya.
4. NETT: Jika pembeli tanya harga pas tanpa menawar, decision "NETT" (diskonnya dihitung server, kamu cukup jawab ramah).
5. Selain itu (tanya kondisi barang, basa-basi), decision "CLARIFY" dan jawab dengan membantu.

GAYA BAHASA:
- Bahasa Indonesia gaul (bos, gan, siap, waduh).
- Singkat, padat, dan langsung ke inti.

FORMAT OUTPUT: Balas HANYA dengan JSON:
{"decision": "ACCEPT"|"REJECT"|"COUNTER"|"NETT"|"CLARIFY", "detected_price": 0, "counter_price": 0, "response_content": "..."}`,
		p.Name, formatRupiah(p.ListPrice), formatRupiah(p.FloorPrice))
}

// lastAgentPrice returns the most recent price the agent put on the table,
// or 0 when it has not proposed one. Counters are non-increasing, so the
// last price is also the lowest.
func lastAgentPrice(history []model.Turn) int {
	for i := len(history) - 1; i >= 0; i-- {
		t := history[i]
		if t.Speaker == model.SpeakerAgent && t.ProposedPrice != nil {
			return *t.ProposedPrice
		}
	}
	return 0
}

// floorLeaks reports whether s contains the floor value, as raw digits or in
// id-ID grouped form.
func floorLeaks(s string, floor int) bool {
	if floor <= 0 {
		return false
	}
	return strings.Contains(s, strconv.Itoa(floor)) || strings.Contains(s, formatRupiah(floor))
}

// scrubFloor returns text unless it would disclose the floor, in which case
// the canned fallback is used. FallbackReply carries no digits at all.
func scrubFloor(text, fallback string, floor int) string {
	if strings.TrimSpace(text) == "" {
		text = fallback
	}
	if floorLeaks(text, floor) {
		if floorLeaks(fallback, floor) {
			return FallbackReply
		}
		return fallback
	}
	return text
}

// formatRupiah groups digits id-ID style: 95000 → "95.000".
func formatRupiah(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
