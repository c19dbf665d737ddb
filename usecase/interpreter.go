package usecase

import (
	"encoding/json"
	"strings"
)

// AcceptMarker is the control token the backend embeds to signal a deal. It
// is detected in backend output only — buyer text is never scanned — and it
// never survives into buyer-visible text.
const AcceptMarker = "DEAL_ACCEPTED"

// verdict is the JSON contract the system prompt asks the backend to follow.
type verdict struct {
	Decision      string `json:"decision"`
	DetectedPrice int    `json:"detected_price"`
	CounterPrice  int    `json:"counter_price"`
	Reply         string `json:"response_content"`
}

// Interpret translates a raw backend reply into a typed Decision. The JSON
// verdict is the primary path; when the backend drifts into free text, the
// acceptance marker is the only remaining signal and its absence simply means
// "no deal yet".
func Interpret(raw string) Decision {
	text := strings.TrimSpace(raw)

	if v, ok := parseVerdict(text); ok {
		reply := stripMarker(v.Reply)
		switch strings.ToUpper(strings.TrimSpace(v.Decision)) {
		case "ACCEPT", "AGREEMENT", "DEAL":
			return Accept{Price: v.DetectedPrice, Text: reply}
		case "COUNTER":
			return Counter{Price: v.CounterPrice, Text: reply}
		case "NETT", "NET":
			return Counter{Nett: true, Text: reply}
		case "REJECT":
			return Reject{Text: reply}
		default:
			return Clarify{Text: reply}
		}
	}

	if strings.Contains(text, AcceptMarker) {
		return Accept{Text: stripMarker(text)}
	}
	return Clarify{Text: text}
}

// parseVerdict extracts the JSON object from text, tolerating markdown fences
// and prose around it.
func parseVerdict(text string) (verdict, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return verdict{}, false
	}

	var v verdict
	if err := json.Unmarshal([]byte(text[start:end+1]), &v); err != nil {
		return verdict{}, false
	}
	if strings.TrimSpace(v.Decision) == "" {
		return verdict{}, false
	}
	return v, true
}

func stripMarker(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, AcceptMarker, ""))
}
