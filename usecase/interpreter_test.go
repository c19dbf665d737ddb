package usecase

import (
	"strings"
	"testing"
)

func TestInterpretVerdicts(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Decision
	}{
		{
			name: "accept with detected price",
			raw:  `{"decision": "ACCEPT", "detected_price": 80000, "counter_price": 0, "response_content": "Sip bos, deal ya! DEAL_ACCEPTED"}`,
			want: Accept{Price: 80000, Text: "Sip bos, deal ya!"},
		},
		{
			name: "counter with price",
			raw:  `{"decision": "COUNTER", "detected_price": 75000, "counter_price": 90000, "response_content": "Gimana kalau 90000 bos?"}`,
			want: Counter{Price: 90000, Text: "Gimana kalau 90000 bos?"},
		},
		{
			name: "nett query",
			raw:  `{"decision": "NETT", "detected_price": 0, "counter_price": 0, "response_content": "Harga pas dikit lagi bos."}`,
			want: Counter{Nett: true, Text: "Harga pas dikit lagi bos."},
		},
		{
			name: "net spelling variant",
			raw:  `{"decision": "NET", "response_content": "Bisa kurang dikit bos."}`,
			want: Counter{Nett: true, Text: "Bisa kurang dikit bos."},
		},
		{
			name: "reject",
			raw:  `{"decision": "REJECT", "detected_price": 50000, "response_content": "Waduh, belum dapet segitu bos."}`,
			want: Reject{Text: "Waduh, belum dapet segitu bos."},
		},
		{
			name: "clarify",
			raw:  `{"decision": "CLARIFY", "response_content": "Barangnya masih mulus bos, baru dipakai sebulan."}`,
			want: Clarify{Text: "Barangnya masih mulus bos, baru dipakai sebulan."},
		},
		{
			name: "unknown decision falls back to clarify",
			raw:  `{"decision": "HAGGLING", "response_content": "Hmm."}`,
			want: Clarify{Text: "Hmm."},
		},
		{
			name: "lowercase decision",
			raw:  `{"decision": "accept", "detected_price": 85000, "response_content": "Deal bos!"}`,
			want: Accept{Price: 85000, Text: "Deal bos!"},
		},
		{
			name: "agreement alias",
			raw:  `{"decision": "AGREEMENT", "detected_price": 80000, "response_content": "Oke sip."}`,
			want: Accept{Price: 80000, Text: "Oke sip."},
		},
		{
			name: "json inside markdown fence",
			raw:  "```json\n{\"decision\": \"REJECT\", \"response_content\": \"Belum bisa bos.\"}\n```",
			want: Reject{Text: "Belum bisa bos."},
		},
		{
			name: "json with surrounding prose",
			raw:  `Here is my verdict: {"decision": "COUNTER", "counter_price": 88000, "response_content": "88000 gimana bos?"} hope that helps`,
			want: Counter{Price: 88000, Text: "88000 gimana bos?"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Interpret(tt.raw)
			if got != tt.want {
				t.Errorf("Interpret() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestInterpretFreeTextFallback(t *testing.T) {
	t.Run("marker in free text means accept", func(t *testing.T) {
		got := Interpret("Sip bos, deal ya! DEAL_ACCEPTED")
		want := Accept{Text: "Sip bos, deal ya!"}
		if got != want {
			t.Errorf("Interpret() = %#v, want %#v", got, want)
		}
	})

	t.Run("free text without marker is clarify", func(t *testing.T) {
		got := Interpret("  Waduh bos, naikin dikit lagi dong.  ")
		want := Clarify{Text: "Waduh bos, naikin dikit lagi dong."}
		if got != want {
			t.Errorf("Interpret() = %#v, want %#v", got, want)
		}
	})

	t.Run("malformed json without marker is clarify", func(t *testing.T) {
		got := Interpret(`{"decision": "ACCEPT", "detected_`)
		if _, ok := got.(Clarify); !ok {
			t.Errorf("Interpret() = %#v, want Clarify", got)
		}
	})

	t.Run("empty decision field is not a verdict", func(t *testing.T) {
		got := Interpret(`{"decision": "", "response_content": "DEAL_ACCEPTED mantap"}`)
		if _, ok := got.(Accept); !ok {
			t.Errorf("Interpret() = %#v, want Accept via marker fallback", got)
		}
	})
}

func TestInterpretNeverLeaksMarker(t *testing.T) {
	inputs := []string{
		`{"decision": "ACCEPT", "detected_price": 80000, "response_content": "DEAL_ACCEPTED Sip bos!"}`,
		`{"decision": "ACCEPT", "detected_price": 80000, "response_content": "Sip DEAL_ACCEPTED bos DEAL_ACCEPTED!"}`,
		"Oke deal bos DEAL_ACCEPTED",
		"DEAL_ACCEPTED",
	}
	for _, raw := range inputs {
		d := Interpret(raw)
		if strings.Contains(d.VisibleText(), AcceptMarker) {
			t.Errorf("Interpret(%q): marker leaked into visible text %q", raw, d.VisibleText())
		}
	}
}
