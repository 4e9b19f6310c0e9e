package knowledge

import "testing"

func TestRelevance(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		question string
		want     float64
	}{
		{"exact", "what are your hours", "what are your hours", 1.0},
		{"partial overlap", "what are your opening hours", "what are your hours", 0.8},
		{"substring token", "booking an appointment", "how do i book an appointment", 2.0 / 3.0},
		{"no overlap", "quantum physics", "what are your hours", 0},
		{"empty query", "", "what are your hours", 0},
		{"only short tokens", "do we go up", "what are your hours", 0},
		{"case insensitive", "WHAT ARE YOUR HOURS", "what are your hours", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Relevance(tt.query, tt.question)
			if got != tt.want {
				t.Errorf("Relevance(%q, %q) = %v, want %v", tt.query, tt.question, got, tt.want)
			}
		})
	}
}

func TestRelevanceRange(t *testing.T) {
	queries := []string{
		"what are your hours",
		"a b c d",
		"",
		"haircut haircut haircut",
		"do you offer massages and facials on sunday",
	}
	questions := []string{
		"what are your hours",
		"what services do you offer",
		"business information",
	}

	for _, q := range queries {
		for _, kq := range questions {
			score := Relevance(q, kq)
			if score < 0 || score > 1 {
				t.Errorf("Relevance(%q, %q) = %v out of [0,1]", q, kq, score)
			}
		}
	}
}

func TestRelevanceShortTokensIgnored(t *testing.T) {
	// "is" and "it" are too short to count, "open" matches nothing here.
	if got := Relevance("is it open", "what are your hours"); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}
