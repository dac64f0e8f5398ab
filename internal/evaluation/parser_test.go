package evaluation

import "testing"

func TestParseResponseStrictJSON(t *testing.T) {
	raw := `{"summary":"Strong backend engineer.","score":8,"issues":["No LinkedIn"],"follow_ups":["Confirm availability"]}`

	eval := parseResponse(raw)

	if eval.Summary != "Strong backend engineer." {
		t.Fatalf("unexpected summary: %q", eval.Summary)
	}
	if eval.Score != 8 {
		t.Fatalf("unexpected score: %d", eval.Score)
	}
	if len(eval.Issues) != 1 || eval.Issues[0] != "No LinkedIn" {
		t.Fatalf("unexpected issues: %v", eval.Issues)
	}
	if len(eval.FollowUps) != 1 || eval.FollowUps[0] != "Confirm availability" {
		t.Fatalf("unexpected follow-ups: %v", eval.FollowUps)
	}
}

func TestParseResponseStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"summary\":\"Fenced.\",\"score\":5}\n```"

	eval := parseResponse(raw)

	if eval.Summary != "Fenced." {
		t.Fatalf("unexpected summary: %q", eval.Summary)
	}
	if eval.Score != 5 {
		t.Fatalf("unexpected score: %d", eval.Score)
	}
	if eval.Issues == nil || eval.FollowUps == nil {
		t.Fatalf("expected normalized empty slices")
	}
}

func TestParseResponseLabeledFallback(t *testing.T) {
	raw := "Summary: Senior engineer with tier-1 background.\n" +
		"Spent six years at Google.\n" +
		"Score: 7\n" +
		"Issues: Missing LinkedIn profile\n" +
		"No end date on latest role\n" +
		"Follow-Ups: What is your notice period?\n"

	eval := parseResponse(raw)

	if eval.Summary != "Senior engineer with tier-1 background.\nSpent six years at Google." {
		t.Fatalf("unexpected summary: %q", eval.Summary)
	}
	if eval.Score != 7 {
		t.Fatalf("unexpected score: %d", eval.Score)
	}
	if len(eval.Issues) != 2 {
		t.Fatalf("unexpected issues: %v", eval.Issues)
	}
	if len(eval.FollowUps) != 1 || eval.FollowUps[0] != "What is your notice period?" {
		t.Fatalf("unexpected follow-ups: %v", eval.FollowUps)
	}
}

func TestParseResponseUnusableOutput(t *testing.T) {
	eval := parseResponse("I cannot help with that.")

	if eval.Summary != "" {
		t.Fatalf("expected empty summary, got %q", eval.Summary)
	}
	if eval.Score != 0 {
		t.Fatalf("expected zero score, got %d", eval.Score)
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"7", 7},
		{"  10 ", 10},
		{"7/10", 0},
		{"high", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := parseScore(tt.raw); got != tt.want {
			t.Fatalf("parseScore(%q): expected %d, got %d", tt.raw, tt.want, got)
		}
	}
}
