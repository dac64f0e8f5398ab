package evaluation

import (
	"encoding/json"
	"strconv"
	"strings"
)

// parseResponse turns raw model output into an Evaluation. It first tries a
// strict JSON parse; when that fails it falls back to a lenient line-oriented
// parser. It never fails: unusable output degrades to zero values.
func parseResponse(raw string) *Evaluation {
	cleaned := extractJSON(raw)

	var parsed struct {
		Summary   string   `json:"summary"`
		Score     float64  `json:"score"`
		Issues    []string `json:"issues"`
		FollowUps []string `json:"follow_ups"`
	}

	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil {
		eval := &Evaluation{
			Summary:   strings.TrimSpace(parsed.Summary),
			Score:     int(parsed.Score),
			Issues:    parsed.Issues,
			FollowUps: parsed.FollowUps,
		}
		if eval.Issues == nil {
			eval.Issues = make([]string, 0)
		}
		if eval.FollowUps == nil {
			eval.FollowUps = make([]string, 0)
		}
		return eval
	}

	return parseLabeled(raw)
}

// extractJSON strips markdown code fences some models wrap around JSON.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// parseLabeled recognizes "Summary:", "Score:", "Issues:" and "Follow-Ups:"
// section labels and accumulates multi-line content per section. Unrecognized
// lines attach to the currently open section.
func parseLabeled(raw string) *Evaluation {
	eval := &Evaluation{
		Issues:    make([]string, 0),
		FollowUps: make([]string, 0),
	}

	const (
		sectionNone = iota
		sectionSummary
		sectionIssues
		sectionFollowUps
	)

	section := sectionNone
	summaryLines := make([]string, 0)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "Summary:"):
			section = sectionSummary
			if rest := strings.TrimSpace(strings.TrimPrefix(line, "Summary:")); rest != "" {
				summaryLines = append(summaryLines, rest)
			}
		case strings.HasPrefix(line, "Score:"):
			section = sectionNone
			eval.Score = parseScore(strings.TrimPrefix(line, "Score:"))
		case strings.HasPrefix(line, "Issues:"):
			section = sectionIssues
			if rest := strings.TrimSpace(strings.TrimPrefix(line, "Issues:")); rest != "" {
				eval.Issues = append(eval.Issues, rest)
			}
		case strings.HasPrefix(line, "Follow-Ups:"):
			section = sectionFollowUps
			if rest := strings.TrimSpace(strings.TrimPrefix(line, "Follow-Ups:")); rest != "" {
				eval.FollowUps = append(eval.FollowUps, rest)
			}
		case line == "":
			continue
		default:
			switch section {
			case sectionSummary:
				summaryLines = append(summaryLines, line)
			case sectionIssues:
				eval.Issues = append(eval.Issues, line)
			case sectionFollowUps:
				eval.FollowUps = append(eval.FollowUps, line)
			}
		}
	}

	eval.Summary = strings.Join(summaryLines, "\n")
	return eval
}

// parseScore returns 0 for anything that is not a plain integer.
func parseScore(raw string) int {
	score, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return score
}
