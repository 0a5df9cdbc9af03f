// internal/ai/parse.go
package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type rawDecision struct {
	Action  string `json:"action"`
	Indices []int  `json:"indices"`
}

var intPattern = regexp.MustCompile(`\d+`)

// ParseDecision turns raw backend output into a validated Decision. It
// accepts the JSON protocol from BuildPrompt, plus a plain-text fallback
// ("challenge", "play 0 2"). Anything else is ErrMalformed.
func ParseDecision(raw string, v View) (Decision, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Decision{}, fmt.Errorf("empty reply: %w", ErrMalformed)
	}

	// Models often wrap JSON in code fences; strip them.
	if i := strings.Index(text, "{"); i >= 0 {
		if j := strings.LastIndex(text, "}"); j > i {
			var rd rawDecision
			if err := json.Unmarshal([]byte(text[i:j+1]), &rd); err == nil && rd.Action != "" {
				return validate(Decision{
					Kind:    Kind(rd.Action),
					Indices: rd.Indices,
				}, v)
			}
		}
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "challenge") {
		return validate(Decision{Kind: KindChallenge}, v)
	}
	if strings.Contains(lower, "play") {
		var indices []int
		for _, m := range intPattern.FindAllString(lower, -1) {
			n, err := strconv.Atoi(m)
			if err != nil {
				continue
			}
			indices = append(indices, n)
		}
		return validate(Decision{Kind: KindPlay, Indices: indices}, v)
	}
	return Decision{}, fmt.Errorf("unrecognized reply %q: %w", truncate(text), ErrMalformed)
}

// validate checks a decision against the view it was computed for. The
// caller still re-validates against live state before applying.
func validate(d Decision, v View) (Decision, error) {
	switch d.Kind {
	case KindChallenge:
		if !v.ClaimPending {
			return Decision{}, fmt.Errorf("challenge with no pending claim: %w", ErrMalformed)
		}
		return d, nil
	case KindPlay:
		if len(d.Indices) == 0 || len(d.Indices) > v.MaxClaim {
			return Decision{}, fmt.Errorf("claim size %d out of range: %w", len(d.Indices), ErrMalformed)
		}
		seen := make(map[int]bool, len(d.Indices))
		for _, idx := range d.Indices {
			if idx < 0 || idx >= len(v.Hand) || seen[idx] {
				return Decision{}, fmt.Errorf("bad index %d: %w", idx, ErrMalformed)
			}
			seen[idx] = true
		}
		return d, nil
	default:
		return Decision{}, fmt.Errorf("unknown action %q: %w", d.Kind, ErrMalformed)
	}
}

func truncate(s string) string {
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
