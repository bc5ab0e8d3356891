package history

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type Match struct {
	Command   string  `json:"command"`
	Score     float64 `json:"score"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// Search ranks distinct history commands against query. Newer entries win ties.
func (s *Store) Search(query string, limit int) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if limit <= 0 {
		limit = 8
	}
	entries, err := s.Load()
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(strings.TrimSpace(query))
	tokens := splitTokens(queryLower)
	now := s.now()

	seen := map[string]struct{}{}
	matches := make([]Match, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		key := strings.ToLower(entry.Command)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		recency := len(entries) - 1 - i
		score := scoreCommand(queryLower, tokens, key, recency, now.Sub(entry.Timestamp))
		if score <= 0 {
			continue
		}
		match := Match{Command: entry.Command, Score: score}
		if !entry.Timestamp.IsZero() {
			match.Timestamp = entry.Timestamp.Format(time.RFC3339)
		}
		matches = append(matches, match)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func scoreCommand(query string, tokens []string, cmd string, recencyIndex int, age time.Duration) float64 {
	if cmd == "" {
		return 0
	}
	score := 0.0
	if strings.Contains(cmd, query) {
		score += 12
	}
	if strings.HasPrefix(cmd, query) {
		score += 8
	}

	matched := 0
	for _, token := range tokens {
		if strings.Contains(cmd, token) {
			matched++
			score += 4
		}
	}
	if matched == 0 && score == 0 {
		return 0
	}

	if age < 24*time.Hour {
		score += 2
	}
	if recencyIndex < 20 {
		score += 1
	}
	return score
}

func splitTokens(query string) []string {
	parts := strings.FieldsFunc(query, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '-' || r == '_' || r == '/'
	})
	out := make([]string, 0, len(parts))
	seen := map[string]struct{}{}
	for _, p := range parts {
		token := strings.Trim(p, `"'.,!?;:()[]{}<>`)
		if len(token) < 2 {
			continue
		}
		if _, exists := seen[token]; exists {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// Complete returns the candidates that start with prefix, case-insensitively,
// without duplicates and in input order.
func Complete(prefix string, candidates []string) []string {
	low := strings.ToLower(prefix)
	seen := map[string]struct{}{}
	var out []string
	for _, candidate := range candidates {
		if !strings.HasPrefix(strings.ToLower(candidate), low) {
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}
	return out
}
