// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sort"
	"strings"
	"unicode"
)

// =============================================================================
// FUZZY MATCHING
// =============================================================================

// Score bonuses.
const (
	bonusMatch       = 1
	bonusConsecutive = 5
	bonusStart       = 10
	bonusBoundary    = 7
	bonusCase        = 2
)

// FuzzyMatch reports whether every rune of query appears in target in order
// (case-insensitive) and scores the match. Consecutive runs, word starts and
// the first rune score higher; long targets are penalised slightly.
//
//	"ngc"  matches "Notes on Go channels"
//	"/pr"  matches "/project" before "/quote"
func FuzzyMatch(query, target string) (score int, matched bool) {
	if query == "" {
		return 0, true
	}
	q := []rune(query)
	tgt := []rune(target)
	if len(q) > len(tgt) {
		return 0, false
	}

	qi, last := 0, -2
	for ti := 0; ti < len(tgt) && qi < len(q); ti++ {
		if unicode.ToLower(tgt[ti]) != unicode.ToLower(q[qi]) {
			continue
		}
		s := bonusMatch
		if last == ti-1 {
			s += bonusConsecutive
		}
		if ti == 0 {
			s += bonusStart
		} else if wordStart(tgt, ti) {
			s += bonusBoundary
		}
		if tgt[ti] == q[qi] {
			s += bonusCase
		}
		score += s
		last = ti
		qi++
	}

	if qi != len(q) {
		return 0, false
	}
	return score - len(tgt)/4, true
}

// wordStart is true after a separator or at a lower-to-upper transition.
func wordStart(r []rune, i int) bool {
	prev := r[i-1]
	switch prev {
	case ' ', '/', '-', '_', '.':
		return true
	}
	return unicode.IsLower(prev) && unicode.IsUpper(r[i])
}

// ScoredMatch is one FuzzyFilter result. Index points into the input slice.
type ScoredMatch struct {
	Index  int
	Target string
	Score  int
}

// FuzzyFilter returns the targets matching query, best first. Ties keep
// input order.
func FuzzyFilter(query string, targets []string) []ScoredMatch {
	query = strings.TrimSpace(query)
	var out []ScoredMatch
	for i, t := range targets {
		if score, ok := FuzzyMatch(query, t); ok {
			out = append(out, ScoredMatch{Index: i, Target: t, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
