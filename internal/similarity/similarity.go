// Package similarity scores already-normalized strings for fuzzy matching.
package similarity

import (
	"math"
	"strings"
)

// Scorer computes bounded similarity scores, memoizing repeated pairs.
//
// A Scorer is scoped to a single search pass: create a fresh one per pass so
// cached scores never leak between unrelated queries. Not safe for concurrent
// use.
type Scorer struct {
	memo map[pairKey]float64
}

type pairKey struct {
	a, b string
}

// NewScorer creates an empty scorer.
func NewScorer() *Scorer {
	return &Scorer{memo: make(map[pairKey]float64)}
}

// Score returns a similarity in [0, 1] between two normalized strings.
// Commutative: Score(a, b) == Score(b, a). Inputs must already be normalized
// by the caller; the scorer does not normalize.
func (s *Scorer) Score(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a > b {
		a, b = b, a
	}
	key := pairKey{a, b}
	if v, ok := s.memo[key]; ok {
		return v
	}
	v := score(a, b)
	s.memo[key] = v
	return v
}

// score combines a whole-string edit-distance ratio with a token-overlap
// ratio, taking the best of the two. The edit ratio rewards near-identical
// strings, the token ratio rewards reordered-word matches like
// "shape of you" vs "you shape of (remix)".
func score(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	edit := levenshteinRatio(a, b)
	tokens := tokenOverlap(strings.Fields(a), strings.Fields(b))
	return math.Max(edit, tokens)
}

// tokenOverlap compares two word sets. A full subset relation scores
// 0.75 plus a containment bonus, so a short query matching part of a longer
// title still clears typical thresholds; otherwise it is plain Jaccard.
func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	intersection := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			intersection++
		}
	}
	if intersection == 0 {
		return 0.0
	}

	small, big := len(setA), len(setB)
	if small > big {
		small, big = big, small
	}
	if intersection == small {
		return 0.75 + 0.25*float64(small)/float64(big)
	}

	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// levenshteinRatio converts edit distance to a similarity in [0, 1].
func levenshteinRatio(a, b string) float64 {
	runesA := []rune(a)
	runesB := []rune(b)
	maxLen := max(len(runesA), len(runesB))
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein(runesA, runesB)
	return 1.0 - float64(dist)/float64(maxLen)
}

// levenshtein computes the edit distance using two rolling rows.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
