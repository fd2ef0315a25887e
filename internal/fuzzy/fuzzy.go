// Package fuzzy matches free-text queries against multi-field candidates.
package fuzzy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chime-music/chime/internal/normalize"
	"github.com/chime-music/chime/internal/similarity"
)

// ErrInvalidThreshold reports a threshold outside [0, 1]. Passing one is a
// programmer error; it is never silently clamped.
var ErrInvalidThreshold = errors.New("match threshold out of range")

// Field names candidates may expose.
const (
	FieldQuery  = "query" // the stored query the record was resolved from
	FieldTitle  = "title"
	FieldArtist = "artist"
	FieldAlbum  = "album"
)

// Candidate exposes named text fields for matching. A field the candidate
// does not carry returns the empty string and is excluded from its score.
type Candidate interface {
	Field(name string) string
}

// Match pairs a candidate's position in the input slice with its score.
type Match struct {
	Index int
	Score float64
}

// DefaultWeights returns the standard field weighting: the stored query and
// title dominate, artist and album only nudge.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		FieldQuery:  1.0,
		FieldTitle:  1.0,
		FieldArtist: 0.4,
		FieldAlbum:  0.2,
	}
}

// Matcher scores candidates against queries using a shared scorer, so
// repeated field values across candidates are only scored once per pass.
type Matcher struct {
	scorer *similarity.Scorer
}

// NewMatcher creates a matcher around the given scorer. The scorer's
// lifetime bounds the matcher's memoization; use one per search pass.
func NewMatcher(scorer *similarity.Scorer) *Matcher {
	return &Matcher{scorer: scorer}
}

// FindMatches returns candidates scoring at or above threshold, best first.
//
// Each candidate's score is the weighted mean of per-field similarities over
// the fields that are both weighted and non-empty on the candidate. Ties keep
// candidate insertion order (stable sort), which makes results reproducible
// and lets insertion-ordered pools express "most recently stored wins".
// An empty candidate list returns an empty result, not an error.
func (m *Matcher) FindMatches(query string, candidates []Candidate, threshold float64, weights map[string]float64) ([]Match, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}
	if len(weights) == 0 {
		weights = DefaultWeights()
	}

	// Iterate fields in a fixed order so float accumulation is deterministic.
	fields := make([]string, 0, len(weights))
	for f := range weights {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	normQuery := normalize.Normalize(query)

	var matches []Match
	for i, c := range candidates {
		var sum, total float64
		for _, f := range fields {
			value := c.Field(f)
			if value == "" {
				continue
			}
			w := weights[f]
			sum += w * m.scorer.Score(normQuery, normalize.Normalize(value))
			total += w
		}
		if total == 0 {
			continue
		}
		if s := sum / total; s >= threshold {
			matches = append(matches, Match{Index: i, Score: s})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches, nil
}
