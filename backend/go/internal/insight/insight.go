// Package insight turns a model reply about one RCA document into a validated,
// normalized set of root reasons and actionables.
package insight

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Insight is one extracted root reason or actionable.
type Insight struct {
	// Brief is the aggregation key: lower-case words separated by single spaces.
	Brief string `json:"brief"`
	// Details is free text context, trimmed only.
	Details string `json:"details"`
}

// Set holds everything extracted from one document, in model output order.
// Both slices are always non-nil.
type Set struct {
	RootReasons []Insight `json:"root_reasons"`
	Actionables []Insight `json:"actionables"`
}

// NewSet returns a Set with empty, non-nil slices.
func NewSet() *Set {
	return &Set{RootReasons: []Insight{}, Actionables: []Insight{}}
}

// ToJSON encodes the set with both keys present, using empty arrays for empty lists.
func (s *Set) ToJSON() ([]byte, error) {
	out := Set{RootReasons: s.RootReasons, Actionables: s.Actionables}
	if out.RootReasons == nil {
		out.RootReasons = []Insight{}
	}
	if out.Actionables == nil {
		out.Actionables = []Insight{}
	}
	return json.Marshal(out)
}

// Normalize returns a copy of the set with every insight normalized.
// The receiver is left untouched.
func (s *Set) Normalize() *Set {
	return &Set{
		RootReasons: normalizeAll(s.RootReasons),
		Actionables: normalizeAll(s.Actionables),
	}
}

// Normalize returns the insight with Brief and Details normalized.
func (i Insight) Normalize() Insight {
	return Insight{
		Brief:   NormalizeBrief(i.Brief),
		Details: NormalizeDetails(i.Details),
	}
}

func normalizeAll(in []Insight) []Insight {
	out := make([]Insight, len(in))
	for idx, item := range in {
		out[idx] = item.Normalize()
	}
	return out
}

var nonLetters = regexp.MustCompile(`[^a-z]+`)

// NormalizeBrief lower-cases s, turns every run of characters outside [a-z]
// (digits, punctuation, whitespace, newlines, non-ASCII letters) into a single
// space and trims the result. The output always matches ^[a-z]+( [a-z]+)*$ or is empty.
func NormalizeBrief(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonLetters.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeDetails trims surrounding whitespace and keeps everything else verbatim.
func NormalizeDetails(s string) string {
	return strings.TrimSpace(s)
}
