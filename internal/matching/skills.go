// Package matching holds the skill-set normalization and the overlap scorer
// shared by applications and recommendations.
package matching

import (
	"sort"
	"strings"
)

// SkillSet is a set of normalized (trimmed, lower-cased) skill labels.
type SkillSet map[string]struct{}

// Normalize returns the canonical form of a single label.
func Normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// NewSkillSet builds a set from labels, skipping blanks.
func NewSkillSet(labels ...string) SkillSet {
	s := make(SkillSet, len(labels))
	for _, l := range labels {
		if k := Normalize(l); k != "" {
			s[k] = struct{}{}
		}
	}
	return s
}

// ParseSkills splits comma-separated free text into a SkillSet.
func ParseSkills(raw string) SkillSet {
	return NewSkillSet(strings.Split(raw, ",")...)
}

// SplitLabels splits comma-separated text into trimmed display labels,
// dropping blanks and case-insensitive repeats. Order of first occurrence is kept.
func SplitLabels(raw string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		label := strings.TrimSpace(part)
		key := Normalize(label)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, label)
	}
	return out
}

func (s SkillSet) Len() int { return len(s) }

func (s SkillSet) Has(label string) bool {
	_, ok := s[Normalize(label)]
	return ok
}

// Keys returns the normalized labels in sorted order.
func (s SkillSet) Keys() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Intersect returns the labels present in both sets.
func (s SkillSet) Intersect(other SkillSet) SkillSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := SkillSet{}
	for k := range small {
		if _, ok := large[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

// Intersects reports whether the sets share at least one label.
func (s SkillSet) Intersects(other SkillSet) bool {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for k := range small {
		if _, ok := large[k]; ok {
			return true
		}
	}
	return false
}
