// Package types defines the shared domain model for the career coach:
// skill sets, course records, and ranked recommendations.
package types

import (
	"sort"
	"strings"
)

// SkillSet is an ordered list of normalized skill names.
// It is deduplicated case-insensitively; the first-seen casing is kept.
type SkillSet []string

// NewSkillSet builds a SkillSet from raw skill strings.
// Each skill is trimmed and has inner whitespace collapsed; empty strings are
// dropped. Duplicates (case-insensitive) are removed, keeping first occurrence
// order.
func NewSkillSet(raw []string) SkillSet {
	seen := make(map[string]bool, len(raw))
	skills := make(SkillSet, 0, len(raw))
	for _, s := range raw {
		normalized := normalizeSkill(s)
		if normalized == "" {
			continue
		}
		key := strings.ToLower(normalized)
		if seen[key] {
			continue
		}
		seen[key] = true
		skills = append(skills, normalized)
	}
	return skills
}

// Diff returns the skills in s that are not present in other.
// Matching is case-insensitive on normalized names; the order of s is kept.
func (s SkillSet) Diff(other SkillSet) SkillSet {
	present := make(map[string]bool, len(other))
	for _, skill := range other {
		present[strings.ToLower(skill)] = true
	}

	missing := make(SkillSet, 0)
	for _, skill := range s {
		if !present[strings.ToLower(skill)] {
			missing = append(missing, skill)
		}
	}
	return missing
}

// Contains reports whether the set holds the skill, case-insensitively.
func (s SkillSet) Contains(skill string) bool {
	target := strings.ToLower(normalizeSkill(skill))
	for _, existing := range s {
		if strings.ToLower(existing) == target {
			return true
		}
	}
	return false
}

// Canonical returns a lowercase, sorted copy of the set.
// Two semantically equal sets produce identical canonical forms regardless of
// original ordering or casing, which makes it suitable for cache key input.
func (s SkillSet) Canonical() []string {
	canonical := make([]string, len(s))
	for i, skill := range s {
		canonical[i] = strings.ToLower(skill)
	}
	sort.Strings(canonical)
	return canonical
}

// Strings returns the set as a plain string slice, never nil.
func (s SkillSet) Strings() []string {
	if s == nil {
		return []string{}
	}
	return []string(s)
}

// normalizeSkill trims a skill name and collapses runs of inner whitespace.
func normalizeSkill(skill string) string {
	return strings.Join(strings.Fields(skill), " ")
}
