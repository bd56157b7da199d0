// Package util provides shared utility functions.
package util

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Standard ID lengths for TaskNest entities.
const (
	// DefaultShortIDLength is the length of generated task and project IDs.
	DefaultShortIDLength = 8
	// MaxAmbiguousCandidates is the max number of candidates to show in ambiguous error.
	MaxAmbiguousCandidates = 5
)

// Errors returned by ID resolution functions.
var (
	ErrAmbiguousID = errors.New("ambiguous ID prefix")
	ErrNotFound    = errors.New("not found")
)

// ShortID returns a shortened version of an ID.
// If n is 0 or negative, DefaultShortIDLength (8) is used.
//
// Examples:
//
//	ShortID("3f2a9c1e-77aa", 0) → "3f2a9c1e"
//	ShortID("3f2a9c1e", 4) → "3f2a"
//	ShortID("abc", 20) → "abc" (no truncation if shorter)
func ShortID(id string, n int) string {
	if n <= 0 {
		n = DefaultShortIDLength
	}
	if len(id) <= n {
		return id
	}
	return id[:n]
}

// NewTaskID returns a fresh 8-character task ID taken from a random UUID.
func NewTaskID() string {
	return ShortID(uuid.NewString(), DefaultShortIDLength)
}

// NewProjectID returns a fresh 8-character project ID.
func NewProjectID() string {
	return ShortID(uuid.NewString(), DefaultShortIDLength)
}

// ResolveID resolves an ID or unique prefix against the known IDs.
//
// Resolution rules:
//  1. An exact match always wins, even if it is also a prefix of other IDs.
//  2. If idOrPrefix matches exactly one ID prefix, return that ID.
//  3. If multiple matches, return ErrAmbiguousID with candidates.
//  4. If no matches, return ErrNotFound.
func ResolveID(idOrPrefix string, known []string, entityType string) (string, error) {
	if idOrPrefix == "" {
		return "", fmt.Errorf("%s ID: %w", entityType, ErrNotFound)
	}

	var candidates []string
	seen := make(map[string]struct{})
	for _, id := range known {
		if id == idOrPrefix {
			return id, nil
		}
		if _, dup := seen[id]; dup {
			continue
		}
		if strings.HasPrefix(id, idOrPrefix) {
			seen[id] = struct{}{}
			candidates = append(candidates, id)
		}
	}
	sort.Strings(candidates)

	return resolveFromCandidates(idOrPrefix, candidates, entityType)
}

// resolveFromCandidates handles the common resolution logic.
func resolveFromCandidates(prefix string, candidates []string, entityType string) (string, error) {
	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("%s with prefix %q: %w", entityType, prefix, ErrNotFound)
	case 1:
		return candidates[0], nil
	default:
		// Ambiguous: multiple matches
		shown := candidates
		if len(shown) > MaxAmbiguousCandidates {
			shown = shown[:MaxAmbiguousCandidates]
		}
		return "", fmt.Errorf("%w: prefix %q matches %d %ss: %v",
			ErrAmbiguousID, prefix, len(candidates), entityType, shown)
	}
}
