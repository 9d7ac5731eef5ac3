// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package textproc turns structured event and user records into the single
// canonical string the embedding generator consumes. Every function here
// is pure: no I/O, no randomness, no package-level state.
package textproc

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mfolsom1/eventreco/internal/domain"
)

// MaxLength is the hard cap on canonical text length in runes.
const MaxLength = 2048

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// clean lowercases s, strips HTML-like markers, and collapses runs of
// whitespace into single spaces. It never returns leading/trailing space.
func clean(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, " ")
	s = strings.ToLower(s)
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// sortedTags returns a lexicographically sorted copy of tags so joined
// output is deterministic regardless of input order.
func sortedTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	sort.Strings(out)
	return out
}

// join concatenates non-empty cleaned fields with " | ", skipping any
// field that cleans to the empty string rather than rendering a
// placeholder for it.
func join(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		c := clean(f)
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " | ")
}

// truncate caps s to MaxLength runes without splitting a multi-byte rune.
func truncate(s string) string {
	r := []rune(s)
	if len(r) <= MaxLength {
		return s
	}
	return string(r[:MaxLength])
}

// Event produces the canonical text for an event: title; category; tags;
// description; location, in that order, tags sorted lexicographically
// first.
func Event(e domain.Event) string {
	tags := strings.Join(sortedTags(e.Tags), ", ")
	text := join(e.Title, e.Category, tags, e.Description, e.Location)
	return truncate(text)
}

// UserProfile produces the canonical text for a user from bio, interests,
// and location. Interests are emitted twice — once in natural field order,
// once prepended — so interest tokens carry roughly double weight in the
// resulting bag of words relative to bio and location.
func UserProfile(u domain.User) string {
	interests := strings.Join(sortedTags(u.Interests), ", ")
	text := join(interests, u.Bio, interests, u.Location)
	return truncate(text)
}
