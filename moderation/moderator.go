// Package moderation censors configured words in message text before it
// reaches the store. An empty dictionary disables censoring entirely.
package moderation

import (
	"log/slog"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
	log         *slog.Logger
}

// NewModerator builds the Aho-Corasick automaton over the lowercased
// dictionary. Matching is case-insensitive and ignores punctuation between
// letters, so "b.a.d" still matches "bad".
func NewModerator(dictionary []string, replacement rune, log *slog.Logger) (*Moderator, error) {
	patterns := make([][]rune, 0, len(dictionary))
	for _, word := range dictionary {
		if norm := normalize([]rune(word)); len(norm.runes) > 0 {
			patterns = append(patterns, norm.runes)
		}
	}
	if len(patterns) == 0 {
		return &Moderator{replacement: replacement, log: log}, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, replacement: replacement, log: log}, nil
}

// Censor replaces every dictionary match in text with the replacement rune.
// The original rune count and spacing are preserved.
func (m *Moderator) Censor(text string) string {
	if m.matcher == nil || text == "" {
		return text
	}

	original := []rune(text)
	norm := normalize(original)
	if len(norm.runes) == 0 {
		return text
	}

	hits := m.matcher.MultiPatternSearch(norm.runes, false)
	if len(hits) == 0 {
		return text
	}

	censored := 0
	for _, hit := range hits {
		start := hit.Pos
		end := start + len(hit.Word)
		if start < 0 || end > len(norm.origin) {
			continue
		}
		// Star out the original span, punctuation included.
		for i := norm.origin[start]; i <= norm.origin[end-1]; i++ {
			original[i] = m.replacement
		}
		censored++
	}
	if censored > 0 {
		m.log.Debug("censored message text", "matches", censored)
	}
	return string(original)
}

// mapping links each searchable rune back to its original position so a
// match span can be starred out in the unmodified text.
type mapping struct {
	runes  []rune
	origin []int
}

func normalize(input []rune) mapping {
	m := mapping{
		runes:  make([]rune, 0, len(input)),
		origin: make([]int, 0, len(input)),
	}
	for i, r := range input {
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		m.runes = append(m.runes, unicode.ToLower(r))
		m.origin = append(m.origin, i)
	}
	return m
}
