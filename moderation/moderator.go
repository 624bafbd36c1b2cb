// Package moderation censors forbidden words in chat content before
// broadcast. Matching is resilient to leet speak, casing and interleaved
// punctuation; replacement preserves the original spacing.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	machine     *goahocorasick.Machine
	replacement rune
}

// mapping links the normalized rune stream back to original rune positions,
// so a match on the normalized form can be blanked out in the raw text.
type mapping struct {
	runes  []rune
	origin []int
}

// NewModerator builds the Aho-Corasick automaton over the normalized forms
// of the forbidden words.
func NewModerator(words []string, replacement rune) (*Moderator, error) {
	patterns := make([][]rune, len(words))
	for i, word := range words {
		patterns[i] = normalize(word).runes
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{machine: machine, replacement: replacement}, nil
}

// Censor replaces every rune of each matched span with the replacement
// character. The input is returned untouched when nothing matches.
func (m *Moderator) Censor(content string) string {
	normalized := normalize(content)
	if len(normalized.runes) == 0 {
		return content
	}

	spans := m.machine.MultiPatternSearch(normalized.runes, false)
	if len(spans) == 0 {
		return content
	}

	raw := []rune(content)
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(normalized.origin) {
			continue
		}
		for i := normalized.origin[start]; i <= normalized.origin[end-1]; i++ {
			raw[i] = m.replacement
		}
	}
	return string(raw)
}

// normalize lowercases, folds leet speak and drops punctuation, spaces and
// symbols, keeping the index of each surviving rune in the original text.
func normalize(input string) mapping {
	raw := []rune(input)
	out := mapping{
		runes:  make([]rune, 0, len(raw)),
		origin: make([]int, 0, len(raw)),
	}
	for i, r := range raw {
		folded := foldLeet(r)
		if unicode.IsPunct(folded) || unicode.IsSpace(folded) || unicode.IsSymbol(folded) {
			continue
		}
		out.runes = append(out.runes, unicode.ToLower(folded))
		out.origin = append(out.origin, i)
	}
	return out
}

// foldLeet maps common leet-speak substitutions back to plain letters.
func foldLeet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}
