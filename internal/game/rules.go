// internal/game/rules.go
//
// Pure word rules: validation against a letter pool, candidate enumeration,
// and scoring. Nothing here touches engine state.

package game

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/officechat/wordbot/internal/words"
)

// letterCounts is a multiset over A–Z.
type letterCounts [26]int

// countLetters builds the multiset of s. ok is false if s holds anything other than A–Z.
func countLetters(s string) (c letterCounts, ok bool) {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b < 'A' || b > 'Z' {
			return c, false
		}
		c[b-'A']++
	}
	return c, true
}

// fits reports whether word is a sub-multiset of the available counts.
func (avail *letterCounts) fits(word string) bool {
	need, ok := countLetters(word)
	if !ok {
		return false
	}
	for i := range need {
		if need[i] > avail[i] {
			return false
		}
	}
	return true
}

// CanForm reports whether every letter of word occurs in letters at least as
// many times as it occurs in word. Both are compared in uppercase.
func CanForm(word, letters string) bool {
	avail, _ := countLetters(strings.ToUpper(letters))
	return avail.fits(strings.ToUpper(word))
}

// Validate checks a candidate word against the dictionary and a letter pool.
// It returns nil when the word is playable, otherwise one of ErrTooShort,
// ErrNotInDictionary or ErrCannotForm (matchable with errors.Is).
func Validate(dict *words.Dictionary, word, letters string) error {
	w := strings.ToUpper(word)
	if utf8.RuneCountInString(w) < words.MinWordLength {
		return ErrTooShort
	}
	if !dict.Contains(w) {
		return ErrNotInDictionary
	}
	if !CanForm(w, letters) {
		return ErrCannotForm
	}
	return nil
}

// FindAllValidWords returns every dictionary word formable from letters,
// longest first, ties in ascending alphabetical order.
func FindAllValidWords(dict *words.Dictionary, letters string) []string {
	avail, _ := countLetters(strings.ToUpper(letters))
	found := lo.Filter(dict.Words(), func(w string, _ int) bool {
		return len(w) >= words.MinWordLength && avail.fits(w)
	})
	slices.SortFunc(found, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return found
}

// Points scores a word: one point per letter, +1 for 4–5 letters, +2 for 6 or more.
func Points(word string) int {
	n := utf8.RuneCountInString(word)
	switch {
	case n >= 6:
		return n + 2
	case n >= 4:
		return n + 1
	default:
		return n
	}
}
