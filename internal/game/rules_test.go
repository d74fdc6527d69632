package game

import (
	"errors"
	"slices"
	"sort"
	"strings"
	"testing"

	"github.com/officechat/wordbot/internal/words"
)

const testLetters = "AEIOULMNSTR"

func testDictionary() *words.Dictionary {
	return words.New([]string{
		"RATS", "STAR", "RATE", "TEAR", "TEA", "TAR", "ART", "EAT",
		"STREAM", "MASTER", "SALMON", "LEMON", "MELON",
		"ZEBRA", "STREET", "AA",
	})
}

func TestCanForm(t *testing.T) {
	cases := []struct {
		word, letters string
		want          bool
	}{
		{"RATS", testLetters, true},
		{"rats", strings.ToLower(testLetters), true},
		{"STREAM", testLetters, true},
		{"AA", testLetters, false},
		{"STREET", testLetters, false},
		{"ZEBRA", testLetters, false},
		{"R4TS", testLetters, false},
	}
	for _, c := range cases {
		if got := CanForm(c.word, c.letters); got != c.want {
			t.Errorf("CanForm(%q, %q) = %v, want %v", c.word, c.letters, got, c.want)
		}
	}
}

func TestValidateOrder(t *testing.T) {
	dict := testDictionary()
	cases := []struct {
		word string
		want error
	}{
		{"AA", ErrTooShort},
		{"QQQ", ErrNotInDictionary},
		{"ZEBRA", ErrCannotForm},
		{"STREET", ErrCannotForm},
		{"rats", nil},
	}
	for _, c := range cases {
		err := Validate(dict, c.word, testLetters)
		if c.want == nil {
			if err != nil {
				t.Errorf("Validate(%q) = %v, want nil", c.word, err)
			}
			continue
		}
		if !errors.Is(err, c.want) {
			t.Errorf("Validate(%q) = %v, want %v", c.word, err, c.want)
		}
	}
}

func TestPoints(t *testing.T) {
	cases := map[string]int{
		"CAT":     3,
		"RATS":    5,
		"STARE":   6,
		"STREAM":  8,
		"MORTALS": 9,
	}
	for w, want := range cases {
		if got := Points(w); got != want {
			t.Errorf("Points(%q) = %d, want %d", w, got, want)
		}
	}
}

func TestFindAllValidWords(t *testing.T) {
	dict := testDictionary()
	got := FindAllValidWords(dict, testLetters)
	want := []string{
		"MASTER", "SALMON", "STREAM",
		"LEMON", "MELON",
		"RATE", "RATS", "STAR", "TEAR",
		"ART", "EAT", "TAR", "TEA",
	}
	if !slices.Equal(got, want) {
		t.Fatalf("FindAllValidWords = %v\nwant %v", got, want)
	}
	for _, w := range got {
		if !CanForm(w, testLetters) || !dict.Contains(w) {
			t.Errorf("%q should not be listed", w)
		}
	}
	if again := FindAllValidWords(dict, testLetters); !slices.Equal(got, again) {
		t.Errorf("second call differs: %v", again)
	}
}

func TestFindAllValidWordsDoesNotMutateDictionary(t *testing.T) {
	dict := testDictionary()
	before := slices.Clone(dict.Words())
	_ = FindAllValidWords(dict, testLetters)
	if !slices.Equal(before, dict.Words()) {
		t.Fatal("dictionary word order changed")
	}
}

func TestGenerateLettersIsPermutationOfAPool(t *testing.T) {
	sorted := func(s string) string {
		b := []byte(s)
		sort.Slice(b, func(i, j int) bool { return b[i] < b[j] })
		return string(b)
	}
	pools := make(map[string]bool, len(LetterSets))
	for _, p := range LetterSets {
		pools[sorted(p)] = true
	}
	for i := 0; i < 50; i++ {
		got := GenerateLetters(nil)
		if !pools[sorted(got)] {
			t.Fatalf("GenerateLetters() = %q is not a permutation of any pool", got)
		}
	}

	custom := GenerateLetters([]string{"ABC"})
	if sorted(custom) != "ABC" {
		t.Fatalf("custom pool: got %q", custom)
	}
}

func TestRejectionMatchesByReason(t *testing.T) {
	err := error(reject(ErrTooShort, "custom %s", "text"))
	if !errors.Is(err, ErrTooShort) {
		t.Fatal("expected errors.Is to match by reason")
	}
	if errors.Is(err, ErrCannotForm) {
		t.Fatal("matched the wrong reason")
	}
	if err.Error() != "custom text" {
		t.Fatalf("message = %q", err.Error())
	}
}
