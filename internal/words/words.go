// internal/words/words.go
//
// Dictionary management for the word game.
//
// Responsibilities:
//   - Load the dictionary from a file (WORDS_FILE) or fall back to the embedded default.
//   - Normalize entries: trimmed, uppercase, A–Z only, at least MinWordLength letters.
//   - Expose an immutable *Dictionary with set lookups for validation.
//
// Initialization behavior (Init):
//   1. If path is non-empty, read one word per line from that file.
//   2. Otherwise use assets/dictionary.txt embedded in the binary.
//   3. An empty result is an error; the server refuses to start without words.
//
// Init runs once (sync.Once); Default returns whatever Init loaded.

package words

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/officechat/wordbot/assets"
)

// MinWordLength is the shortest word the game accepts.
const MinWordLength = 3

// Dictionary is a read-only set of uppercase words.
type Dictionary struct {
	set   map[string]struct{}
	words []string // sorted, deduplicated
}

var (
	initOnce   sync.Once
	defaultDic *Dictionary
	initialErr error
)

// Init loads the process-wide dictionary exactly once.
func Init(path string) error {
	initOnce.Do(func() {
		var list []string
		var err error
		if path != "" {
			list, err = readWordFile(path)
		} else {
			list, err = assets.DictionaryList()
		}
		if err != nil {
			initialErr = fmt.Errorf("words: load dictionary: %w", err)
			return
		}
		d := New(list)
		if d.Len() == 0 {
			initialErr = errors.New("words: dictionary is empty")
			return
		}
		defaultDic = d
	})
	return initialErr
}

// Default returns the dictionary loaded by Init, or nil before Init succeeds.
func Default() *Dictionary {
	return defaultDic
}

// New builds a dictionary from raw entries. Entries that are not purely
// alphabetic or are shorter than MinWordLength are dropped.
func New(list []string) *Dictionary {
	set := make(map[string]struct{}, len(list))
	for _, raw := range list {
		w := normalize(raw)
		if len(w) < MinWordLength || !isAlpha(w) {
			continue
		}
		set[w] = struct{}{}
	}
	sorted := make([]string, 0, len(set))
	for w := range set {
		sorted = append(sorted, w)
	}
	sort.Strings(sorted)
	return &Dictionary{set: set, words: sorted}
}

// Contains reports whether w (any case) is a dictionary word.
func (d *Dictionary) Contains(w string) bool {
	if d == nil {
		return false
	}
	_, ok := d.set[normalize(w)]
	return ok
}

// Words returns every dictionary word in ascending order. The slice is shared; do not modify.
func (d *Dictionary) Words() []string {
	if d == nil {
		return nil
	}
	return d.words
}

// Len returns the number of distinct words.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.words)
}

// readWordFile loads one word per line, skipping blanks and # comments.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// isAlpha reports whether s is all uppercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
