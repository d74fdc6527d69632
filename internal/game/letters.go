package game

import (
	"crypto/rand"
	"math/big"
)

// LetterSets are the fixed letter pools a session draws from. Every pool has
// 11 letters and carries all five vowels so words are always formable.
var LetterSets = []string{
	"AEIOULMNSTR",
	"AEIOURSTLMN",
	"AEIOUPQRSTL",
	"AEIOUHLMNST",
	"AEIOUCDFGHL",
	"AEIOURSTMNP",
}

// GenerateLetters picks one pool uniformly at random and returns a random
// permutation of all its letters. An empty sets slice uses LetterSets.
func GenerateLetters(sets []string) string {
	if len(sets) == 0 {
		sets = LetterSets
	}
	pool := []byte(sets[randomIndex(len(sets))])
	// Fisher–Yates over the whole pool; nothing is dropped.
	for i := len(pool) - 1; i > 0; i-- {
		j := randomIndex(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return string(pool)
}

// randomIndex returns a uniform index in [0, n) from crypto/rand.
// Falls back to 0 if the entropy source fails.
func randomIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
