// assets/embed.go
//
// Embedded data files shipped inside the binary:
//   - dictionary.txt: default word-game dictionary (one word per line).
//   - sql/*.sql:      SQLite migrations applied at startup.

package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"
)

//go:embed dictionary.txt sql/*.sql
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToUpper(s))
	}
	return out, sc.Err()
}

// DictionaryList returns the embedded dictionary, uppercased, comments dropped.
func DictionaryList() ([]string, error) {
	return readLines("dictionary.txt")
}

// Migrations returns the embedded sql directory rooted at "sql".
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "sql")
	if err != nil {
		// fs.Sub only fails on an invalid path; "sql" is a constant.
		panic(err)
	}
	return sub
}
