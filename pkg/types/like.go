package types

import (
	"regexp"
	"strings"
	"sync"
)

var likeCacheMu sync.Mutex
var likeCache = map[string]*regexp.Regexp{}

// CompileLikePattern translates a SQL LIKE pattern into an anchored regular
// expression: `_` becomes `.`, `%` becomes `.*`, every other regex
// metacharacter is escaped so it matches literally. Matching is
// full-string, per SQL LIKE semantics (§4.5), and case-insensitive unless
// caseSensitive is set.
func CompileLikePattern(pattern string, caseSensitive bool) (*regexp.Regexp, error) {
	key := pattern
	if !caseSensitive {
		key = "(?i)" + pattern
	}

	likeCacheMu.Lock()
	if re, ok := likeCache[key]; ok {
		likeCacheMu.Unlock()
		return re, nil
	}
	likeCacheMu.Unlock()

	var b strings.Builder
	if !caseSensitive {
		b.WriteString("(?i)")
	}
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			if isRegexMeta(r) {
				b.WriteRune('\\')
			}
			b.WriteRune(r)
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, err
	}

	likeCacheMu.Lock()
	likeCache[key] = re
	likeCacheMu.Unlock()
	return re, nil
}
