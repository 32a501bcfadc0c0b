package types

import (
	"fmt"
	"strings"

	engerr "coredb/pkg/error"
)

// Alphabet is a finite, ordered set of characters supported by string
// histograms (§3.4). It implements the lexicographic successor/predecessor
// functions used to translate closed string ranges into half-open
// intervals (§4.6).
type Alphabet struct {
	chars   []rune
	index   map[rune]int
	maxLen  int
	minStr  string
}

// NewAlphabet builds an Alphabet from an ordered, deduplicated set of
// characters and the maximum string length the histogram will encode
// strings up to (used to bound `next_value` on the alphabet's maximum
// string).
func NewAlphabet(chars string, maxLen int) (*Alphabet, error) {
	if len(chars) == 0 {
		return nil, fmt.Errorf("types: alphabet must not be empty")
	}
	if maxLen <= 0 {
		return nil, fmt.Errorf("types: alphabet max length must be positive")
	}
	runes := []rune(chars)
	idx := make(map[rune]int, len(runes))
	for i, r := range runes {
		if _, dup := idx[r]; dup {
			return nil, fmt.Errorf("types: alphabet contains duplicate character %q", r)
		}
		idx[r] = i
	}
	return &Alphabet{
		chars:  runes,
		index:  idx,
		maxLen: maxLen,
		minStr: string(runes[0]),
	}, nil
}

// Contains reports whether every character of s is a member of the
// alphabet.
func (a *Alphabet) Contains(s string) bool {
	for _, r := range s {
		if _, ok := a.index[r]; !ok {
			return false
		}
	}
	return true
}

// Base returns the number of distinct characters in the alphabet, used by
// histogram code to encode strings as base-N ordinals (§4.6).
func (a *Alphabet) Base() int { return len(a.chars) }

// IndexOf returns r's position in the alphabet's character ordering, or
// -1 if r is not a member.
func (a *Alphabet) IndexOf(r rune) int {
	if idx, ok := a.index[r]; ok {
		return idx
	}
	return -1
}

// MinString is the alphabet's minimum string: its first character alone.
func (a *Alphabet) MinString() string { return a.minStr }

// MaxString is the alphabet's maximum representable string: maxLen copies
// of its last character.
func (a *Alphabet) MaxString() string {
	return strings.Repeat(string(a.chars[len(a.chars)-1]), a.maxLen)
}

// NextValue returns the lexicographic successor of s among strings of
// length 1..maxLen over the alphabet (§4.6). Strings compare with the
// usual prefix rule ("a" < "aa" < "ab"), so a string shorter than maxLen
// is succeeded by itself with the alphabet minimum appended; a string
// already at maxLen is succeeded by incrementing its rightmost
// non-maximum character and truncating everything after it. The
// alphabet's maximum string has no successor and is returned unchanged.
// Fails (Unsupported, per §4.6) if s contains a character outside the
// alphabet.
func (a *Alphabet) NextValue(s string) (string, error) {
	if !a.Contains(s) {
		return "", engerr.New(engerr.Unsupported, "UNKNOWN_ALPHABET_CHAR", fmt.Sprintf("types: %q contains a character outside the supported alphabet", s))
	}

	runes := []rune(s)
	if len(runes) < a.maxLen {
		return s + a.MinString(), nil
	}

	lastIdx := len(a.chars) - 1
	for i := len(runes) - 1; i >= 0; i-- {
		if pos := a.index[runes[i]]; pos < lastIdx {
			runes[i] = a.chars[pos+1]
			return string(runes[:i+1]), nil
		}
	}
	// every position already holds the alphabet's maximum character: s is
	// the alphabet's maximum string, which has no successor.
	return s, nil
}

// PreviousValue returns the lexicographic predecessor of s under the same
// bounded-length total order NextValue enumerates. Fails if s is outside
// the alphabet or is the alphabet's minimum string (which has no
// predecessor).
func (a *Alphabet) PreviousValue(s string) (string, error) {
	if !a.Contains(s) {
		return "", fmt.Errorf("types: %q contains a character outside the supported alphabet", s)
	}
	if s == a.MinString() {
		return "", fmt.Errorf("types: %q has no predecessor in the supported alphabet", s)
	}

	runes := []rune(s)
	lastChar := runes[len(runes)-1]
	if lastChar == a.chars[0] {
		// s was reached by appending the alphabet minimum to a shorter
		// string: the predecessor is that shorter string.
		return string(runes[:len(runes)-1]), nil
	}

	// s was reached by incrementing this position and truncating: the
	// predecessor decrements it and pads out to maxLen with the alphabet
	// maximum, the largest string sharing the decremented prefix.
	pos := a.index[lastChar]
	runes[len(runes)-1] = a.chars[pos-1]
	pad := a.maxLen - len(runes)
	return string(runes) + strings.Repeat(string(a.chars[len(a.chars)-1]), pad), nil
}
