package repository

import (
	"strings"
	"unicode"
)

// trigramSet extracts the character trigram set of s the way pg_trgm does:
// case-folded, split on non-alphanumeric runes, each word padded with two
// leading spaces and one trailing space before 3-gram extraction.
func trigramSet(s string) map[string]struct{} {
	set := make(map[string]struct{})

	for _, word := range splitWords(s) {
		runes := []rune("  " + word + " ")
		for i := 0; i+3 <= len(runes); i++ {
			set[string(runes[i:i+3])] = struct{}{}
		}
	}

	return set
}

func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// TrigramSimilarity returns the trigram similarity of two strings on a 0-1
// scale: shared trigrams divided by the size of the trigram union. Returns 0
// when either string yields no trigrams.
func TrigramSimilarity(a, b string) float64 {
	ta := trigramSet(a)
	tb := trigramSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}

	union := len(ta) + len(tb) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}
