// Package similarity implements the 0-100 string similarity scores used by
// the fuzzy matching stage. The token-set ratio is order-independent: shared
// tokens are factored out before the remainders are compared, so
// "tonys pizzeria" and "pizzeria tonys inc" score high despite ordering and
// extra tokens.
package similarity

import (
	"sort"
	"strings"
)

// Ratio returns the indel similarity of two strings on a 0-100 scale:
// twice the longest common subsequence over the combined length, so fully
// disjoint strings score 0. Two empty strings are identical (100); one empty
// string against a non-empty one scores 0.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	return int(float64(2*lcs(ra, rb))/float64(total)*100 + 0.5)
}

// lcs computes the longest common subsequence length with two rolling rows.
func lcs(a, b []rune) int {
	if len(b) > len(a) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
		for j := range curr {
			curr[j] = 0
		}
	}
	return prev[len(b)]
}

// TokenSortRatio tokenizes both strings, sorts the tokens, and compares the
// rejoined forms, making the score independent of word order.
func TokenSortRatio(a, b string) int {
	return Ratio(sortedJoin(tokens(a)), sortedJoin(tokens(b)))
}

// TokenSetRatio factors out the shared token set and scores the best of the
// intersection-vs-remainder comparisons. A string whose tokens are a subset
// of the other's scores 100.
func TokenSetRatio(a, b string) int {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 100
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var shared, onlyA, onlyB []string
	for tok := range ta {
		if tb[tok] {
			shared = append(shared, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range tb {
		if !ta[tok] {
			onlyB = append(onlyB, tok)
		}
	}

	base := sortedJoin(shared)
	combinedA := joinParts(base, sortedJoin(onlyA))
	combinedB := joinParts(base, sortedJoin(onlyB))

	best := Ratio(base, combinedA)
	if s := Ratio(base, combinedB); s > best {
		best = s
	}
	if s := Ratio(combinedA, combinedB); s > best {
		best = s
	}
	return best
}

func tokens(s string) []string {
	return strings.Fields(s)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

func sortedJoin(toks []string) string {
	sort.Strings(toks)
	return strings.Join(toks, " ")
}

func joinParts(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
