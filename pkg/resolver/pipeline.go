package resolver

import (
	"sort"

	"github.com/bastiangx/fqwb/internal/utils"
)

// LookupFunc returns the candidates of one code in declared order.
type LookupFunc func(code string) []string

// OrderCodes puts the original code first and the other codes in
// lexicographic order, dropping repeats.
func OrderCodes(original string, codes []string) []string {
	rest := make([]string, 0, len(codes))
	seen := utils.NewSeenFilter(len(codes) + 1)
	seen.ShouldInclude(original)
	for _, c := range codes {
		if seen.ShouldInclude(c) {
			rest = append(rest, c)
		}
	}
	sort.Strings(rest)
	return append([]string{original}, rest...)
}

// Gather looks up every code in order and concatenates the results.
func Gather(codes []string, lookup LookupFunc) []string {
	var out []string
	for _, c := range codes {
		out = append(out, lookup(c)...)
	}
	return out
}

// Dedup keeps the first occurrence of each candidate.
func Dedup(cands []string) []string {
	seen := utils.NewSeenFilter(len(cands))
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		if seen.ShouldInclude(c) {
			out = append(out, c)
		}
	}
	return out
}

// Rank stable-sorts cands by usage count, highest first. Candidates with
// equal counts keep their incoming order. cands is sorted in place.
func Rank(cands []string, counts map[string]int) []string {
	if len(counts) == 0 {
		return cands
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return counts[cands[i]] > counts[cands[j]]
	})
	return cands
}
