package search

import "unicode/utf8"

// Distance returns the Levenshtein edit distance between a and b: the
// minimum number of single-rune insertions, deletions, and substitutions
// transforming one into the other.
func Distance(a, b string) int {
	if a == b {
		return 0
	}
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Single-row dynamic program over rb.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// fuzzyThreshold returns the maximum edit distance tolerated when expanding
// a query term: at least 1, growing by one per three runes of term length.
func fuzzyThreshold(term string) int {
	n := utf8.RuneCountInString(term) / 3
	if n < 1 {
		return 1
	}
	return n
}
