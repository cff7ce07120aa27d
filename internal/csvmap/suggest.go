package csvmap

import "strings"

// maxSuggestDistance bounds how far a misspelt kind may be from a known one.
const maxSuggestDistance = 2

// suggestKind returns the known kind spelling closest to name, or "".
func suggestKind(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	best, bestDist := "", maxSuggestDistance+1
	for alias := range kindAliases {
		d := editDistance(name, alias)
		// ties go to the shorter, then alphabetically first, spelling
		if d < bestDist || d == bestDist && (len(alias) < len(best) || len(alias) == len(best) && alias < best) {
			best, bestDist = alias, d
		}
	}
	if bestDist > maxSuggestDistance {
		return ""
	}
	return best
}

// editDistance is the optimal string alignment variant of Damerau-Levenshtein:
// insertions, deletions, substitutions and adjacent transpositions cost 1.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	// three rolling rows: two back (for transpositions), previous, current
	prev2 := make([]int, len(rb)+1)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				cur[j] = min(cur[j], prev2[j-2]+1)
			}
		}
		prev2, prev, cur = prev, cur, prev2
	}
	return prev[len(rb)]
}
