package compiler

import "fmt"

// maxSuggestionDistance bounds how far a key may be from a comparator name
// and still be reported as a misspelt comparator.
const maxSuggestionDistance = 2

// closestName returns the name nearest to unknown and its edit distance.
func closestName(unknown string, names []string) (string, int) {
	best, bestDist := "", -1
	for _, name := range names {
		dist := levenshteinDistance(unknown, name)
		if bestDist < 0 || dist < bestDist {
			best, bestDist = name, dist
		}
	}
	return best, bestDist
}

// suggestComparator returns a hint for an unknown comparator name, or "" when
// nothing registered is close.
func suggestComparator(unknown string, names []string) string {
	best, dist := closestName(unknown, names)
	if dist < 0 || dist > maxSuggestionDistance {
		return ""
	}
	return fmt.Sprintf("did you mean '%s'?", best)
}

// looksLikeComparator reports whether key is a near miss of a registered name.
func looksLikeComparator(key string, names []string) bool {
	_, dist := closestName(key, names)
	return dist >= 0 && dist <= maxSuggestionDistance
}

func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}

	len1, len2 := len(s1), len(s2)
	prev := make([]int, len2+1)
	curr := make([]int, len2+1)
	for j := 0; j <= len2; j++ {
		prev[j] = j
	}

	for i := 1; i <= len1; i++ {
		curr[0] = i
		for j := 1; j <= len2; j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len2]
}
