package knowledge

import "strings"

// relevanceFloor is the minimum score a search match must strictly exceed.
const relevanceFloor = 0.3

// minTokenLength is the shortest query token considered for matching.
// Shorter tokens ("a", "do", "is") carry no signal.
const minTokenLength = 3

// Relevance scores how well a stored question matches a query. Both strings
// are lowercased and split on whitespace; a query token of at least
// minTokenLength characters counts as a match when it contains, or is
// contained in, any question token. The score is the matched fraction of all
// query tokens, so it is always within [0,1]. A query with no tokens scores 0.
//
// This is a deliberately naive overlap heuristic with no stemming or IDF
// weighting; it works well enough for a small corpus of short canonical
// questions, and the search contract (range, floor, tie-break) leaves room
// to swap in a stronger scorer later.
func Relevance(query, question string) float64 {
	queryTokens := strings.Fields(strings.ToLower(query))
	if len(queryTokens) == 0 {
		return 0
	}
	questionTokens := strings.Fields(strings.ToLower(question))

	matches := 0
	for _, qt := range queryTokens {
		if len(qt) < minTokenLength {
			continue
		}
		for _, kt := range questionTokens {
			if strings.Contains(kt, qt) || strings.Contains(qt, kt) {
				matches++
				break
			}
		}
	}

	return float64(matches) / float64(len(queryTokens))
}
