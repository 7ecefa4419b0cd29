package textsim

import "sort"

// Scored is a candidate with its similarity to the query word.
type Scored struct {
	Text  string
	Score float64
}

// CloseMatches returns up to n candidates whose ratio to word is at least
// cutoff, best first. Equal scores are ordered by candidate text descending.
// n <= 0 or a cutoff outside [0, 1] returns nil.
func CloseMatches(word string, candidates []string, n int, cutoff float64) []Scored {
	if n <= 0 || cutoff < 0 || cutoff > 1 {
		return nil
	}

	m := &Matcher{}
	m.SetB(word)

	var result []Scored
	for _, c := range candidates {
		m.SetA(c)
		if m.RealQuickRatio() < cutoff || m.QuickRatio() < cutoff {
			continue
		}
		if r := m.Ratio(); r >= cutoff {
			result = append(result, Scored{Text: c, Score: r})
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].Text > result[j].Text
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

// BestMatch returns the single best candidate at or above cutoff.
func BestMatch(word string, candidates []string, cutoff float64) (string, bool) {
	top := CloseMatches(word, candidates, 1, cutoff)
	if len(top) == 0 {
		return "", false
	}
	return top[0].Text, true
}
