package normalize

import "strings"

// NameSimilarity scores two names in [0,1]. Exact case-insensitive match is
// 1.0. Otherwise trigram overlap over the normalized names; when either side
// is too short to produce a trigram the comparison falls back to exact-only.
func NameSimilarity(a, b string) float64 {
	na := Name(a)
	nb := Name(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}

	ta := trigrams(na)
	tb := trigrams(nb)
	if len(ta) == 0 || len(tb) == 0 {
		// Exact-only fallback; inequality was already established.
		return 0
	}

	shared := 0
	for g := range ta {
		if _, ok := tb[g]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// trigrams pads each word with leading/trailing markers the way pg_trgm does,
// so short words still contribute and word boundaries matter.
func trigrams(s string) map[string]struct{} {
	grams := make(map[string]struct{})
	for _, word := range strings.Fields(s) {
		padded := "  " + word + " "
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			grams[string(runes[i:i+3])] = struct{}{}
		}
	}
	return grams
}
