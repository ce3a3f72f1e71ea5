package matcher

import (
	"math"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

var levenshtein = metrics.NewLevenshtein()

// Similarity compares two already-normalized strings and returns a value in [0, 1].
//
// It is the larger of the Levenshtein similarity and the word-token Jaccard overlap, so both small typos
// and reordered words ("beatles the" / "the beatles") score well. Empty input scores 0. Similarity is symmetric.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return math.Max(strutil.Similarity(a, b, levenshtein), tokenJaccard(a, b))
}

func tokenJaccard(a, b string) float64 {
	ta := strutil.UniqueSlice(strings.Fields(a))
	tb := strutil.UniqueSlice(strings.Fields(b))
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for _, tok := range ta {
		if strutil.SliceContains(tb, tok) {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}

// ArtistSimilarity compares the source artist credit with a candidate's artist list.
//
// The best of the per-artist comparisons and the joined-credit comparison wins, using both the full and the primary
// source credit, so "Ed Sheeran, Justin Bieber" still matches a candidate crediting only "Ed Sheeran".
func ArtistSimilarity(source string, candidates []string) float64 {
	full := Normalize(source)
	primary := Normalize(PrimaryArtist(source))

	normalized := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if n := Normalize(c); n != "" {
			normalized = append(normalized, n)
		}
	}
	if len(normalized) == 0 {
		return 0
	}

	best := Similarity(full, strings.Join(normalized, " "))
	for _, n := range normalized {
		best = math.Max(best, Similarity(full, n))
		best = math.Max(best, Similarity(primary, n))
	}
	return best
}

// DurationCloseness is 1 for identical durations, falling linearly to 0 at a difference of tolerance.
func DurationCloseness(a, b, tolerance int) float64 {
	if tolerance <= 0 {
		if a == b {
			return 1
		}
		return 0
	}
	diff := math.Abs(float64(a - b))
	return math.Max(0, 1-diff/float64(tolerance))
}
