// package matcher scores destination catalog candidates against scraped source tracks.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/a2s/internal/models"
	"github.com/desertthunder/a2s/internal/shared"
)

// Searcher runs a free-text catalog search and returns at most limit candidates in relevance order.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.CandidateTrack, error)
}

// Strategy names a way of building a search query from a source track.
type Strategy string

const (
	StrategyTitleArtist      Strategy = "title_artist"       // raw title + primary artist
	StrategyCleanTitleArtist Strategy = "clean_title_artist" // qualifier-free title + primary artist without "The"
	StrategyArtist           Strategy = "artist"             // clean title scoped with an artist: field filter
	StrategyTitle            Strategy = "title"              // clean title alone
)

// DefaultStrategies is the fallback order used when none is configured.
var DefaultStrategies = []Strategy{StrategyTitleArtist, StrategyCleanTitleArtist, StrategyArtist, StrategyTitle}

// Query is one search issued for a track.
type Query struct {
	Strategy Strategy
	Text     string
}

// Options holds the scorer tunables.
type Options struct {
	Threshold           float64
	TitleWeight         float64
	ArtistWeight        float64
	DurationWeight      float64
	DurationToleranceMS int
	SearchLimit         int
	Strategies          []Strategy
}

// OptionsFromConfig converts the [shared.MatchingConfig] section, rejecting unknown strategy names.
func OptionsFromConfig(c shared.MatchingConfig) (Options, error) {
	opts := Options{
		Threshold:           c.Threshold,
		TitleWeight:         c.TitleWeight,
		ArtistWeight:        c.ArtistWeight,
		DurationWeight:      c.DurationWeight,
		DurationToleranceMS: c.DurationToleranceMS,
		SearchLimit:         c.SearchLimit,
	}
	for _, q := range c.Queries {
		s := Strategy(q)
		switch s {
		case StrategyTitleArtist, StrategyCleanTitleArtist, StrategyArtist, StrategyTitle:
			opts.Strategies = append(opts.Strategies, s)
		default:
			return Options{}, fmt.Errorf("%w: unknown query strategy %q", shared.ErrInvalidConfig, q)
		}
	}
	if len(opts.Strategies) == 0 {
		opts.Strategies = DefaultStrategies
	}
	return opts, nil
}

// Matcher finds the best destination track for each source track.
type Matcher struct {
	searcher Searcher
	opts     Options
	logger   *log.Logger
}

// New creates a [Matcher]. A nil logger discards output.
func New(searcher Searcher, opts Options, logger *log.Logger) *Matcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 10
	}
	if len(opts.Strategies) == 0 {
		opts.Strategies = DefaultStrategies
	}
	return &Matcher{searcher: searcher, opts: opts, logger: logger}
}

// Queries builds the de-duplicated, non-empty queries for a track in strategy order.
func (m *Matcher) Queries(t models.SourceTrack) []Query {
	title := collapseSpaces(t.Title)
	artist := PrimaryArtist(t.Artist)
	cleanTitle := CleanTitle(t.Title)
	cleanArtist := CleanArtist(t.Artist)

	seen := map[string]bool{}
	var out []Query
	add := func(s Strategy, text string) {
		text = strings.TrimSpace(text)
		key := strings.ToLower(text)
		if text == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, Query{Strategy: s, Text: text})
	}

	for _, s := range m.opts.Strategies {
		switch s {
		case StrategyTitleArtist:
			if artist != "" {
				add(s, title+" "+artist)
			}
		case StrategyCleanTitleArtist:
			if cleanArtist != "" {
				add(s, cleanTitle+" "+cleanArtist)
			}
		case StrategyArtist:
			if cleanArtist != "" {
				add(s, fmt.Sprintf("%s artist:%q", cleanTitle, cleanArtist))
			}
		case StrategyTitle:
			add(s, cleanTitle)
		}
	}
	return out
}

// Score combines title, artist, and (when both sides know it) duration similarity into [0, 1].
func (m *Matcher) Score(src models.SourceTrack, c models.CandidateTrack) float64 {
	title := Similarity(Normalize(src.Title), Normalize(c.Title))
	artist := ArtistSimilarity(src.Artist, c.Artists)

	total := m.opts.TitleWeight*title + m.opts.ArtistWeight*artist
	weights := m.opts.TitleWeight + m.opts.ArtistWeight
	if src.DurationMS != nil && *src.DurationMS > 0 && c.DurationMS > 0 && m.opts.DurationWeight > 0 {
		total += m.opts.DurationWeight * DurationCloseness(*src.DurationMS, c.DurationMS, m.opts.DurationToleranceMS)
		weights += m.opts.DurationWeight
	}
	if weights == 0 {
		return 0
	}
	return total / weights
}

type scored struct {
	candidate   models.CandidateTrack
	score       float64
	exactArtist bool
	query       string
}

// rank orders candidates by score, then exact artist match; equal entries keep first-seen order.
func rank(pool []scored) {
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].score != pool[j].score {
			return pool[i].score > pool[j].score
		}
		return pool[i].exactArtist && !pool[j].exactArtist
	})
}

// Match searches for src and returns exactly one result.
//
// Queries run in strategy order and stop at the first one that yields an acceptable candidate. A query the API
// rejects as malformed is skipped; any other search error is returned with the partial result.
func (m *Matcher) Match(ctx context.Context, position int, src models.SourceTrack) (models.MatchResult, error) {
	res := models.MatchResult{Position: position, Source: src, Status: models.StatusNotFound}
	if strings.TrimSpace(src.Title) == "" {
		res.Reason = models.ReasonInvalidTrack
		return res, nil
	}

	srcArtist := Normalize(PrimaryArtist(src.Artist))
	seen := map[string]bool{}
	var pool []scored

	for _, q := range m.Queries(src) {
		res.Queries = append(res.Queries, q.Text)

		found, err := m.searcher.Search(ctx, q.Text, m.opts.SearchLimit)
		if err != nil {
			if errors.Is(err, shared.ErrBadQuery) {
				m.logger.Warn("search query rejected, skipping", "query", q.Text, "error", err)
				continue
			}
			return res, err
		}

		for _, c := range found {
			if c.ID == "" || seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			pool = append(pool, scored{
				candidate:   c,
				score:       m.Score(src, c),
				exactArtist: srcArtist != "" && hasArtist(c.Artists, srcArtist),
				query:       q.Text,
			})
		}

		rank(pool)
		if len(pool) > 0 && pool[0].score >= m.opts.Threshold {
			best := pool[0]
			res.Status = models.StatusMatched
			res.Match = &best.candidate
			res.Confidence = best.score
			res.Query = best.query
			m.logger.Debug("matched", "track", src.String(), "candidate", best.candidate.ID, "score", best.score, "strategy", q.Strategy)
			return res, nil
		}
	}

	if len(pool) == 0 {
		res.Reason = models.ReasonNoResults
		return res, nil
	}

	best := pool[0]
	res.Reason = models.ReasonBelowThreshold
	res.BestScore = best.score
	res.BestCandidate = &best.candidate
	m.logger.Debug("no candidate above threshold", "track", src.String(), "best", best.candidate.ID, "score", best.score)
	return res, nil
}

func hasArtist(artists []string, normalized string) bool {
	for _, a := range artists {
		if Normalize(a) == normalized {
			return true
		}
	}
	return false
}
