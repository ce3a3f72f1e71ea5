package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/a2s/internal/models"
	"github.com/desertthunder/a2s/internal/shared"
)

// Scopes requested during the authorization code flow.
var Scopes = []string{
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopeUserReadPrivate,
}

// NewAuthenticator builds the OAuth2 authenticator for the configured Spotify app.
func NewAuthenticator(cfg shared.SpotifyConfig) (*spotifyauth.Authenticator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(cfg.RedirectURI),
		spotifyauth.WithScopes(Scopes...),
	), nil
}

// NewAuthorizedClient returns an HTTP client that attaches tok, refreshing it when it expires,
// and sends every request through transport.
func NewAuthorizedClient(ctx context.Context, auth *spotifyauth.Authenticator, tok *oauth2.Token, transport http.RoundTripper) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: transport})
	return auth.Client(ctx, tok)
}

// SpotifyOpts configures a [SpotifyCatalog].
type SpotifyOpts struct {
	HTTPClient        *http.Client
	BaseURL           string // overrides the Web API root; must end in "/"
	RequestsPerSecond float64
	Logger            *log.Logger
}

// SpotifyCatalog implements [Catalog] on the Spotify Web API. Every call waits on a shared
// limiter so searches and playlist writes together stay under the configured request rate.
type SpotifyCatalog struct {
	client  *spotify.Client
	limiter *rate.Limiter
	logger  *log.Logger
	userID  string
}

// NewSpotifyCatalog creates a catalog client from opts.
func NewSpotifyCatalog(opts SpotifyOpts) *SpotifyCatalog {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	var clientOpts []spotify.ClientOption
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, spotify.WithBaseURL(opts.BaseURL))
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &SpotifyCatalog{
		client:  spotify.New(httpClient, clientOpts...),
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

func (s *SpotifyCatalog) Name() string {
	return "Spotify"
}

// Token returns the current, possibly refreshed, OAuth token.
func (s *SpotifyCatalog) Token() (*oauth2.Token, error) {
	return s.client.Token()
}

func (s *SpotifyCatalog) wait(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %w", shared.ErrTimeout, err)
	}
	return nil
}

// Search runs a track search. Rejected queries (400/404) are reported as [shared.ErrBadQuery].
func (s *SpotifyCatalog) Search(ctx context.Context, query string, limit int) ([]models.CandidateTrack, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	res, err := s.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, classify("search", err, shared.ErrBadQuery)
	}
	if res == nil || res.Tracks == nil {
		return []models.CandidateTrack{}, nil
	}

	out := make([]models.CandidateTrack, 0, len(res.Tracks.Tracks))
	for _, t := range res.Tracks.Tracks {
		out = append(out, toCandidate(t))
	}
	s.logger.Debug("search", "query", query, "results", len(out))
	return out, nil
}

func toCandidate(t spotify.FullTrack) models.CandidateTrack {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	return models.CandidateTrack{
		ID:         string(t.ID),
		URI:        string(t.URI),
		Title:      t.Name,
		Artists:    artists,
		Album:      t.Album.Name,
		DurationMS: int(t.Duration),
		ISRC:       t.ExternalIDs["isrc"],
	}
}

func (s *SpotifyCatalog) currentUser(ctx context.Context) (string, error) {
	if s.userID != "" {
		return s.userID, nil
	}
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return "", classify("current user", err, shared.ErrAPIRequest)
	}
	s.userID = user.ID
	return s.userID, nil
}

// CreatePlaylist creates a playlist owned by the authenticated user.
func (s *SpotifyCatalog) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	userID, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	pl, err := s.client.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return nil, classify("create playlist", err, shared.ErrPlaylistWrite)
	}

	s.logger.Info("created playlist", "id", pl.ID, "name", pl.Name)
	return &models.Playlist{ID: string(pl.ID), Name: pl.Name, URL: pl.ExternalURLs["spotify"]}, nil
}

// AddTracks appends ids to playlistID in order.
func (s *SpotifyCatalog) AddTracks(ctx context.Context, playlistID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) > MaxBatchSize {
		return fmt.Errorf("%w: %d tracks exceeds the batch limit of %d", shared.ErrInvalidArgument, len(ids), MaxBatchSize)
	}
	if err := s.wait(ctx); err != nil {
		return err
	}

	trackIDs := make([]spotify.ID, len(ids))
	for i, id := range ids {
		trackIDs[i] = spotify.ID(id)
	}

	if _, err := s.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), trackIDs...); err != nil {
		return classify("add tracks", err, shared.ErrPlaylistWrite)
	}
	return nil
}

// classify maps a Spotify client error onto the shared sentinels. Client errors (4xx other than
// 401 and 429) map to clientErr.
func classify(op string, err error, clientErr error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, shared.ErrRateLimited) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %s: %w", shared.ErrTokenExpired, op, err)
	}

	switch status := statusOf(err); {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s: %w", shared.ErrTokenExpired, op, err)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s: %w", shared.ErrRateLimited, op, err)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s: %w", shared.ErrServiceUnavailable, op, err)
	case status >= http.StatusBadRequest:
		return fmt.Errorf("%w: %s: %w", clientErr, op, err)
	default:
		return fmt.Errorf("%w: %s: %w", shared.ErrAPIRequest, op, err)
	}
}

func statusOf(err error) int {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	var apiErrPtr *spotify.Error
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Status
	}
	return 0
}
