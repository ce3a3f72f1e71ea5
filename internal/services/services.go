// package services defines the destination catalog interface and its Spotify implementation
package services

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/desertthunder/a2s/internal/matcher"
	"github.com/desertthunder/a2s/internal/models"
)

// Catalog is a destination music service that tracks can be searched in and playlists written to.
type Catalog interface {
	matcher.Searcher

	// CreatePlaylist creates an empty playlist owned by the authenticated user.
	CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error)

	// AddTracks appends ids to the playlist in order. At most 100 ids may be sent per call.
	AddTracks(ctx context.Context, playlistID string, ids []string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// Exchanger converts an OAuth authorization code into a token.
type Exchanger interface {
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// Authorizer is an [Exchanger] that can also build the consent URL.
type Authorizer interface {
	Exchanger
	AuthURL(state string, opts ...oauth2.AuthCodeOption) string
}

// MaxBatchSize is the most track ids accepted by a single [Catalog.AddTracks] call.
const MaxBatchSize = 100
