package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Extraction errors
	ErrExtraction       = fmt.Errorf("extraction failed")
	ErrSelectorNotFound = fmt.Errorf("selector not found")
	ErrPageTimeout      = fmt.Errorf("page load timed out")
	ErrEmptyPlaylist    = fmt.Errorf("playlist is empty")

	// Destination API errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrRateLimited        = fmt.Errorf("rate limited")
	ErrBadQuery           = fmt.Errorf("search query rejected")
	ErrPlaylistWrite      = fmt.Errorf("playlist write failed")
	ErrStaleCheckpoint    = fmt.Errorf("checkpoint does not match this run")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidArtifact = fmt.Errorf("invalid intermediate artifact")
)
