// Package services defines the [Catalog] interface for destination music services and implements it for Spotify.
//
// # Catalog Interface
//
// The migration pipeline only needs three things from a destination: free-text track search,
// playlist creation and ordered track appends. [Catalog] embeds [matcher.Searcher] so the same value
// serves both the matcher and the migrator.
//
// # Spotify Implementation
//
// [SpotifyCatalog] wraps the zmb3/spotify client. Requests are paced by a [rate.Limiter] shared across
// search and playlist calls. The OAuth client built by [NewAuthorizedClient] refreshes expired tokens
// using the stored refresh token.
//
// # Retries
//
// [RetryTransport] sits below the OAuth transport. It retries 429 and 5xx responses, honouring
// Retry-After, and returns [RateLimitError] once a request is still throttled after the final attempt.
//
// # Error Handling
//
// Spotify errors are mapped onto shared sentinels:
//   - [shared.ErrBadQuery] : a search the API rejected (400/404); the matcher skips that query
//   - [shared.ErrTokenExpired] : 401, or a failed token refresh
//   - [shared.ErrRateLimited] : throttled after every retry
//   - [shared.ErrServiceUnavailable] : 5xx after every retry
//   - [shared.ErrPlaylistWrite] : playlist creation or append rejected
package services
