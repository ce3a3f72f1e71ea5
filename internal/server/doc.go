// Package server runs the local HTTP endpoint that completes the Spotify authorization code flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] registers
// method-qualified patterns on an [http.ServeMux]; [RequestLogger] is the only middleware in use.
//
// # OAuth Callback Handler
//
// [OAuthHandler] validates the state parameter (CSRF protection), exchanges the authorization code
// through a [services.Exchanger] and publishes exactly one [OAuthResult]. Later requests are rejected
// to prevent replay.
//
// # Flow
//
// The auth command binds a [CallbackServer] on the configured host and port, opens the consent URL
// in the browser and waits in [AwaitToken] (two minutes by default). The server shuts down once a
// token arrives and the token is stored in config.toml.
package server
