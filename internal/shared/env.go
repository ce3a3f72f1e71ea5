package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override config.toml values.
const (
	EnvSpotifyClientID     = "A2S_SPOTIFY_CLIENT_ID"
	EnvSpotifyClientSecret = "A2S_SPOTIFY_CLIENT_SECRET"
	EnvSpotifyRedirectURI  = "A2S_SPOTIFY_REDIRECT_URI"
	EnvAnghamiCookies      = "A2S_ANGHAMI_COOKIES"
)

// LoadEnv loads variables from the given .env files into the process environment.
//
// Missing files are ignored; variables already set in the environment are not overwritten.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("%w: failed to load %s: %v", ErrInvalidConfig, p, err)
		}
	}
	return nil
}

// ApplyEnv overrides credential fields with any non-empty environment values.
func (c *Config) ApplyEnv() {
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	override(&c.Credentials.Spotify.ClientID, EnvSpotifyClientID)
	override(&c.Credentials.Spotify.ClientSecret, EnvSpotifyClientSecret)
	override(&c.Credentials.Spotify.RedirectURI, EnvSpotifyRedirectURI)
	override(&c.Credentials.Anghami.Cookie, EnvAnghamiCookies)
}
