package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Extractor   ExtractorConfig   `toml:"extractor"`
	Matching    MatchingConfig    `toml:"matching"`
	Migration   MigrationConfig   `toml:"migration"`
	Paths       PathsConfig       `toml:"paths"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Anghami AnghamiConfig `toml:"anghami"`
}

// SpotifyConfig contains Spotify API credentials and the most recent OAuth token.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	RedirectURI  string    `toml:"redirect_uri"`
	AccessToken  string    `toml:"access_token,omitempty"`
	RefreshToken string    `toml:"refresh_token,omitempty"`
	TokenType    string    `toml:"token_type,omitempty"`
	Expiry       time.Time `toml:"expiry,omitempty"`
}

// AnghamiConfig holds the browser session used to skip the interactive login.
type AnghamiConfig struct {
	Cookie string `toml:"cookie"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ExtractorConfig controls the browser session and page scraping.
type ExtractorConfig struct {
	BrowserPath      string `toml:"browser_path"`
	Headless         bool   `toml:"headless"`
	UserDataDir      string `toml:"user_data_dir"`
	LoginURL         string `toml:"login_url"`
	PageTimeout      int    `toml:"page_timeout"` // seconds
	ScrollWait       int    `toml:"scroll_wait"`  // seconds
	PollIntervalMS   int    `toml:"poll_interval_ms"`
	MaxScrolls       int    `toml:"max_scrolls"`
	TitleSelector    string `toml:"title_selector"`
	ArtistSelector   string `toml:"artist_selector"`
	AlbumSelector    string `toml:"album_selector"`
	DurationSelector string `toml:"duration_selector"`
}

// MatchingConfig holds the tunables of the candidate scorer.
type MatchingConfig struct {
	Threshold           float64  `toml:"threshold"`
	TitleWeight         float64  `toml:"title_weight"`
	ArtistWeight        float64  `toml:"artist_weight"`
	DurationWeight      float64  `toml:"duration_weight"`
	DurationToleranceMS int      `toml:"duration_tolerance_ms"`
	SearchLimit         int      `toml:"search_limit"`
	Queries             []string `toml:"queries"`
}

// MigrationConfig controls destination playlist creation and API pacing.
type MigrationConfig struct {
	PlaylistName      string  `toml:"playlist_name"`
	Description       string  `toml:"description"`
	Public            bool    `toml:"public"`
	BatchSize         int     `toml:"batch_size"`
	MaxRetries        int     `toml:"max_retries"`
	BackoffMS         int     `toml:"backoff_ms"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// PathsConfig names the files written between and after stages.
type PathsConfig struct {
	Artifact  string `toml:"artifact"`
	Review    string `toml:"review"`
	ReportDir string `toml:"report_dir"`
}

// PageTimeoutDuration converts [ExtractorConfig.PageTimeout] to a [time.Duration].
func (e ExtractorConfig) PageTimeoutDuration() time.Duration {
	return time.Duration(e.PageTimeout) * time.Second
}

// ScrollWaitDuration converts [ExtractorConfig.ScrollWait] to a [time.Duration].
func (e ExtractorConfig) ScrollWaitDuration() time.Duration {
	return time.Duration(e.ScrollWait) * time.Second
}

// PollInterval converts [ExtractorConfig.PollIntervalMS] to a [time.Duration].
func (e ExtractorConfig) PollInterval() time.Duration {
	return time.Duration(e.PollIntervalMS) * time.Millisecond
}

// Backoff converts [MigrationConfig.BackoffMS] to a [time.Duration].
func (m MigrationConfig) Backoff() time.Duration {
	return time.Duration(m.BackoffMS) * time.Millisecond
}

// Update stores the token fields from an OAuth exchange.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: nil token", ErrInvalidInput)
	}
	s.AccessToken = token.AccessToken
	s.TokenType = token.TokenType
	s.Expiry = token.Expiry
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	return nil
}

// Token rebuilds the stored OAuth token, or returns nil if none has been saved.
func (s SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" && s.RefreshToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		Expiry:       s.Expiry,
	}
}

// Validate checks that the Spotify credentials are present and not the template placeholders.
func (s SpotifyConfig) Validate() error {
	if s.ClientID == "" || s.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", ErrMissingCredentials)
	}
	if strings.HasPrefix(s.ClientID, "your_") || strings.HasPrefix(s.ClientSecret, "your_") {
		return fmt.Errorf("%w: spotify credentials still hold the example placeholders", ErrInvalidCredentials)
	}
	if s.RedirectURI == "" {
		return fmt.Errorf("%w: spotify redirect_uri must be set", ErrMissingCredentials)
	}
	return nil
}

// Validate rejects out-of-range tunables.
func (c *Config) Validate() error {
	m := c.Matching
	if m.Threshold < 0 || m.Threshold > 1 {
		return fmt.Errorf("%w: matching.threshold must be within [0, 1], got %v", ErrInvalidConfig, m.Threshold)
	}
	if m.TitleWeight < 0 || m.ArtistWeight < 0 || m.DurationWeight < 0 {
		return fmt.Errorf("%w: matching weights must not be negative", ErrInvalidConfig)
	}
	if m.TitleWeight+m.ArtistWeight == 0 {
		return fmt.Errorf("%w: title_weight and artist_weight cannot both be zero", ErrInvalidConfig)
	}
	if m.SearchLimit < 1 || m.SearchLimit > 50 {
		return fmt.Errorf("%w: matching.search_limit must be within [1, 50], got %d", ErrInvalidConfig, m.SearchLimit)
	}
	if b := c.Migration.BatchSize; b < 1 || b > 100 {
		return fmt.Errorf("%w: migration.batch_size must be within [1, 100], got %d", ErrInvalidConfig, b)
	}
	if c.Migration.MaxRetries < 0 {
		return fmt.Errorf("%w: migration.max_retries must not be negative, got %d", ErrInvalidConfig, c.Migration.MaxRetries)
	}
	if c.Migration.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: migration.requests_per_second must be positive", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return WriteFileAtomic(path, buf.Bytes(), 0o600)
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: config file already exists at %s", ErrInvalidArgument, path)
	}

	if err := os.WriteFile(path, exampleConf, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
