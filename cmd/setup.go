package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/a2s/internal/shared"
)

// SetupConfig writes config.toml from the embedded template.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", r.configPath)

	r.writePlain("✓ Config written to %s\n", r.configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.spotify.client_id and client_secret from your Spotify app\n")
	r.writePlain("2. Run 'a2s auth' to connect your Spotify account\n")
	return nil
}

// SetupAnghami stores the Anghami session cookie from a "Copy as cURL" request, so extraction
// can skip the interactive login.
func (r *Runner) SetupAnghami(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var session *shared.CurlSession
	var err error
	if curlFile != "" {
		if session, err = shared.ParseCurlFile(curlFile); err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		if session, err = shared.ParseCurlCommand([]byte(curlCmd)); err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
	}

	if session.Cookie == "" {
		return fmt.Errorf("%w: the cURL command carries no cookies; copy a request made while logged in", shared.ErrInvalidInput)
	}
	if host := session.Host(); host != "" && !strings.Contains(host, "anghami") {
		r.logger.Warn("cURL request is not for an Anghami host", "host", host)
	}

	cookies := session.Cookies()
	r.logger.Debug("parsed session cookies", "count", len(cookies))
	r.config.Credentials.Anghami.Cookie = session.Cookie

	if r.configPath == "" {
		return fmt.Errorf("%w: no config path to save the session to", shared.ErrMissingConfig)
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.writePlain("✓ Anghami session saved (%d cookies)\n", len(cookies))
	r.writePlain("Config updated: %s\n", r.configPath)
	r.writePlainln("Next: run 'a2s extract --url <playlist>' to test the session.")
	return nil
}
