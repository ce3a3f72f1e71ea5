package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/a2s/internal/server"
	"github.com/desertthunder/a2s/internal/services"
	"github.com/desertthunder/a2s/internal/shared"
)

const (
	authTimeout     = 2 * time.Minute
	shutdownTimeout = 5 * time.Second
)

// Auth runs the Spotify authorization code flow and stores the token in the config file.
//
// The callback server is listening before the browser is opened, so a fast redirect cannot miss it.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	auth := r.authorizer
	if auth == nil {
		a, err := services.NewAuthenticator(creds)
		if err != nil {
			return err
		}
		auth = a
	}

	path, err := server.CallbackPath(creds.RedirectURI)
	if err != nil {
		return err
	}
	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state: %w", err)
	}

	logger := shared.WithLogger(r.logger, "component", "oauth")
	handler := server.NewOAuthHandler(auth, state, path)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(logger))
	router.Handler(handler)

	addr := net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))
	srv, err := server.Listen(addr, router)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("callback server shutdown failed", "error", err)
		}
	}()
	logger.Debug("callback server listening", "addr", srv.Addr(), "path", path)

	authURL := auth.AuthURL(state)
	r.writePlain("Opening browser for Spotify authorization...\n")
	if err := r.openBrowser(authURL); err != nil {
		logger.Warn("could not open browser", "error", err)
		r.writePlain("Open this URL in your browser:\n%s\n", authURL)
	}
	r.writePlain("Waiting for authorization (timeout %s)...\n", authTimeout)

	token, err := server.AwaitToken(ctx, handler, srv, authTimeout)
	if err != nil {
		return err
	}
	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.writePlain("✓ Spotify authorization successful\n")
	if r.configPath != "" {
		r.writePlain("Token saved to %s\n", r.configPath)
	}
	return nil
}
