// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// globalFlags are accepted by every command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Write logs to this file instead of stderr",
		},
	}
}

func urlFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "url",
		Aliases:  []string{"u"},
		Usage:    "Anghami playlist URL",
		Required: required,
	}
}

func nameFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "name",
		Aliases: []string{"n"},
		Usage:   "Destination playlist name (defaults to the Anghami playlist name)",
	}
}

func freshFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "fresh",
		Usage: "Ignore any saved progress and create a new playlist",
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Print the result as JSON",
	}
}

// runCommand extracts a playlist and migrates it in one go.
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Extract an Anghami playlist and migrate it to Spotify",
		Flags:  []cli.Flag{urlFlag(true), nameFlag(), freshFlag(), jsonFlag()},
		Action: r.Run,
	}
}

// extractCommand only scrapes the playlist into the artifact file.
func extractCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "Extract an Anghami playlist to the artifact file",
		Flags: []cli.Flag{
			urlFlag(true),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Artifact path (defaults to paths.artifact)",
			},
			jsonFlag(),
		},
		Action: r.Extract,
	}
}

// migrateCommand migrates a previously extracted artifact.
func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Migrate an extracted artifact to Spotify",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "artifact",
				Aliases: []string{"a"},
				Usage:   "Artifact path (defaults to paths.artifact)",
			},
			nameFlag(),
			freshFlag(),
			jsonFlag(),
		},
		Action: r.Migrate,
	}
}

// authCommand runs the Spotify authorization code flow.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authenticate with Spotify using OAuth2",
		Action: r.Auth,
	}
}

// setupCommand handles configuration and source session setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write config.toml from the template",
				Action: r.SetupConfig,
			},
			{
				Name:  "anghami",
				Usage: "Store Anghami session cookies from a browser request",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
				},
				Action: r.SetupAnghami,
			},
		},
	}
}

// menuCommand returns the interactive menu, also used when no command is given.
func menuCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "menu",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the interactive menu",
		Flags:   []cli.Flag{urlFlag(false), nameFlag(), freshFlag()},
		Action:  r.Menu,
	}
}
