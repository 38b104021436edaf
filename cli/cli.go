package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/flaptastic/flaptastic-go/model"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const AppName = "flaptastic"

const envPrefix = "FLAPTASTIC_"

type App struct {
	logger zerolog.Logger
	cli    *cli.App
	stdout io.Writer
	stderr io.Writer

	// resolved once in Before and shared by every command
	config model.RunConfig
}

func New() *App {
	return newApp(os.Stdout, os.Stderr)
}

func newApp(stdout, stderr io.Writer) *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		stdout: stdout,
		stderr: stderr,
		cli: &cli.App{
			Name:      AppName,
			Usage:     "Forward Go test results to Flaptastic",
			Writer:    stdout,
			ErrWriter: stderr,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "organization-id",
					Usage:   "Flaptastic organization ID",
					EnvVars: []string{envPrefix + "ORGANIZATION_ID"},
				},
				&cli.StringFlag{
					Name:    "api-token",
					Usage:   "Flaptastic API token",
					EnvVars: []string{envPrefix + "API_TOKEN"},
				},
				&cli.StringFlag{
					Name:    "service",
					Usage:   "Name of the service under test",
					EnvVars: []string{envPrefix + "SERVICE"},
				},
				&cli.StringFlag{
					Name:    "branch",
					Usage:   "Branch under test (default: current git branch)",
					EnvVars: []string{envPrefix + "BRANCH"},
				},
				&cli.StringFlag{
					Name:    "commit-id",
					Usage:   "Commit under test (default: current git commit)",
					EnvVars: []string{envPrefix + "COMMIT_ID"},
				},
				&cli.StringFlag{
					Name:    "link",
					Usage:   "Link to the CI job",
					EnvVars: []string{envPrefix + "LINK"},
				},
				&cli.IntFlag{
					Name:    "verbosity",
					Usage:   "Diagnostic output: 0 warnings only, 1 notices, 2 debug",
					EnvVars: []string{envPrefix + "VERBOSITY"},
					Value:   1,
				},
				&cli.StringFlag{
					Name:    "host",
					Usage:   "Ingestion host (default: " + model.DefaultHost + ")",
					EnvVars: []string{envPrefix + "HOST"},
				},
				&cli.StringFlag{
					Name:    "root",
					Usage:   "Project root reported paths are relative to (default: git top level)",
					EnvVars: []string{envPrefix + "ROOT"},
				},
				&cli.PathFlag{
					Name:    "config",
					Aliases: []string{"c"},
					Usage:   "YAML file providing defaults for the settings above",
					EnvVars: []string{envPrefix + "CONFIG"},
				},
				&cli.PathFlag{
					Name:  "metrics-file",
					Usage: "Write delivery metrics in Prometheus text format to this file on exit",
				},
				&cli.BoolFlag{
					Name:  "summary",
					Usage: "Print a summary table of observed tests on exit",
				},
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
			},
		},
	}
	app.cli.Before = app.before
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:            "test",
		Usage:           "Run go test and forward its results",
		ArgsUsage:       "[go test flags] [packages]",
		Action:          app.test,
		SkipFlagParsing: true,
		Description: `Runs 'go test -json' with the given arguments, prints the test output
and forwards the results of every package to Flaptastic.

The exit status is the exit status of go test. Delivery problems are
logged and never change it.

Examples:
  flaptastic test ./...
  flaptastic test -race -run TestFoo ./pkg/...`,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "ingest",
		Usage:     "Forward the results of an existing 'go test -json' stream",
		ArgsUsage: "[FILE]",
		Action:    app.ingest,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "echo",
				Usage: "Print the test output contained in the stream",
			},
		},
		Description: `Reads test2json events from FILE, or from stdin when FILE is omitted or "-".

Examples:
  go test -json ./... | flaptastic ingest --echo
  flaptastic ingest results.json`,
	})
	return app
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && len(commit) >= 8 {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}

func (a *App) before(ctx *cli.Context) error {
	config, err := a.resolveConfig(ctx)
	if err != nil {
		return err
	}
	a.config = config

	zerolog.SetGlobalLevel(logLevel(config.Verbosity))
	if ctx.Bool("verbose") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	a.logger.Debug().
		Str("service", config.Service).
		Str("branch", config.Branch).
		Str("commit", config.CommitID).
		Str("root", config.Root).
		Str("url", config.IngestURL()).
		Msg("Resolved configuration")
	return nil
}

// logLevel maps the verbosity threshold onto a log level.
func logLevel(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}
