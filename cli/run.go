package cli

// This file contains the test and ingest commands, which feed a
// 'go test -json' stream through the observer.

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"al.essio.dev/pkg/shellescape"
	gocmd "github.com/flaptastic/flaptastic-go/cli/go"
	"github.com/flaptastic/flaptastic-go/delivery"
	"github.com/flaptastic/flaptastic-go/gotest"
	"github.com/flaptastic/flaptastic-go/observer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

// run is one observed test run.
type run struct {
	registry *prometheus.Registry
	listener *observer.Listener
	locator  *gotest.Locator
}

func (a *App) newRun() (*run, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	registry := prometheus.NewRegistry()
	client := delivery.New(a.logger, a.config, delivery.WithRegisterer(registry))
	return &run{
		registry: registry,
		listener: observer.New(a.logger, a.config, client),
		locator:  gotest.NewLocator(a.logger, cwd),
	}, nil
}

func (a *App) replayer(r *run, echo io.Writer) *gotest.Replayer {
	return gotest.NewReplayer(a.logger, r.listener, r.locator, echo)
}

// finish prints the summary and writes the metrics file when requested.
// Neither can fail the run.
func (a *App) finish(ctx *cli.Context, r *run) {
	if ctx.Bool("summary") {
		fmt.Fprint(a.stderr, r.listener.Summary().Format())
	}
	if path := ctx.Path("metrics-file"); path != "" {
		if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
			a.logger.Warn().Err(err).Str("path", path).Msg("Failed to write metrics file")
		} else {
			a.logger.Debug().Str("path", path).Msg("Wrote metrics file")
		}
	}
}

func (a *App) test(ctx *cli.Context) error {
	r, err := a.newRun()
	if err != nil {
		return err
	}

	args := gocmd.TestJSONArgs(ctx.Args().Slice())
	cmd := gocmd.Command(ctx.Context, args...)
	a.logger.Debug().
		Str("command", shellescape.QuoteCommand(append([]string{"go"}, args...))).
		Msg("Running tests")

	pr, pw := io.Pipe()
	cmd.Stdin = os.Stdin
	cmd.Stdout = pw
	cmd.Stderr = a.stderr

	exitCode := 0
	var g errgroup.Group
	g.Go(func() error {
		err := cmd.Run()
		_ = pw.Close()

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to run go test: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := a.replayer(r, a.stdout).Run(ctx.Context, gotest.NewDecoder(pr, a.stdout))
		if err != nil {
			_ = pr.CloseWithError(err)
			return fmt.Errorf("failed to read test events: %w", err)
		}
		return nil
	})
	err = g.Wait()
	a.finish(ctx, r)
	if err != nil {
		return err
	}

	if exitCode != 0 {
		a.logger.Debug().Int("exit_code", exitCode).Msg("go test failed")
		return cli.Exit("", exitCode)
	}
	return nil
}

func (a *App) ingest(ctx *cli.Context) error {
	if ctx.NArg() > 1 {
		return fmt.Errorf("expected at most one file, got %d", ctx.NArg())
	}

	var in io.Reader = os.Stdin
	if path := ctx.Args().First(); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open test events: %w", err)
		}
		defer f.Close()
		in = f
	}

	r, err := a.newRun()
	if err != nil {
		return err
	}

	var echo io.Writer
	if ctx.Bool("echo") {
		echo = a.stdout
	}

	err = a.replayer(r, echo).Run(ctx.Context, gotest.NewDecoder(in, echo))
	a.finish(ctx, r)
	if err != nil {
		return fmt.Errorf("failed to read test events: %w", err)
	}
	return nil
}
