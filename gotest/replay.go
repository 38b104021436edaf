package gotest

// This file contains the Replayer, which turns the interleaved events of a
// `go test -json` run into sequential lifecycle callbacks, one suite per
// package.

import (
	"context"
	"errors"
	"io"
	"sort"

	"github.com/flaptastic/flaptastic-go/model"
	"github.com/rs/zerolog"
)

// Listener receives the replayed lifecycle callbacks. It is implemented by
// *observer.Listener.
type Listener interface {
	StartSuite(name string)
	StartTest(tc model.TestCase)
	AddError(tc model.TestCase, err model.CapturedError)
	AddFailure(tc model.TestCase, err model.CapturedError)
	AddSkipped(tc model.TestCase)
	AddIncomplete(tc model.TestCase)
	EndTest(tc model.TestCase)
	EndSuite(ctx context.Context, name string)
}

type testState struct {
	name   string
	output []string
	action string
}

type packageState struct {
	name      string
	// latest attempt by test name
	tests     map[string]*testState
	started   []*testState
	completed []*testState
}

// Replayer buffers events per package and replays a package into the
// Listener once the package finishes.
type Replayer struct {
	logger   zerolog.Logger
	listener Listener
	locator  *Locator
	// echo receives the human-readable test output, may be nil
	echo io.Writer

	packages map[string]*packageState
}

// NewReplayer returns a Replayer feeding listener.
func NewReplayer(logger zerolog.Logger, listener Listener, locator *Locator, echo io.Writer) *Replayer {
	return &Replayer{
		logger:   logger,
		listener: listener,
		locator:  locator,
		echo:     echo,
		packages: make(map[string]*packageState),
	}
}

// Run consumes the decoder until the stream ends, then flushes every
// package that never reported a result.
func (r *Replayer) Run(ctx context.Context, dec *Decoder) error {
	for {
		event, err := dec.Next()
		if errors.Is(err, io.EOF) {
			r.Flush(ctx)
			return nil
		}
		if err != nil {
			r.Flush(ctx)
			return err
		}
		r.Handle(ctx, event)
	}
}

// Handle processes a single event.
func (r *Replayer) Handle(ctx context.Context, event Event) {
	if (event.Action == ActionOutput || event.Action == ActionBuildOutput) && r.echo != nil {
		_, _ = io.WriteString(r.echo, event.Output)
	}
	if event.Package == "" {
		return
	}

	pkg := r.pkg(event.Package)
	if event.Test == "" {
		if terminal(event.Action) {
			r.replay(ctx, pkg)
			delete(r.packages, pkg.name)
		}
		return
	}

	// -count=N runs a test N times under the same name, each run is its
	// own attempt
	test, ok := pkg.tests[event.Test]
	if !ok || (test.action != "" && (event.Action == ActionRun || terminal(event.Action))) {
		test = &testState{name: event.Test}
		pkg.tests[event.Test] = test
		pkg.started = append(pkg.started, test)
	}

	switch {
	case event.Action == ActionOutput:
		test.output = append(test.output, event.Output)
	case terminal(event.Action) && test.action == "":
		test.action = event.Action
		pkg.completed = append(pkg.completed, test)
	}
}

// Flush replays every package still open, in name order.
func (r *Replayer) Flush(ctx context.Context) {
	names := make([]string, 0, len(r.packages))
	for name := range r.packages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r.logger.Debug().Str("package", name).Msg("Package ended without a result")
		r.replay(ctx, r.packages[name])
		delete(r.packages, name)
	}
}

func (r *Replayer) pkg(name string) *packageState {
	pkg, ok := r.packages[name]
	if !ok {
		pkg = &packageState{name: name, tests: make(map[string]*testState)}
		r.packages[name] = pkg
	}
	return pkg
}

func (r *Replayer) replay(ctx context.Context, pkg *packageState) {
	r.listener.StartSuite(pkg.name)

	for _, test := range pkg.completed {
		tc := r.locator.Locate(pkg.name, test.name)
		r.listener.StartTest(tc)
		switch test.action {
		case ActionSkip:
			r.listener.AddSkipped(tc)
		case ActionFail:
			r.addFailure(pkg, test, tc)
		}
		r.listener.EndTest(tc)
	}

	for _, test := range pkg.started {
		if test.action != "" {
			continue
		}
		tc := r.locator.Locate(pkg.name, test.name)
		r.listener.StartTest(tc)
		r.listener.AddIncomplete(tc)
		r.listener.EndTest(tc)
	}

	r.listener.EndSuite(ctx, pkg.name)
}

func (r *Replayer) addFailure(pkg *packageState, test *testState, tc model.TestCase) {
	failure := ParseFailure(test.output, r.locator.Dir(pkg.name))
	if !failure.Located() {
		failure.Err.File = tc.File
		failure.Err.Line = tc.Line
	}

	if failure.Panic {
		r.listener.AddError(tc, failure.Err)
		return
	}
	r.listener.AddFailure(tc, failure.Err)
}
