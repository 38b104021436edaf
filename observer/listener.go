package observer

// This file contains the lifecycle coordinator that tracks the in-flight
// test between its start and end callbacks and triggers delivery at suite
// boundaries.

import (
	"context"
	"sync"

	"github.com/flaptastic/flaptastic-go/model"
	"github.com/rs/zerolog"
)

// Deliverer ships a batch of records. Implementations must absorb every
// failure; the listener drops the batch once Deliver returns.
type Deliverer interface {
	Deliver(ctx context.Context, records []model.ResultRecord)
}

// Listener receives lifecycle callbacks from the host test framework.
// Callbacks are expected in the order StartSuite, (StartTest, Add*, EndTest)*,
// EndSuite. All methods are safe for concurrent use, but an interleaving of
// two tests on the same Listener mixes their outcomes.
type Listener struct {
	logger    zerolog.Logger
	config    model.RunConfig
	builder   Builder
	deliverer Deliverer

	mu         sync.Mutex
	introduced bool
	outcome    model.Outcome
	buffer     Buffer
	summary    Summary
}

// New returns a Listener delivering through d.
func New(logger zerolog.Logger, config model.RunConfig, d Deliverer) *Listener {
	return &Listener{
		logger:    logger,
		config:    config,
		builder:   Builder{Root: config.Root},
		deliverer: d,
		outcome:   model.Outcome{Category: model.CategoryPending},
		summary:   newSummary(),
	}
}

// StartSuite announces, once per Listener, whether results will be delivered.
func (l *Listener) StartSuite(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.summary.Suites++
	l.logger.Debug().Str("suite", name).Msg("Suite started")

	if l.introduced {
		return
	}
	l.introduced = true

	if missing := l.config.Missing(); len(missing) > 0 {
		l.logger.Info().
			Strs("missing", missing).
			Msg("Flaptastic missing configuration detected. Delivery to Flaptastic will not be attempted")
		return
	}
	l.logger.Info().Msg("Flaptastic activated for this test run")
}

// StartTest optimistically marks the test as passed.
func (l *Listener) StartTest(tc model.TestCase) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.outcome = model.Outcome{Category: model.CategoryPassed}
}

// AddError records that the test stopped on an unexpected error.
func (l *Listener) AddError(tc model.TestCase, err model.CapturedError) {
	l.set(tc, model.CategoryError, &err)
}

// AddFailure records that an assertion in the test failed.
func (l *Listener) AddFailure(tc model.TestCase, err model.CapturedError) {
	l.set(tc, model.CategoryFailure, &err)
}

func (l *Listener) AddWarning(tc model.TestCase) {
	l.set(tc, model.CategoryWarning, nil)
}

func (l *Listener) AddIncomplete(tc model.TestCase) {
	l.set(tc, model.CategoryIncomplete, nil)
}

func (l *Listener) AddRisky(tc model.TestCase) {
	l.set(tc, model.CategoryRisky, nil)
}

func (l *Listener) AddSkipped(tc model.TestCase) {
	l.set(tc, model.CategorySkipped, nil)
}

func (l *Listener) set(tc model.TestCase, category model.Category, err *model.CapturedError) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.outcome = model.Outcome{Category: category, Err: err}
}

// EndTest consumes the current outcome. Passed, failed and errored tests
// are buffered; every other outcome is dropped.
func (l *Listener) EndTest(tc model.TestCase) {
	l.mu.Lock()
	defer l.mu.Unlock()

	outcome := l.outcome
	l.outcome = model.Outcome{Category: model.CategoryPending}

	switch outcome.Category {
	case model.CategoryPassed:
		l.add(l.builder.BuildPassed(tc))
	case model.CategoryFailure, model.CategoryError:
		captured := model.CapturedError{File: tc.File, Line: tc.Line}
		if outcome.Err != nil {
			captured = *outcome.Err
		}
		l.add(l.builder.BuildNotPassed(outcome.Category, tc, captured))
	case model.CategoryWarning, model.CategoryIncomplete, model.CategoryRisky, model.CategorySkipped:
		l.summary.Dropped[outcome.Category]++
		l.logger.Debug().
			Str("test", tc.Name).
			Str("outcome", string(outcome.Category)).
			Msg("Test not reported")
	default:
		l.logger.Debug().Str("test", tc.Name).Msg("Test ended without being started")
	}
}

func (l *Listener) add(r model.ResultRecord) {
	l.buffer.Append(r)
	l.summary.Recorded[r.Status]++
}

// EndSuite delivers the buffered records, if any, and empties the buffer
// whatever the delivery outcome.
func (l *Listener) EndSuite(ctx context.Context, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.buffer.Len() == 0 {
		return
	}

	records := l.buffer.Records()
	l.logger.Debug().Str("suite", name).Int("results", len(records)).Msg("Suite finished, delivering results")
	l.deliverer.Deliver(ctx, records)
	l.summary.Batches++
	l.buffer.Reset()
}

// Pending returns the number of records waiting for the next suite end.
func (l *Listener) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.buffer.Len()
}

// Summary returns the tallies accumulated so far.
func (l *Listener) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.summary.clone()
}
