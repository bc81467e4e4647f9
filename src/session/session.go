package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"circle-to-search/src/logutil"
	"circle-to-search/src/ocr"
	"circle-to-search/src/screenshot"
	"circle-to-search/src/search"
	"circle-to-search/src/worker"
)

const defaultDeadline = 20 * time.Second

type Selector interface {
	Select(ctx context.Context) (screenshot.Region, bool, error)
}

type Capturer interface {
	Capture(ctx context.Context, region screenshot.Region) (*screenshot.Image, error)
}

type Recognizer interface {
	Recognize(ctx context.Context, img *screenshot.Image) ocr.Result
}

type Dispatcher interface {
	Dispatch(ctx context.Context, q search.Query) (search.Outcome, error)
}

type Options struct {
	Selector   Selector
	Capturer   Capturer
	Recognizer Recognizer
	Dispatcher Dispatcher
	// Pool runs capture and recognition off the caller's goroutine. Nil runs them inline.
	Pool *worker.Pool
	// Deadline bounds capture plus recognition.
	Deadline      time.Duration
	MaxQueryChars int
	// OnText receives recognized text before dispatch (clipboard copy).
	OnText func(text string)
	// OnState observes every transition.
	OnState func(State)
}

// Report summarizes one finished run.
type Report struct {
	ID         uint64
	History    []State
	Kind       ocr.Kind
	Text       string
	Confidence float64
	Engine     string
	Degraded   error
	URL        string
	Duration   time.Duration
}

// Final returns the terminal state of the run.
func (r Report) Final() State {
	if len(r.History) == 0 {
		return StateIdle
	}
	return r.History[len(r.History)-1]
}

// Controller runs select, capture, recognize and dispatch in order. At most
// one run is active; a concurrent Run is rejected with ErrBusy.
type Controller struct {
	opts   Options
	active atomic.Bool
	state  atomic.Int32
	seq    atomic.Uint64
}

func NewController(opts Options) (*Controller, error) {
	if opts.Selector == nil {
		return nil, errors.New("Selector is required")
	}
	if opts.Capturer == nil {
		return nil, errors.New("Capturer is required")
	}
	if opts.Recognizer == nil {
		return nil, errors.New("Recognizer is required")
	}
	if opts.Dispatcher == nil {
		return nil, errors.New("Dispatcher is required")
	}
	if opts.Deadline <= 0 {
		opts.Deadline = defaultDeadline
	}
	return &Controller{opts: opts}, nil
}

func (c *Controller) State() State { return State(c.state.Load()) }

// Busy reports whether a run is in flight.
func (c *Controller) Busy() bool { return c.active.Load() }

// run holds the artifacts of one invocation. It is never shared across runs.
type run struct {
	id      uint64
	c       *Controller
	history []State
	start   time.Time
}

func (r *run) enter(s State) {
	r.history = append(r.history, s)
	r.c.state.Store(int32(s))
	if s.Terminal() {
		log.Printf("Session %d: %s after %v", r.id, s, time.Since(r.start))
	} else {
		log.Printf("Session %d: %s", r.id, s)
	}
	if r.c.opts.OnState != nil {
		r.c.opts.OnState(s)
	}
}

func (r *run) report() Report {
	return Report{ID: r.id, History: append([]State(nil), r.history...), Duration: time.Since(r.start)}
}

func (r *run) abort(err error) (Report, error) {
	r.enter(StateAborted)
	rep := r.report()
	if errors.Is(err, ErrSelectionCancelled) {
		log.Printf("Session %d: cancelled", r.id)
	} else {
		log.Printf("Session %d: aborted: %v", r.id, err)
	}
	return rep, err
}

// Run executes one pipeline run. Selection cancel returns ErrSelectionCancelled;
// every other failure is a *StageError. Nothing is retried.
func (c *Controller) Run(ctx context.Context) (Report, error) {
	if !c.active.CompareAndSwap(false, true) {
		log.Printf("Session: rejected trigger, run in progress (%s)", c.State())
		return Report{}, ErrBusy
	}
	r := &run{id: c.seq.Add(1), c: c, history: []State{StateIdle}, start: time.Now()}
	defer func() {
		c.state.Store(int32(StateIdle))
		if c.opts.OnState != nil {
			c.opts.OnState(StateIdle)
		}
		c.active.Store(false)
	}()

	r.enter(StateSelecting)
	region, cancelled, err := c.opts.Selector.Select(ctx)
	if err != nil {
		return r.abort(&StageError{Stage: StateSelecting, Err: err})
	}
	if cancelled {
		return r.abort(ErrSelectionCancelled)
	}

	jobCtx, cancel := context.WithTimeout(ctx, c.opts.Deadline)
	defer cancel()

	r.enter(StateCapturing)
	img, err := offload(jobCtx, c.opts.Pool, func(ctx context.Context) (*screenshot.Image, error) {
		return c.opts.Capturer.Capture(ctx, region)
	})
	if err != nil {
		return r.abort(&StageError{Stage: StateCapturing, Err: deadlineError(err, c.opts.Deadline)})
	}

	r.enter(StateRecognizing)
	res, err := offload(jobCtx, c.opts.Pool, func(ctx context.Context) (ocr.Result, error) {
		return c.opts.Recognizer.Recognize(ctx, img), nil
	})
	if err == nil {
		// An engine cut off by the deadline reports degraded, not failed.
		err = jobCtx.Err()
	}
	if err != nil {
		return r.abort(&StageError{Stage: StateRecognizing, Err: deadlineError(err, c.opts.Deadline)})
	}
	if res.Degraded != nil {
		log.Printf("Session %d: recognition degraded to image search: %v", r.id, res.Degraded)
	}

	query, err := search.NewQuery(res, c.opts.MaxQueryChars)
	if err != nil {
		return r.abort(&StageError{Stage: StateRecognizing, Err: err})
	}
	if query.Kind == ocr.KindText && c.opts.OnText != nil {
		c.opts.OnText(query.Text)
	}

	r.enter(StateDispatching)
	outcome, err := c.opts.Dispatcher.Dispatch(ctx, query)
	if err != nil {
		return r.abort(&StageError{Stage: StateDispatching, Err: err})
	}

	r.enter(StateDone)
	rep := r.report()
	rep.Kind = res.Kind
	rep.Text = query.Text
	rep.Confidence = res.Confidence
	rep.Engine = res.Engine
	rep.Degraded = res.Degraded
	rep.URL = outcome.URL
	log.Printf("Session %d: %s search done in %v: %s", r.id, rep.Kind, rep.Duration, logutil.Sanitize(rep.URL))
	return rep, nil
}

func offload[T any](ctx context.Context, pool *worker.Pool, fn func(context.Context) (T, error)) (T, error) {
	if pool == nil {
		return fn(ctx)
	}
	return worker.Do(ctx, pool, fn)
}

func deadlineError(err error, d time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timed out after %v: %w", d, err)
	}
	return err
}
