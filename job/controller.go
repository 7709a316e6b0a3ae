package job

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"vidtrack/config"
	"vidtrack/logger"
)

// DefaultPollInterval is used when the configuration leaves the interval unset.
const DefaultPollInterval = 5 * time.Second

// ErrClosed is returned by operations on a closed Controller.
var ErrClosed = errors.New("controller is closed")

// Backend is the job-processing service as seen by the controller.
type Backend interface {
	CreateJob(ctx context.Context, videoURL string) (Created, error)
	JobStatus(ctx context.Context, id int64) (Status, error)
	JobResult(ctx context.Context, id int64) (*ProcessingResult, error)
	JobError(ctx context.Context, id int64) (string, error)
}

// Controller drives one job at a time from submission to a terminal state
// and publishes every transition as a ViewState snapshot.
//
// All state changes go through applyLocked with the generation that was
// current when the triggering request started; a new Submit, Stop or Close
// bumps the generation so late responses from a superseded job are dropped.
type Controller struct {
	backend     Backend
	interval    time.Duration
	maxDuration time.Duration
	log         *zap.SugaredLogger

	mu     sync.Mutex
	state  ViewState
	gen    uint64
	cancel context.CancelFunc
	closed bool

	subs *subscribers
	wg   sync.WaitGroup
}

// NewController builds an idle controller. A nil cfg keeps the default poll
// interval and no max poll duration.
func NewController(cfg *config.Config, backend Backend) (*Controller, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	c := &Controller{
		backend:  backend,
		interval: DefaultPollInterval,
		log:      logger.Named("job"),
		state:    ViewState{Phase: PhaseIdle, UpdatedAt: time.Now().UTC()},
		subs:     newSubscribers(),
	}
	if cfg != nil {
		if cfg.PollInterval > 0 {
			c.interval = cfg.PollInterval
		}
		c.maxDuration = cfg.MaxPollDuration
	}
	return c, nil
}

// ValidateURL accepts absolute URLs with both a scheme and a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		err = errors.Newf("%q is not a valid URL", raw)
		return errors.WithHint(errors.Mark(err, ErrValidation), msgInvalidURL)
	}
	return nil
}

// Submit starts tracking a new job for videoURL, discarding any previous one.
// It returns once the backend has accepted (or refused) the job; polling
// continues in the background until a terminal state, Stop or Close.
func (c *Controller) Submit(ctx context.Context, videoURL string) error {
	videoURL = strings.TrimSpace(videoURL)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	gen := c.supersedeLocked()

	if err := ValidateURL(videoURL); err != nil {
		c.applyLocked(gen, Event{Kind: EventRejected, Message: msgInvalidURL, Err: err})
		c.mu.Unlock()
		c.log.Infow("Rejected submission", logger.FieldURL, videoURL, logger.FieldError, err)
		return err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.applyLocked(gen, Event{Kind: EventSubmit, URL: videoURL})
	c.mu.Unlock()

	createCtx, stopCreate := context.WithCancel(ctx)
	defer stopCreate()
	unlink := context.AfterFunc(loopCtx, stopCreate)
	defer unlink()

	start := time.Now()
	created, err := c.backend.CreateJob(createCtx, videoURL)
	if err != nil {
		err = errors.Wrap(err, "create job")
		if !c.apply(gen, Event{Kind: EventCreateFailed, Message: UserMessage(err, msgSubmitFailed), Err: err}) {
			return errors.Mark(err, ErrSuperseded)
		}
		c.log.Warnw("Job submission failed",
			logger.FieldURL, videoURL,
			logger.FieldDurationMS, time.Since(start).Milliseconds(),
			logger.FieldError, err)
		return errors.Mark(err, ErrSubmission)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.applyLocked(gen, Event{Kind: EventCreated, JobID: created.JobID, Status: created.Status}) {
		return errors.WithStack(ErrSuperseded)
	}
	c.log.Infow("Job submitted",
		logger.FieldJobID, created.JobID,
		logger.FieldStatus, created.Status,
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	c.wg.Add(1)
	go c.pollLoop(loopCtx, gen, created.JobID)
	return nil
}

// pollLoop queries the job status immediately, then once per interval after
// each answer, until the job reaches a terminal state or ctx is cancelled.
// With a max poll duration the whole loop, in-flight requests included, runs
// under that deadline.
func (c *Controller) pollLoop(ctx context.Context, gen uint64, id int64) {
	defer c.wg.Done()
	log := c.log.With(logger.FieldJobID, id, logger.FieldGeneration, gen)

	if c.maxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.maxDuration)
		defer cancel()
	}

	for c.pollOnce(ctx, gen, id, log) {
		timer := time.NewTimer(c.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.interrupted(ctx, gen, log)
			return
		case <-timer.C:
		}
	}
}

// interrupted turns an expired poll deadline into a timeout. Cancellation by
// Submit, Stop or Close is silent.
func (c *Controller) interrupted(ctx context.Context, gen uint64, log *zap.SugaredLogger) {
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return
	}
	err := errors.Wrapf(ctx.Err(), "job polling exceeded %s", c.maxDuration)
	if c.apply(gen, Event{Kind: EventTimedOut, Message: msgPollTimedOut, Err: err}) {
		log.Warnw("Job polling timed out", "max_poll_duration", c.maxDuration.String())
	}
}

// pollOnce performs one status query and reports whether to keep polling.
func (c *Controller) pollOnce(ctx context.Context, gen uint64, id int64, log *zap.SugaredLogger) bool {
	status, err := c.backend.JobStatus(ctx, id)
	if ctx.Err() != nil {
		c.interrupted(ctx, gen, log)
		return false
	}
	if err != nil {
		err = errors.Mark(errors.Wrap(err, "check job status"), ErrPollTransport)
		log.Warnw("Status poll failed", logger.FieldError, err)
		c.apply(gen, Event{Kind: EventPollFailed, Message: UserMessage(err, msgStatusFailed), Err: err})
		return false
	}

	switch status {
	case StatusCompleted:
		result, err := c.backend.JobResult(ctx, id)
		if ctx.Err() != nil {
			c.interrupted(ctx, gen, log)
			return false
		}
		if err == nil && result == nil {
			err = errors.New("empty result")
		}
		if err != nil {
			err = errors.Mark(errors.Wrap(err, "fetch job result"), ErrPollTransport)
			log.Warnw("Result fetch failed", logger.FieldError, err)
			c.apply(gen, Event{Kind: EventResultFailed, Message: UserMessage(err, msgResultFailed), Err: err})
			return false
		}
		if c.apply(gen, Event{Kind: EventResult, Result: result}) {
			log.Infow("Job completed", "action_points", len(result.ActionPoints))
		}
		return false

	case StatusFailed:
		detail, err := c.backend.JobError(ctx, id)
		if ctx.Err() != nil {
			c.interrupted(ctx, gen, log)
			return false
		}
		if err != nil {
			log.Warnw("Error detail fetch failed", logger.FieldError, err)
		}
		if strings.TrimSpace(detail) == "" {
			detail = msgJobFailed
		}
		jobErr := errors.Mark(errors.WithHint(errors.Newf("job %d failed", id), detail), ErrJobFailed)
		if c.apply(gen, Event{Kind: EventJobFailed, Message: detail, Err: jobErr}) {
			log.Infow("Job failed", "detail", detail)
		}
		return false

	default:
		log.Debugw("Job still running", logger.FieldStatus, status)
		return c.apply(gen, Event{Kind: EventPolled, Status: status})
	}
}

// State returns the current snapshot.
func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Subscribe delivers the current snapshot followed by every later one.
// The returned func unsubscribes and closes the channel.
func (c *Controller) Subscribe() (<-chan ViewState, func()) {
	c.mu.Lock()
	ch := c.subs.add(c.state.Clone())
	c.mu.Unlock()
	return ch, func() { c.subs.remove(ch) }
}

// Wait blocks until nothing is in flight: the phase is idle, succeeded or failed.
// A failed snapshot comes back together with its error, which matches one of
// ErrValidation, ErrSubmission, ErrPollTransport, ErrJobFailed or ErrPollTimeout.
func (c *Controller) Wait(ctx context.Context) (ViewState, error) {
	ch, unsubscribe := c.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return c.State(), ctx.Err()
		case s, ok := <-ch:
			if !ok {
				return c.State(), ErrClosed
			}
			if s.Phase == PhaseFailed {
				return s, s.Err
			}
			if s.Phase.Settled() {
				return s, nil
			}
		}
	}
}

// Stop tears down the current job: pending timers and requests are cancelled
// and the state returns to idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stopLocked()
}

// Close stops the controller for good and closes every subscription.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopLocked()
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()
	c.subs.closeAll()
}

func (c *Controller) stopLocked() {
	gen := c.supersedeLocked()
	if c.state.Phase != PhaseIdle {
		c.applyLocked(gen, Event{Kind: EventReset})
		c.log.Infow("Controller stopped", logger.FieldGeneration, gen)
	}
}

// supersedeLocked cancels whatever the current generation has in flight and
// starts a new one.
func (c *Controller) supersedeLocked() uint64 {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	return c.gen
}

func (c *Controller) apply(gen uint64, ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(gen, ev)
}

func (c *Controller) applyLocked(gen uint64, ev Event) bool {
	if gen != c.gen {
		c.log.Debugw("Dropped stale event", "event", ev.Kind, logger.FieldGeneration, gen)
		return false
	}
	next, ok := Next(c.state, ev)
	if !ok {
		c.log.Debugw("Ignored event", "event", ev.Kind, logger.FieldPhase, c.state.Phase)
		return false
	}
	next.Seq = c.state.Seq + 1
	next.UpdatedAt = time.Now().UTC()
	c.state = next
	c.subs.publish(next)
	return true
}
