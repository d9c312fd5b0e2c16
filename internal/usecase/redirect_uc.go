package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"qr-redirect/internal/domain"
	"qr-redirect/internal/domain/model"
	"qr-redirect/internal/infra/logging"
	"qr-redirect/internal/infra/metrics"
	"qr-redirect/internal/infra/worker"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ RedirectUseCase = (*redirectUC)(nil)

// VisitState is a step of a single visit.
//
//	Idle -> Resolving -> Resolved -> CountingDown -> Redirected
//	                  \-> NotFoundDisplayed
//
// Released marks a visit abandoned during the countdown.
type VisitState int32

const (
	StateIdle VisitState = iota
	StateResolving
	StateResolved
	StateCountingDown
	StateRedirected
	StateNotFoundDisplayed
	StateReleased
)

func (s VisitState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateResolved:
		return "resolved"
	case StateCountingDown:
		return "counting_down"
	case StateRedirected:
		return "redirected"
	case StateNotFoundDisplayed:
		return "not_found_displayed"
	case StateReleased:
		return "released"
	}
	return "unknown"
}

// TaskSubmitter is the slice of the worker pool the orchestrator needs.
type TaskSubmitter interface {
	Submit(task worker.Task) error
}

// RedirectUseCase orchestrates one visit: resolve, record a scan on the side, count down.
type RedirectUseCase interface {
	// Visit resolves codeID and, on success, returns a Visit in the CountingDown state
	// with exactly one scan recording in flight.
	// domain.ErrInvalidArgument and domain.ErrNotFound are terminal for the visitor
	// (NotFoundDisplayed); domain.ErrStoreUnavailable is a generic failure.
	// Recording problems never show up here.
	Visit(ctx context.Context, codeID string, meta model.ScanMetadata) (*Visit, error)
}

type RedirectOptions struct {
	PublicBaseURL string
	Countdown     time.Duration
	RecordTimeout time.Duration
}

type redirectUC struct {
	resolver ResolverUseCase
	recorder RecorderUseCase
	tasks    TaskSubmitter
	opts     RedirectOptions
	log      *zerolog.Logger
}

func NewRedirectUseCase(resolver ResolverUseCase, recorder RecorderUseCase, tasks TaskSubmitter, opts RedirectOptions, logger *zerolog.Logger) *redirectUC {
	if opts.Countdown <= 0 {
		opts.Countdown = 5 * time.Second
	}
	if opts.RecordTimeout <= 0 {
		opts.RecordTimeout = 5 * time.Second
	}
	return &redirectUC{resolver: resolver, recorder: recorder, tasks: tasks, opts: opts, log: logger}
}

func (u *redirectUC) Visit(ctx context.Context, codeID string, meta model.ScanMetadata) (*Visit, error) {
	defer logging.TraceDuration(u.log, "RedirectUC.Visit")()

	v := &Visit{Countdown: u.opts.Countdown, recordDone: make(chan struct{})}
	v.setState(StateResolving)

	code, err := u.resolver.Resolve(ctx, codeID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			v.setState(StateNotFoundDisplayed)
			metrics.IncRedirect("invalid", "")
		case errors.Is(err, domain.ErrNotFound):
			v.setState(StateNotFoundDisplayed)
			metrics.IncRedirect("not_found", "")
		default:
			metrics.IncRedirect("error", "")
			logging.With(ctx, u.log).Error().Err(err).Str("code_id", codeID).Msg("resolve failed")
		}
		return nil, err
	}

	v.Code = code
	v.Target = code.RedirectTarget(u.opts.PublicBaseURL)
	v.setState(StateResolved)

	// the scan must survive the request finishing, so it only inherits values from ctx
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.opts.RecordTimeout)
	v.cancelRecord = cancel
	if err := u.tasks.Submit(u.recordTask(recCtx, cancel, v.recordDone, code.ID, meta)); err != nil {
		cancel()
		close(v.recordDone)
		metrics.IncScan("dropped")
		logging.With(ctx, u.log).Warn().Err(fmt.Errorf("%w: %w", domain.ErrRecordingFailed, err)).
			Str("code_id", code.ID).Msg("scan not queued")
	}

	v.setState(StateCountingDown)
	metrics.IncRedirect("redirected", string(code.Kind))
	return v, nil
}

func (u *redirectUC) recordTask(ctx context.Context, cancel context.CancelFunc, done chan<- struct{}, codeID string, meta model.ScanMetadata) worker.Task {
	return func(poolCtx context.Context) error {
		defer close(done)
		defer cancel()
		if ctx.Err() != nil || poolCtx.Err() != nil {
			metrics.IncScan("cancelled")
			return nil
		}
		if _, err := u.recorder.Record(ctx, codeID, meta); err != nil {
			err = fmt.Errorf("%w: %w", domain.ErrRecordingFailed, err)
			logging.With(ctx, u.log).Warn().Err(err).Str("code_id", codeID).Msg("scan recording failed")
			return err
		}
		return nil
	}
}

// Visit is one resolved visit counting down to its redirect.
// It holds no state shared with other visits.
type Visit struct {
	Code      *model.Code
	Target    string
	Countdown time.Duration

	state        atomic.Int32
	cancelRecord context.CancelFunc
	recordDone   chan struct{}
	releaseOnce  sync.Once
}

func (v *Visit) State() VisitState { return VisitState(v.state.Load()) }

func (v *Visit) setState(s VisitState) { v.state.Store(int32(s)) }

// Wait blocks for the countdown and then reports the redirect target.
// If ctx ends first, the timer is stopped, the pending scan is cancelled and ctx.Err() is returned.
func (v *Visit) Wait(ctx context.Context) (string, error) {
	t := time.NewTimer(v.Countdown)
	defer t.Stop()
	select {
	case <-t.C:
		v.state.CompareAndSwap(int32(StateCountingDown), int32(StateRedirected))
		return v.Target, nil
	case <-ctx.Done():
		v.Release()
		return "", ctx.Err()
	}
}

// HandOff gives the countdown to the client and marks the visit redirected.
// The scan in flight keeps running under its own timeout.
func (v *Visit) HandOff() string {
	v.state.CompareAndSwap(int32(StateCountingDown), int32(StateRedirected))
	return v.Target
}

// Release abandons a visit that has not been redirected, cancelling its pending scan.
// It is idempotent and a no-op once the visit has redirected.
func (v *Visit) Release() {
	v.releaseOnce.Do(func() {
		if v.state.CompareAndSwap(int32(StateCountingDown), int32(StateReleased)) && v.cancelRecord != nil {
			v.cancelRecord()
		}
	})
}

// RecordDone is closed once the scan attempt for this visit has finished, failed or been dropped.
func (v *Visit) RecordDone() <-chan struct{} { return v.recordDone }
