package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"qr-redirect/internal/domain"
	"qr-redirect/internal/domain/model"
	"qr-redirect/internal/domain/ports/repository"
	"qr-redirect/internal/infra/logging"
	"qr-redirect/internal/infra/metrics"

	"github.com/cenkalti/backoff"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ ResolverUseCase = (*resolverUC)(nil)

// ResolverUseCase is the read-only code lookup used at visit time.
type ResolverUseCase interface {
	// Resolve returns the full Code for codeID.
	// Errors: domain.ErrInvalidArgument (empty id, no store access), domain.ErrNotFound,
	// domain.ErrStoreUnavailable (after the configured retries).
	Resolve(ctx context.Context, codeID string) (*model.Code, error)
}

type resolverUC struct {
	codes    repository.CodeRepository
	retries  int
	interval time.Duration
	log      *zerolog.Logger
}

func NewResolverUseCase(codes repository.CodeRepository, retries int, interval time.Duration, logger *zerolog.Logger) *resolverUC {
	if retries < 0 {
		retries = 0
	}
	if interval <= 0 {
		interval = 25 * time.Millisecond
	}
	return &resolverUC{codes: codes, retries: retries, interval: interval, log: logger}
}

func (r *resolverUC) Resolve(ctx context.Context, codeID string) (*model.Code, error) {
	defer logging.TraceDuration(r.log, "ResolverUC.Resolve")()

	codeID = strings.TrimSpace(codeID)
	if codeID == "" {
		return nil, fmt.Errorf("%w: code id is required", domain.ErrInvalidArgument)
	}

	start := time.Now()
	var code *model.Code
	op := func() error {
		c, err := r.codes.FindByID(ctx, repository.NoTX, codeID)
		if err == nil {
			code = c
			return nil
		}
		if errors.Is(err, domain.ErrStoreUnavailable) {
			return err
		}
		// NotFound and anything else is final
		return backoff.Permanent(err)
	}

	err := backoff.RetryNotify(op, r.policy(ctx), func(err error, wait time.Duration) {
		logging.With(ctx, r.log).Warn().Err(err).Str("code_id", codeID).Dur("backoff", wait).Msg("code lookup failed, retrying")
	})
	metrics.ObserveResolve(time.Since(start).Milliseconds(), err == nil)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("resolve %s: %w: %w", codeID, domain.ErrStoreUnavailable, err)
		}
		return nil, err
	}
	return code, nil
}

func (r *resolverUC) policy(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.interval
	eb.MaxInterval = 20 * r.interval
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(r.retries)), ctx)
}
