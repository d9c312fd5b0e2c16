package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"qr-redirect/internal/domain"
	"qr-redirect/internal/domain/model"
	"qr-redirect/internal/domain/ports/repository"
	"qr-redirect/internal/infra/logging"
	"qr-redirect/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ CodeUseCase = (*codeUC)(nil)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	// attempts at a fresh generated id when the previous one collided
	maxIDAttempts = 3
)

// CreateCodeInput describes a new code. An empty ID asks for a generated one.
type CreateCodeInput struct {
	ID      string
	Kind    model.CodeKind
	Payload model.Payload
}

// CodeUseCase is the owner-facing management surface for codes.
// A code owned by someone else is reported as domain.ErrNotFound.
type CodeUseCase interface {
	Create(ctx context.Context, ownerID string, in CreateCodeInput) (*model.Code, error)
	Get(ctx context.Context, ownerID, id string) (*model.Code, error)
	List(ctx context.Context, ownerID string, offset, limit int) ([]*model.Code, error)
	Delete(ctx context.Context, ownerID, id string) error
	// Scans returns one page of the code's scan log, newest first, and the total count.
	Scans(ctx context.Context, ownerID, id string, offset, limit int) ([]*model.Scan, int, error)
}

type codeUC struct {
	codes repository.CodeRepository
	scans repository.ScanRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewCodeUseCase(codes repository.CodeRepository, scans repository.ScanRepository, tm repository.TransactionManager, logger *zerolog.Logger) *codeUC {
	return &codeUC{codes: codes, scans: scans, tm: tm, log: logger}
}

func (u *codeUC) Create(ctx context.Context, ownerID string, in CreateCodeInput) (*model.Code, error) {
	defer logging.TraceDuration(u.log, "CodeUC.Create")()

	generated := strings.TrimSpace(in.ID) == ""
	for attempt := 1; ; attempt++ {
		code, err := model.NewCode(in.ID, ownerID, in.Kind, in.Payload)
		if err != nil {
			return nil, err
		}
		err = u.codes.Create(ctx, repository.NoTX, code)
		if err == nil {
			metrics.IncCode("created", string(code.Kind))
			logging.With(ctx, u.log).Info().Str("code_id", code.ID).Str("kind", string(code.Kind)).Msg("code created")
			return code, nil
		}
		if !generated || !errors.Is(err, domain.ErrAlreadyExists) || attempt >= maxIDAttempts {
			return nil, err
		}
		u.log.Debug().Str("code_id", code.ID).Msg("generated id collided, retrying")
	}
}

func (u *codeUC) Get(ctx context.Context, ownerID, id string) (*model.Code, error) {
	defer logging.TraceDuration(u.log, "CodeUC.Get")()
	return u.owned(ctx, repository.NoTX, ownerID, id)
}

func (u *codeUC) List(ctx context.Context, ownerID string, offset, limit int) ([]*model.Code, error) {
	defer logging.TraceDuration(u.log, "CodeUC.List")()

	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner id is required", domain.ErrInvalidArgument)
	}
	offset, limit = NormalizePage(offset, limit)
	return u.codes.ListByOwner(ctx, repository.NoTX, ownerID, offset, limit)
}

// Delete removes the code and, through the store's cascade, its scans.
// The ownership check and the delete share one transaction.
func (u *codeUC) Delete(ctx context.Context, ownerID, id string) error {
	defer logging.TraceDuration(u.log, "CodeUC.Delete")()

	var kind model.CodeKind
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		code, err := u.owned(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}
		kind = code.Kind
		return u.codes.Delete(ctx, tx, code.ID)
	})
	if err != nil {
		return err
	}
	metrics.IncCode("deleted", string(kind))
	logging.With(ctx, u.log).Info().Str("code_id", id).Msg("code deleted")
	return nil
}

func (u *codeUC) Scans(ctx context.Context, ownerID, id string, offset, limit int) ([]*model.Scan, int, error) {
	defer logging.TraceDuration(u.log, "CodeUC.Scans")()

	code, err := u.owned(ctx, repository.NoTX, ownerID, id)
	if err != nil {
		return nil, 0, err
	}
	offset, limit = NormalizePage(offset, limit)
	list, err := u.scans.ListByCode(ctx, repository.NoTX, code.ID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := u.scans.CountByCode(ctx, repository.NoTX, code.ID)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (u *codeUC) owned(ctx context.Context, tx repository.Tx, ownerID, id string) (*model.Code, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner id and code id are required", domain.ErrInvalidArgument)
	}
	code, err := u.codes.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if code.OwnerID != ownerID {
		return nil, fmt.Errorf("code %s: %w", id, domain.ErrNotFound)
	}
	return code, nil
}

// NormalizePage clamps pagination input to sane bounds.
func NormalizePage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return offset, limit
}
