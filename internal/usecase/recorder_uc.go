package usecase

import (
	"context"
	"fmt"

	"qr-redirect/internal/domain/model"
	"qr-redirect/internal/domain/ports/repository"
	"qr-redirect/internal/infra/logging"
	"qr-redirect/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ RecorderUseCase = (*recorderUC)(nil)

// RecorderUseCase appends visit events to the scan log.
type RecorderUseCase interface {
	// Record appends exactly one Scan for codeID. Metadata fields are optional.
	// Errors: domain.ErrInvalidArgument, domain.ErrNotFound (no such code),
	// domain.ErrStoreUnavailable.
	Record(ctx context.Context, codeID string, meta model.ScanMetadata) (*model.Scan, error)
}

type recorderUC struct {
	scans repository.ScanRepository
	log   *zerolog.Logger
	dev   bool
}

func NewRecorderUseCase(scans repository.ScanRepository, logger *zerolog.Logger, dev bool) *recorderUC {
	return &recorderUC{scans: scans, log: logger, dev: dev}
}

func (r *recorderUC) Record(ctx context.Context, codeID string, meta model.ScanMetadata) (*model.Scan, error) {
	defer logging.TraceDuration(r.log, "RecorderUC.Record")()

	scan, err := model.NewScan(codeID, meta)
	if err != nil {
		return nil, err
	}
	if err := r.scans.Append(ctx, repository.NoTX, scan); err != nil {
		metrics.IncScan("failed")
		return nil, fmt.Errorf("record scan for %s: %w", scan.CodeID, err)
	}
	metrics.IncScan("recorded")

	ev := logging.With(ctx, r.log).Debug().Str("scan_id", scan.ID).Str("code_id", scan.CodeID)
	if scan.IPAddress != nil {
		ev = ev.Str("ip", logging.Redact(*scan.IPAddress, r.dev))
	}
	ev.Msg("scan recorded")
	return scan, nil
}
