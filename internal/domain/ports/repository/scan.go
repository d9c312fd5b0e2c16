package repository

import (
	"context"

	"qr-redirect/internal/domain/model"
)

// ScanRepository is the port for the append-only scan log.
type ScanRepository interface {
	// Append inserts one scan. Returns domain.ErrNotFound when the referenced code does not exist.
	Append(ctx context.Context, tx Tx, s *model.Scan) error
	ListByCode(ctx context.Context, tx Tx, codeID string, offset, limit int) ([]*model.Scan, error)
	CountByCode(ctx context.Context, tx Tx, codeID string) (int, error)
}
