package repository

import (
	"context"

	"qr-redirect/internal/domain/model"
)

// CodeRepository is the port for short-code records (url, vCard and ticket kinds).
type CodeRepository interface {
	// Create inserts a new code. Returns domain.ErrAlreadyExists when the id is taken.
	Create(ctx context.Context, tx Tx, c *model.Code) error
	// FindByID is a single point lookup by primary key. Returns domain.ErrNotFound when absent.
	FindByID(ctx context.Context, tx Tx, id string) (*model.Code, error)
	// ListByOwner returns an owner's codes, newest first.
	ListByOwner(ctx context.Context, tx Tx, ownerID string, offset, limit int) ([]*model.Code, error)
	// Delete hard-deletes a code; its scans go with it. Returns domain.ErrNotFound when absent.
	Delete(ctx context.Context, tx Tx, id string) error
}
