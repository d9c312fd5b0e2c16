//go:build !integration

package api

import (
	"context"
	"sync"
	"time"

	"qr-redirect/internal/domain"
	"qr-redirect/internal/domain/model"
	"qr-redirect/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
)

// memStore backs both repositories so scans can check their code the way the FK does.
type memStore struct {
	mu      sync.Mutex
	codes   map[string]*model.Code
	scans   []*model.Scan
	findErr error
}

func newMemStore() *memStore { return &memStore{codes: map[string]*model.Code{}} }

type memCodeRepo struct{ s *memStore }
type memScanRepo struct{ s *memStore }

var (
	_ repository.CodeRepository = memCodeRepo{}
	_ repository.ScanRepository = memScanRepo{}
)

func (r memCodeRepo) Create(ctx context.Context, tx repository.Tx, c *model.Code) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.codes[c.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *c
	r.s.codes[c.ID] = &cp
	return nil
}

func (r memCodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Code, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.findErr != nil {
		return nil, r.s.findErr
	}
	c, ok := r.s.codes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memCodeRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, offset, limit int) ([]*model.Code, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Code
	for _, c := range r.s.codes {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r memCodeRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.codes[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.codes, id)
	kept := r.s.scans[:0]
	for _, sc := range r.s.scans {
		if sc.CodeID != id {
			kept = append(kept, sc)
		}
	}
	r.s.scans = kept
	return nil
}

func (r memScanRepo) Append(ctx context.Context, tx repository.Tx, sc *model.Scan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.codes[sc.CodeID]; !ok {
		return domain.ErrNotFound
	}
	cp := *sc
	r.s.scans = append(r.s.scans, &cp)
	return nil
}

func (r memScanRepo) ListByCode(ctx context.Context, tx repository.Tx, codeID string, offset, limit int) ([]*model.Scan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Scan
	for _, sc := range r.s.scans {
		if sc.CodeID == codeID {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (r memScanRepo) CountByCode(ctx context.Context, tx repository.Tx, codeID string) (int, error) {
	list, _ := r.ListByCode(ctx, tx, codeID, 0, 0)
	return len(list), nil
}

func (s *memStore) scanCount(codeID string) int {
	n, _ := memScanRepo{s}.CountByCode(context.Background(), nil, codeID)
	return n
}

type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	ctx, afterCommit := repository.WithCommitHooks(ctx)
	if err := fn(ctx, nil); err != nil {
		return err
	}
	afterCommit(ctx)
	return nil
}

// stubLimiter allows the first n calls.
type stubLimiter struct {
	mu    sync.Mutex
	n     int
	calls int
	keys  []string
	err   error
}

func (l *stubLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.keys = append(l.keys, key)
	if l.err != nil {
		return false, l.err
	}
	return l.calls <= l.n, nil
}
