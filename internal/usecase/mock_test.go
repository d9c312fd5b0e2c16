//go:build !integration

package usecase

import (
	"context"
	"sort"
	"sync"

	"qr-redirect/internal/domain"
	"qr-redirect/internal/domain/model"
	"qr-redirect/internal/domain/ports/repository"
	"qr-redirect/internal/infra/worker"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

func nopLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

// --- memCodeRepo ---

// memCodeRepo is an in-memory CodeRepository. FindErrs, when non-empty, is consumed
// one error per FindByID call before the map is consulted.
type memCodeRepo struct {
	mu        sync.Mutex
	items     map[string]*model.Code
	FindErrs  []error
	findCalls int
}

var _ repository.CodeRepository = (*memCodeRepo)(nil)

func newMemCodeRepo() *memCodeRepo { return &memCodeRepo{items: map[string]*model.Code{}} }

func (m *memCodeRepo) Create(ctx context.Context, tx repository.Tx, c *model.Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[c.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *c
	m.items[c.ID] = &cp
	return nil
}

func (m *memCodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Code, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	if len(m.FindErrs) > 0 {
		err := m.FindErrs[0]
		m.FindErrs = m.FindErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	c, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCodeRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, offset, limit int) ([]*model.Code, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Code
	for _, c := range m.items {
		if c.OwnerID == ownerID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memCodeRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memCodeRepo) FindCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findCalls
}

// --- memScanRepo ---

// memScanRepo checks code existence against codes the way the store's foreign key does.
type memScanRepo struct {
	mu        sync.Mutex
	codes     *memCodeRepo
	items     []*model.Scan
	AppendErr error
}

var _ repository.ScanRepository = (*memScanRepo)(nil)

func newMemScanRepo(codes *memCodeRepo) *memScanRepo { return &memScanRepo{codes: codes} }

func (m *memScanRepo) Append(ctx context.Context, tx repository.Tx, s *model.Scan) error {
	if m.AppendErr != nil {
		return m.AppendErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.codes.mu.Lock()
	_, ok := m.codes.items[s.CodeID]
	m.codes.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.items = append(m.items, &cp)
	return nil
}

func (m *memScanRepo) ListByCode(ctx context.Context, tx repository.Tx, codeID string, offset, limit int) ([]*model.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Scan
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].CodeID == codeID {
			out = append(out, m.items[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memScanRepo) CountByCode(ctx context.Context, tx repository.Tx, codeID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.items {
		if s.CodeID == codeID {
			n++
		}
	}
	return n, nil
}

func (m *memScanRepo) All() []*model.Scan {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Scan(nil), m.items...)
}

// --- transaction manager and task submitters ---

type fakeTxManager struct{ calls int }

func (f *fakeTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	f.calls++
	ctx, afterCommit := repository.WithCommitHooks(ctx)
	if err := fn(ctx, nil); err != nil {
		return err
	}
	afterCommit(ctx)
	return nil
}

// goSubmitter runs every task on its own goroutine.
type goSubmitter struct{}

func (goSubmitter) Submit(task worker.Task) error {
	go func() { _ = task(context.Background()) }()
	return nil
}

// heldSubmitter keeps tasks until Run is called.
type heldSubmitter struct {
	mu    sync.Mutex
	tasks []worker.Task
}

func (h *heldSubmitter) Submit(task worker.Task) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tasks = append(h.tasks, task)
	return nil
}

func (h *heldSubmitter) Run() {
	h.mu.Lock()
	tasks := h.tasks
	h.tasks = nil
	h.mu.Unlock()
	for _, t := range tasks {
		_ = t(context.Background())
	}
}

type fullSubmitter struct{}

func (fullSubmitter) Submit(worker.Task) error { return domain.ErrQueueFull }

func seedURLCode(repo *memCodeRepo, id, owner, url string) *model.Code {
	c := &model.Code{ID: id, OwnerID: owner, Kind: model.KindURL, Payload: model.Payload{URL: &model.URLPayload{URL: url}}}
	_ = repo.Create(context.Background(), repository.NoTX, c)
	return c
}
