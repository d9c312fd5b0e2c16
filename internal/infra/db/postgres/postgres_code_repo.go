package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"qr-redirect/internal/domain"
	"qr-redirect/internal/domain/model"
	"qr-redirect/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var _ repository.CodeRepository = (*PostgresCodeRepo)(nil)

type PostgresCodeRepo struct {
	pool *pgxpool.Pool
}

func NewCodeRepo(pool *pgxpool.Pool) *PostgresCodeRepo {
	return &PostgresCodeRepo{pool: pool}
}

const codeColumns = `id, owner_id, kind, payload, created_at`

func (r *PostgresCodeRepo) Create(ctx context.Context, tx repository.Tx, c *model.Code) error {
	if c == nil {
		return domain.ErrInvalidArgument
	}
	payload, err := json.Marshal(c.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const sql = `
INSERT INTO codes (` + codeColumns + `)
VALUES ($1, $2, $3, $4, $5);`
	if _, err := exec.Exec(ctx, sql, c.ID, c.OwnerID, string(c.Kind), payload, c.CreatedAt); err != nil {
		return classify("create code", err)
	}
	return nil
}

func (r *PostgresCodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Code, error) {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const sql = `SELECT ` + codeColumns + ` FROM codes WHERE id = $1;`
	c, err := scanCode(exec.QueryRow(ctx, sql, id))
	if err != nil {
		return nil, classify("find code", err)
	}
	return c, nil
}

func (r *PostgresCodeRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, offset, limit int) ([]*model.Code, error) {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const sql = `
SELECT ` + codeColumns + `
  FROM codes
 WHERE owner_id = $1
 ORDER BY created_at DESC, id
 OFFSET $2 LIMIT $3;`
	rows, err := exec.Query(ctx, sql, ownerID, offset, limit)
	if err != nil {
		return nil, classify("list codes", err)
	}
	defer rows.Close()

	var out []*model.Code
	for rows.Next() {
		c, err := scanCode(rows)
		if err != nil {
			return nil, classify("scan code row", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list codes", err)
	}
	return out, nil
}

func (r *PostgresCodeRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	ct, err := exec.Exec(ctx, `DELETE FROM codes WHERE id = $1;`, id)
	if err != nil {
		return classify("delete code", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("delete code %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanCode(row pgx.Row) (*model.Code, error) {
	var (
		c       model.Code
		kind    string
		payload []byte
	)
	if err := row.Scan(&c.ID, &c.OwnerID, &kind, &payload, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Kind = model.CodeKind(kind)
	if err := json.Unmarshal(payload, &c.Payload); err != nil {
		return nil, fmt.Errorf("decode payload of code %s: %w", c.ID, err)
	}
	return &c, nil
}
