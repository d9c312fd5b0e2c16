package postgres

import (
	"context"

	"qr-redirect/internal/domain"
	"qr-redirect/internal/domain/model"
	"qr-redirect/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4/pgxpool"
)

var _ repository.ScanRepository = (*PostgresScanRepo)(nil)

type PostgresScanRepo struct {
	pool *pgxpool.Pool
}

func NewScanRepo(pool *pgxpool.Pool) *PostgresScanRepo {
	return &PostgresScanRepo{pool: pool}
}

// Append inserts a single row. A missing code surfaces as ErrNotFound through the FK.
func (r *PostgresScanRepo) Append(ctx context.Context, tx repository.Tx, s *model.Scan) error {
	if s == nil {
		return domain.ErrInvalidArgument
	}
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const sql = `
INSERT INTO scans (id, code_id, ip_address, latitude, longitude, scanned_at)
VALUES ($1, $2, $3, $4, $5, $6);`
	if _, err := exec.Exec(ctx, sql, s.ID, s.CodeID, s.IPAddress, s.Latitude, s.Longitude, s.Timestamp); err != nil {
		return classify("append scan", err)
	}
	return nil
}

func (r *PostgresScanRepo) ListByCode(ctx context.Context, tx repository.Tx, codeID string, offset, limit int) ([]*model.Scan, error) {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const sql = `
SELECT id, code_id, ip_address, latitude, longitude, scanned_at
  FROM scans
 WHERE code_id = $1
 ORDER BY scanned_at DESC, id DESC
 OFFSET $2 LIMIT $3;`
	rows, err := exec.Query(ctx, sql, codeID, offset, limit)
	if err != nil {
		return nil, classify("list scans", err)
	}
	defer rows.Close()

	var out []*model.Scan
	for rows.Next() {
		var s model.Scan
		if err := rows.Scan(&s.ID, &s.CodeID, &s.IPAddress, &s.Latitude, &s.Longitude, &s.Timestamp); err != nil {
			return nil, classify("scan row", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list scans", err)
	}
	return out, nil
}

func (r *PostgresScanRepo) CountByCode(ctx context.Context, tx repository.Tx, codeID string) (int, error) {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM scans WHERE code_id = $1;`, codeID).Scan(&n); err != nil {
		return 0, classify("count scans", err)
	}
	return n, nil
}
