package sched

import (
	"context"
	"time"

	"qr-redirect/internal/infra/metrics"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

// PoolStatter reports connection counts of a database pool.
type PoolStatter interface {
	Snapshot() metrics.PoolStats
}

type pgxStatter struct{ pool *pgxpool.Pool }

// PgxPool adapts a pgx pool to PoolStatter.
func PgxPool(pool *pgxpool.Pool) PoolStatter { return pgxStatter{pool: pool} }

func (p pgxStatter) Snapshot() metrics.PoolStats {
	st := p.pool.Stat()
	return metrics.PoolStats{
		Total:         st.TotalConns(),
		Idle:          st.IdleConns(),
		InUse:         st.AcquiredConns(),
		Max:           st.MaxConns(),
		EmptyAcquires: st.EmptyAcquireCount(),
	}
}

// PoolStatsWorker periodically publishes database pool gauges.
type PoolStatsWorker struct {
	interval time.Duration
	src      PoolStatter
	log      *zerolog.Logger
}

func NewPoolStatsWorker(interval time.Duration, src PoolStatter, logger *zerolog.Logger) *PoolStatsWorker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	l := logger.With().Str("component", "PoolStatsWorker").Logger()
	return &PoolStatsWorker{interval: interval, src: src, log: &l}
}

func (w *PoolStatsWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting pool stats worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.publish()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping pool stats worker")
			return ctx.Err()
		case <-ticker.C:
			w.publish()
		}
	}
}

func (w *PoolStatsWorker) publish() {
	st := w.src.Snapshot()
	metrics.SetDBPoolStats(st)
	if st.Max > 0 && st.InUse >= st.Max {
		w.log.Warn().Int32("in_use", st.InUse).Int32("max", st.Max).Msg("db pool saturated")
		return
	}
	w.log.Trace().Int32("total", st.Total).Int32("idle", st.Idle).Int32("in_use", st.InUse).Msg("db pool stats")
}
