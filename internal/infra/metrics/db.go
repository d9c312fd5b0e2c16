package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbPoolConns, dbPoolEmptyAcquires) }

// PoolStats is one snapshot of the Postgres connection pool.
type PoolStats struct {
	Total, Idle, InUse, Max int32
	// EmptyAcquires counts acquires that had to wait for a connection, since start.
	EmptyAcquires int64
}

var (
	dbPoolConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      "conns",
			Help:      "Postgres pool connections by state.",
		},
		[]string{"state"}, // total|idle|in_use|max
	)
	dbPoolEmptyAcquires = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      "empty_acquires",
			Help:      "Acquires that found no idle connection; growth means scans and lookups queue on the pool.",
		},
	)
)

func SetDBPoolStats(s PoolStats) {
	dbPoolConns.WithLabelValues("total").Set(float64(s.Total))
	dbPoolConns.WithLabelValues("idle").Set(float64(s.Idle))
	dbPoolConns.WithLabelValues("in_use").Set(float64(s.InUse))
	dbPoolConns.WithLabelValues("max").Set(float64(s.Max))
	dbPoolEmptyAcquires.Set(float64(s.EmptyAcquires))
}
