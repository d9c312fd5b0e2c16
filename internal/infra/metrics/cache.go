package metrics

import "github.com/prometheus/client_golang/prometheus"

// Cache lookup outcomes. CacheError is a Redis failure that fell through to the store.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

func init() { register(cacheLookupsTotal) }

var cacheLookupsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Read-through cache lookups by cache and outcome.",
	},
	[]string{"cache", "result"}, // cache="code"
)

func IncCacheRequest(cache, result string) {
	cacheLookupsTotal.WithLabelValues(norm(cache), norm(result)).Inc()
}
