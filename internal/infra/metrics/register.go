package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// namespace prefixes every series this service exports.
const namespace = "qr"

var (
	regOnce    sync.Once
	regErr     error
	collectors []prometheus.Collector
)

// register queues collectors from each file's init().
func register(cs ...prometheus.Collector) {
	collectors = append(collectors, cs...)
}

// Register adds the queued collectors to reg. Only the first call registers;
// later calls return its result.
func Register(reg prometheus.Registerer) error {
	regOnce.Do(func() {
		for _, c := range collectors {
			if err := reg.Register(c); err != nil {
				regErr = err
				return
			}
		}
	})
	return regErr
}

// MustRegister registers with the default registry served on /metrics and panics on failure.
func MustRegister() {
	if err := Register(prometheus.DefaultRegisterer); err != nil {
		panic(err)
	}
}
