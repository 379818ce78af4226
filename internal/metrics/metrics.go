// Package metrics holds croptalk's Prometheus collectors. Collectors are
// package variables so any layer can record into them; registration with the
// default registry is explicit and happens once per group from main.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "croptalk"

// register adds a group of collectors to the default registry at most once.
func register(once *sync.Once, collectors ...prometheus.Collector) {
	once.Do(func() { prometheus.MustRegister(collectors...) })
}
