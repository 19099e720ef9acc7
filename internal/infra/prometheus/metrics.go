package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trisend"

// Registry holds the service metrics plus Go runtime and process collectors.
// The /metrics server exposes exactly this registry.
var Registry = newRegistry()

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
	)
	return reg
}

var factory = promauto.With(Registry)

var (
	// LinkResolutions counts short-link resolutions by outcome.
	LinkResolutions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "link_resolutions_total",
		Help:      "Short-link resolutions by outcome.",
	}, []string{"outcome"})

	// ClickWrites counts background click persistence attempts by status.
	ClickWrites = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "click_writes_total",
		Help:      "Click record writes by status.",
	}, []string{"status"})

	// GeoLookups counts geolocation lookups by result.
	GeoLookups = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geo_lookups_total",
		Help:      "IP geolocation lookups by result.",
	}, []string{"result"})

	// UniqueVisitors counts first sightings of a code and IP pair in the
	// recorder's bloom filter, so it slightly undercounts.
	UniqueVisitors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unique_visitors_total",
		Help:      "Estimated first visits per link and IP.",
	})
)
