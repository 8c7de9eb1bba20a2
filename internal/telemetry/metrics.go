package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FavoriteToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipefinder_favorite_toggles_total",
		Help: "Favorite toggles by resulting state.",
	}, []string{"state"})

	Favorites = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "recipefinder_favorites",
		Help: "Number of favorite recipes currently held in memory.",
	})

	ResolverMissing = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipefinder_resolver_missing_total",
		Help: "Favorite ids dropped from a resolved batch because their lookup failed.",
	})

	StoreWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipefinder_store_write_failures_total",
		Help: "Durable store writes that failed and left the in-memory state ahead of storage.",
	})

	StoreReadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipefinder_store_read_failures_total",
		Help: "Durable store reads that failed for a reason other than a missing key.",
	})
)
