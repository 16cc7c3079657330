package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	entryCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fluxreader_entries_cache_hits_total",
		Help: "Entry fetches answered from the memoized previous call.",
	})
	entryCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fluxreader_entries_coalesced_total",
		Help: "Entry fetches that shared an in-flight request.",
	})
)
