package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var corruptSnapshots = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "cart_snapshot_corrupt_total",
		Help: "Stored cart snapshots discarded because they could not be decoded.",
	},
)
