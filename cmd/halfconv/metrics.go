package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/23skdu/longbow-half/internal/cache"
	"github.com/23skdu/longbow-half/internal/half"
)

var (
	// Values converted, by direction (narrow, widen) and precision outcome.
	valuesConverted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "halfconv_values_converted_total",
		Help: "The total number of values converted",
	}, []string{"direction", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "halfconv_request_duration_seconds",
		Help:    "Time spent processing conversion requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"handler"})

	batchesForwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "halfconv_batches_forwarded_total",
		Help: "Narrowed record batches sent downstream, by result",
	}, []string{"result"})

	_ = promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "halfconv_widen_table_entries",
		Help: "Entries in the shared binary16 widening table",
	}, func() float64 {
		return float64(cache.Default().Size())
	})
)

func observeNarrowed(p half.Precision) {
	valuesConverted.WithLabelValues("narrow", p.String()).Inc()
}

func observeWidened(n int) {
	valuesConverted.WithLabelValues("widen", "exact").Add(float64(n))
}
