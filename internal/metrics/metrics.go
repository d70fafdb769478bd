// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vqtrack/vqtrack/internal/domain"
)

var (
	initOnce sync.Once

	recordsTotalCounter        *prometheus.CounterVec
	exportsTotalCounter        *prometheus.CounterVec
	areaFTTGauge               *prometheus.GaugeVec
	areaDowntimeMinutesGauge   *prometheus.GaugeVec
	statsRefreshDurationMetric prometheus.Histogram
)

// Init registers metrics on the default Prometheus registry exactly once.
func Init() {
	initOnce.Do(func() {
		recordsTotalCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "records_total",
				Help: "Total number of record mutations by collection and operation.",
			},
			[]string{"collection", "op"},
		)

		exportsTotalCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "report_exports_total",
				Help: "Total number of report exports by format.",
			},
			[]string{"format"},
		)

		areaFTTGauge = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "area_ftt_percent",
				Help: "Current-day first-time-through rate per work area.",
			},
			[]string{"workspace", "area"},
		)

		areaDowntimeMinutesGauge = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "area_downtime_minutes",
				Help: "Current-day accumulated downtime minutes per work area.",
			},
			[]string{"workspace", "area"},
		)

		statsRefreshDurationMetric = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stats_refresh_duration_seconds",
				Help:    "Duration of worker statistics refresh cycles in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		)

		prometheus.MustRegister(
			recordsTotalCounter,
			exportsTotalCounter,
			areaFTTGauge,
			areaDowntimeMinutesGauge,
			statsRefreshDurationMetric,
		)

		// Ensure counter vectors are visible at /metrics before first increment.
		collections := []string{
			domain.CollectionPass,
			domain.CollectionDefect,
			domain.CollectionDowntime,
		}
		ops := []string{domain.OpAdd, domain.OpUpdate, domain.OpRemove, domain.OpClear}
		for _, collection := range collections {
			for _, op := range ops {
				recordsTotalCounter.WithLabelValues(collection, op)
			}
		}
		for _, format := range []string{"xlsx", "chat", "deck", "dossier", "operator_log"} {
			exportsTotalCounter.WithLabelValues(format)
		}
	})
}

func IncRecordOp(collection, op string) {
	Init()
	recordsTotalCounter.WithLabelValues(collection, op).Inc()
}

func IncExport(format string) {
	Init()
	exportsTotalCounter.WithLabelValues(format).Inc()
}

func SetAreaFTT(workspace, area string, percent float64) {
	Init()
	areaFTTGauge.WithLabelValues(workspace, area).Set(percent)
}

func SetAreaDowntimeMinutes(workspace, area string, minutes float64) {
	Init()
	areaDowntimeMinutesGauge.WithLabelValues(workspace, area).Set(minutes)
}

func ObserveStatsRefreshDuration(d time.Duration) {
	Init()
	statsRefreshDurationMetric.Observe(d.Seconds())
}
