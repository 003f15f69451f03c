package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netdisk_messages_ingested_total",
		Help: "Total number of channel messages persisted by the ingestion loop",
	}, []string{"channel"})

	MessagesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netdisk_messages_skipped_total",
		Help: "Total number of channel messages skipped before persistence",
	}, []string{"reason"})

	DedupRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netdisk_dedup_runs_total",
		Help: "Total number of completed deduplication runs",
	}, []string{"mode"})

	DedupDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netdisk_dedup_deleted_total",
		Help: "Total number of messages removed by deduplication runs",
	})

	LinksValidated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netdisk_links_validated_total",
		Help: "Total number of provider links probed by validation tasks",
	}, []string{"provider", "result"})

	LinkCheckDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "netdisk_link_check_duration_seconds",
		Help:    "Duration of completed validation task runs",
		Buckets: prometheus.DefBuckets,
	})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "netdisk_api_request_duration_seconds",
		Help:    "Duration of REST API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
