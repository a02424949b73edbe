package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LastIndexedBlock tracks the cursor per chain and contract.
	LastIndexedBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "agentscan_last_indexed_block",
		Help: "Last block applied to the cursor.",
	}, []string{"chain", "contract"})

	// LogsProcessed counts decoded and dispatched logs.
	LogsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentscan_logs_processed_total",
		Help: "Logs decoded and dispatched.",
	}, []string{"chain", "contract"})

	// DecodeFailures counts logs skipped because decoding failed.
	DecodeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentscan_decode_failures_total",
		Help: "Logs skipped because they did not match the ABI.",
	}, []string{"chain", "contract"})

	// BatchFailures counts block ranges that failed and will be retried.
	BatchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentscan_batch_failures_total",
		Help: "Block ranges that failed and held back the cursor.",
	}, []string{"chain", "contract"})

	// MetadataFetches counts agent URI resolutions by outcome.
	MetadataFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentscan_metadata_fetches_total",
		Help: "Agent URI resolutions by outcome.",
	}, []string{"outcome"})

	// BackfillBlocks counts timestamp backfill lookups by outcome.
	BackfillBlocks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentscan_backfill_blocks_total",
		Help: "Timestamp backfill block lookups by outcome.",
	}, []string{"outcome"})
)
