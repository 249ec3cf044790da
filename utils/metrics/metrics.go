package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestedUpdates counts processed telegram updates by outcome:
	// "stored", "duplicate", "no_media", "skipped" or "error".
	IngestedUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediamux_ingested_updates_total",
			Help: "Telegram updates processed by the ingestion pipeline",
		},
		[]string{"outcome"},
	)

	// UploadedBytes counts bytes written to object storage.
	UploadedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediamux_uploaded_bytes_total",
			Help: "Bytes uploaded to object storage",
		},
	)

	// FunctionCalls counts dashboard function invocations by name and status.
	FunctionCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediamux_function_calls_total",
			Help: "Dashboard function invocations",
		},
		[]string{"function", "status"},
	)

	// RealtimeEvents counts change events published on the realtime bus.
	RealtimeEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediamux_realtime_events_total",
			Help: "Change events published to realtime subscribers",
		},
		[]string{"table", "type"},
	)
)
