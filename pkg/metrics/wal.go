package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SlotJoins = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wal_slot_joins_total",
		Help: "Total number of successful slot joins",
	})

	SlotJoinRaces = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wal_slot_join_races_total",
		Help: "Total number of join attempts retried after losing a state race",
	})

	SlotCloses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wal_slot_closes_total",
		Help: "Total number of slots closed against further joins",
	})

	SlotTransitions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wal_slot_transitions_total",
		Help: "Total number of fresh slots installed as the active slot",
	})

	SlotConsolidatedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wal_slot_consolidated_bytes_total",
		Help: "Total bytes consolidated into slots at close time",
	})

	SlotNoFreeSlots = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wal_slot_pool_exhausted_total",
		Help: "Total number of pool scans that found no free slot",
	})

	SlotBufferBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wal_slot_buffer_bytes",
		Help: "Configured slot buffer capacity across the whole pool",
	})

	WriterFlushes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wal_writer_flushes_total",
		Help: "Total number of slot buffers written to disk by the background writer",
	})

	WriterFlushedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wal_writer_flushed_bytes_total",
		Help: "Total bytes written to disk by the background writer",
	})

	WriterErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wal_writer_errors_total",
		Help: "Total number of slot write or sync failures observed by the writer",
	})
)
