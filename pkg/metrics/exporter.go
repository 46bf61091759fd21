package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slotlog-org/go-slotlog/util"
)

func init() {
	prometheus.MustRegister(SlotJoins, SlotJoinRaces, SlotCloses, SlotTransitions, SlotConsolidatedBytes)
	prometheus.MustRegister(SlotNoFreeSlots, SlotBufferBytes, WriterFlushes, WriterFlushedBytes, WriterErrors)
}

// StartMetricsServer exposes all registered metrics on /metrics.
func StartMetricsServer(port int) {
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", port)
		util.Info("Prometheus exporter listening on %s", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			util.Error("metrics server failed: %v", err)
		}
	}()
}
