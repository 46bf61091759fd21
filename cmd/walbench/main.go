package main

import (
	"github.com/slotlog-org/go-slotlog/pkg/bench"
	"github.com/slotlog-org/go-slotlog/pkg/config"
	"github.com/slotlog-org/go-slotlog/pkg/metrics"
	"github.com/slotlog-org/go-slotlog/util"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		util.Fatal("failed to load config: %v", err)
	}

	if cfg.EnableExporter {
		metrics.StartMetricsServer(cfg.ExporterPort)
	}

	runner := bench.NewRunner(cfg)
	if err := runner.Run(); err != nil {
		util.Fatal("benchmark failed: %v", err)
	}
}
