package config

import (
	"strings"

	"github.com/slotlog-org/go-slotlog/util"
)

// Normalize clamps invalid or unset values to their defaults.
func (cfg *Config) Normalize() {
	if strings.TrimSpace(cfg.LogDir) == "" {
		cfg.LogDir = "wal-logs"
	}
	if cfg.LogFileMaxBytes <= 0 {
		cfg.LogFileMaxBytes = 100 * 1024 * 1024
	}
	// A file this small cannot hold even one slot buffer worth of records.
	if cfg.LogFileMaxBytes < 1024 {
		util.Warn("Invalid log_file_max_bytes (%d), clamping to 1024", cfg.LogFileMaxBytes)
		cfg.LogFileMaxBytes = 1024
	}
	if cfg.WriterPollMS <= 0 {
		cfg.WriterPollMS = 10
	}
	if cfg.ExporterPort <= 0 {
		cfg.ExporterPort = 9100
	}

	if cfg.BenchProducers <= 0 {
		cfg.BenchProducers = 8
	}
	if cfg.BenchRecords <= 0 {
		cfg.BenchRecords = 10000
	}
	if cfg.BenchRecordBytes <= 0 {
		cfg.BenchRecordBytes = 128
	}
}
