package config

import (
	"encoding/json"
	"flag"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/slotlog-org/go-slotlog/util"
)

// Config holds the log engine configuration including tunable performance options
type Config struct {
	// Log files
	LogDir          string `yaml:"log_dir" json:"log.dir"`
	LogFileMaxBytes int64  `yaml:"log_file_max_bytes" json:"log.file.max.bytes"`
	Prealloc        bool   `yaml:"prealloc" json:"prealloc"`

	// Background writer
	WriterPollMS int `yaml:"writer_poll_ms" json:"writer.poll.ms"`

	// Observability
	EnableExporter bool          `yaml:"enable_exporter" json:"enable.exporter"`
	ExporterPort   int           `yaml:"exporter_port" json:"exporter.port"`
	LogLevel       util.LogLevel `yaml:"log_level" json:"log_level"`

	// Benchmark harness
	BenchProducers   int `yaml:"bench_producers" json:"bench.producers"`
	BenchRecords     int `yaml:"bench_records" json:"bench.records"`
	BenchRecordBytes int `yaml:"bench_record_bytes" json:"bench.record.bytes"`
}

// Default returns a Config with every field at its normalized default.
func Default() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// LoadConfig builds a Config from command-line flags and an optional YAML or
// JSON config file. Flags override file values.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	configPath := flag.String("config", "", "Path to YAML/JSON config file")
	logDirStr := flag.String("log-dir", "wal-logs", "Directory for log files")
	fileMaxStr := flag.String("log-file-max", "104857600", "Maximum log file size in bytes (default: 100MB)")
	preallocStr := flag.String("prealloc", "true", "Pre-extend log files on creation")
	writerPollStr := flag.String("writer-poll-ms", "10", "Background writer poll interval (ms)")
	exporterStr := flag.String("exporter", "false", "Enable Prometheus exporter")
	exporterPortStr := flag.String("exporter-port", "9100", "Exporter port")
	logLevelStr := flag.String("log-level", "info", "Log Level (debug, info, warn, error)")

	benchProducersStr := flag.String("bench-producers", "8", "Concurrent producers for walbench")
	benchRecordsStr := flag.String("bench-records", "10000", "Records per producer for walbench")
	benchRecordBytesStr := flag.String("bench-record-bytes", "128", "Payload size per record for walbench")

	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" && *configPath == "" {
		*configPath = envPath
	}

	flag.Parse()

	applyDefaults(cfg, logDirStr, fileMaxStr, preallocStr, writerPollStr,
		exporterStr, exporterPortStr, logLevelStr,
		benchProducersStr, benchRecordsStr, benchRecordBytesStr)

	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return nil, err
		}

		if strings.HasSuffix(*configPath, ".json") {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	cfg.Normalize()
	util.SetLevel(cfg.LogLevel)

	return cfg, nil
}

func applyDefaults(cfg *Config, logDirStr, fileMaxStr, preallocStr, writerPollStr,
	exporterStr, exporterPortStr, logLevelStr,
	benchProducersStr, benchRecordsStr, benchRecordBytesStr *string) {

	cfg.LogDir = *logDirStr
	cfg.LogFileMaxBytes = util.ParseInt64(*fileMaxStr, 100*1024*1024)
	cfg.Prealloc = util.ParseBool(*preallocStr, true)
	cfg.WriterPollMS = util.ParseInt(*writerPollStr, 10)
	cfg.EnableExporter = util.ParseBool(*exporterStr, false)
	cfg.ExporterPort = util.ParseInt(*exporterPortStr, 9100)
	cfg.LogLevel = util.ParseLevel(*logLevelStr)

	cfg.BenchProducers = util.ParseInt(*benchProducersStr, 8)
	cfg.BenchRecords = util.ParseInt(*benchRecordsStr, 10000)
	cfg.BenchRecordBytes = util.ParseInt(*benchRecordBytesStr, 128)
}
