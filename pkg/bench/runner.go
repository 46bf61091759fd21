package bench

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/slotlog-org/go-slotlog/pkg/config"
	"github.com/slotlog-org/go-slotlog/pkg/disk"
	"github.com/slotlog-org/go-slotlog/pkg/record"
	"github.com/slotlog-org/go-slotlog/pkg/wal"
)

// Runner drives concurrent producers through the consolidation engine and
// reports throughput.
type Runner struct {
	cfg   *config.Config
	RunID string
}

func NewRunner(cfg *config.Config) *Runner {
	return &Runner{
		cfg:   cfg,
		RunID: uuid.New().String(),
	}
}

func (r *Runner) Run() error {
	h, err := disk.NewHandler(r.cfg)
	if err != nil {
		return err
	}
	defer h.Close()

	m, err := wal.NewSlotManager(r.cfg, h)
	if err != nil {
		return err
	}
	m.Start()

	producers := r.cfg.BenchProducers
	perProducer := r.cfg.BenchRecords
	total := producers * perProducer

	errCh := make(chan error, producers)
	start := time.Now()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()

			payload := make([]byte, r.cfg.BenchRecordBytes)
			copy(payload, fmt.Sprintf("%s/%s/%d:", r.RunID, uuid.New().String(), pid))
			framed := make([]byte, record.EncodedLen(len(payload)))
			n := record.Encode(framed, payload)

			for i := 0; i < perProducer; i++ {
				if err := m.Append(framed[:n], 0); err != nil {
					errCh <- fmt.Errorf("producer %d: %w", pid, err)
					return
				}
			}
		}(p)
	}
	wg.Wait()

	if err := m.Flush(); err != nil {
		return fmt.Errorf("final flush: %w", err)
	}
	m.Stop()
	if err := m.Destroy(); err != nil {
		return err
	}

	duration := time.Since(start)
	throughput := float64(total) / duration.Seconds()

	fmt.Printf("\nWAL CONSOLIDATION BENCHMARK\n")
	fmt.Printf("-------------------------------------\n")
	fmt.Printf(" Run ID        : %s\n", r.RunID)
	fmt.Printf(" Producers     : %d\n", producers)
	fmt.Printf(" Record bytes  : %d\n", r.cfg.BenchRecordBytes)
	fmt.Printf(" Total Records : %d\n", total)
	fmt.Printf(" Duration      : %v\n", duration)
	fmt.Printf(" Throughput    : %.2f rec/sec\n", throughput)
	fmt.Printf("-------------------------------------\n")

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
