// Package metrics accumulates per-child execution counts and durations into
// container metrics snapshots.
package metrics

import (
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/reporunner/containerflow/pkg/models"
)

// Aggregator is a thread-safe accumulator for one container run. Strategies
// record every child dispatch; the executor takes the final snapshot.
type Aggregator struct {
	mu      sync.Mutex
	current models.ContainerMetrics
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// RecordChild accumulates one child execution.
func (a *Aggregator) RecordChild(duration time.Duration, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.current.TotalExecutions++

	if err != nil {
		a.current.FailedExecutions++
	} else {
		a.current.SuccessfulExecutions++
	}

	a.current.TotalDurationMs += duration.Milliseconds()
	a.current.AverageDurationMs = a.current.TotalDurationMs / a.current.TotalExecutions
}

// SampleResources records best-effort memory and CPU usage of the current
// process. Sampling failures leave the previous values in place.
func (a *Aggregator) SampleResources() {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if memInfo, err := proc.MemoryInfo(); err == nil && memInfo != nil {
		a.current.MemoryBytes = memInfo.RSS
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		a.current.CPUPercent = percents[0]
	}
}

// Snapshot returns a copy of the accumulated metrics.
func (a *Aggregator) Snapshot() models.ContainerMetrics {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.current
}
