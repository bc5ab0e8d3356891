// Package sysinfo samples host utilization for the sysinfo built-in.
package sysinfo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
	"golang.org/x/sync/errgroup"
)

type Metric string

const (
	MetricCPU         Metric = "cpu"
	MetricMemory      Metric = "memory"
	MetricDisk        Metric = "disk"
	MetricConnections Metric = "connections"
)

// Snapshot holds one reading per metric. A metric whose probe failed has an
// entry in Errors and a zero value.
type Snapshot struct {
	CPUPercent    float64
	MemoryPercent float64
	DiskPercent   float64
	Connections   int
	Errors        map[Metric]error
}

func (s Snapshot) Err(metric Metric) error {
	if s.Errors == nil {
		return nil
	}
	return s.Errors[metric]
}

// Collector reads metrics through gopsutil. The probe fields are swapped out
// in tests.
type Collector struct {
	CPUInterval time.Duration

	cpuPercent    func(ctx context.Context, interval time.Duration) (float64, error)
	memoryPercent func(ctx context.Context) (float64, error)
	diskPercent   func(ctx context.Context, path string) (float64, error)
	connections   func(ctx context.Context) (int, error)
}

func NewCollector() *Collector {
	return &Collector{
		cpuPercent:    hostCPUPercent,
		memoryPercent: hostMemoryPercent,
		diskPercent:   hostDiskPercent,
		connections:   hostConnections,
	}
}

// Snapshot probes every metric concurrently. One failing probe never hides
// the others.
func (c *Collector) Snapshot(ctx context.Context, diskPath string) Snapshot {
	var (
		mu       sync.Mutex
		snapshot = Snapshot{Errors: map[Metric]error{}}
	)
	record := func(metric Metric, err error) {
		mu.Lock()
		defer mu.Unlock()
		snapshot.Errors[metric] = err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		value, err := c.cpuPercent(gctx, c.CPUInterval)
		if err != nil {
			record(MetricCPU, err)
			return nil
		}
		mu.Lock()
		snapshot.CPUPercent = value
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		value, err := c.memoryPercent(gctx)
		if err != nil {
			record(MetricMemory, err)
			return nil
		}
		mu.Lock()
		snapshot.MemoryPercent = value
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		value, err := c.diskPercent(gctx, diskPath)
		if err != nil {
			record(MetricDisk, err)
			return nil
		}
		mu.Lock()
		snapshot.DiskPercent = value
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		value, err := c.connections(gctx)
		if err != nil {
			record(MetricConnections, err)
			return nil
		}
		mu.Lock()
		snapshot.Connections = value
		mu.Unlock()
		return nil
	})
	_ = g.Wait()

	if len(snapshot.Errors) == 0 {
		snapshot.Errors = nil
	}
	return snapshot
}

func hostCPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	values, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("no cpu reading")
	}
	return values[0], nil
}

func hostMemoryPercent(ctx context.Context) (float64, error) {
	stat, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return stat.UsedPercent, nil
}

func hostDiskPercent(ctx context.Context, path string) (float64, error) {
	stat, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, err
	}
	return stat.UsedPercent, nil
}

func hostConnections(ctx context.Context) (int, error) {
	conns, err := psnet.ConnectionsWithContext(ctx, "all")
	if err != nil {
		return 0, err
	}
	return len(conns), nil
}
