package sysinfo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeCollector() *Collector {
	return &Collector{
		cpuPercent:    func(context.Context, time.Duration) (float64, error) { return 12.5, nil },
		memoryPercent: func(context.Context) (float64, error) { return 40, nil },
		diskPercent:   func(_ context.Context, path string) (float64, error) { return 70.25, nil },
		connections:   func(context.Context) (int, error) { return 17, nil },
	}
}

func TestSnapshotCollectsAllMetrics(t *testing.T) {
	snapshot := fakeCollector().Snapshot(context.Background(), "/")

	assert.Equal(t, 12.5, snapshot.CPUPercent)
	assert.Equal(t, 40.0, snapshot.MemoryPercent)
	assert.Equal(t, 70.25, snapshot.DiskPercent)
	assert.Equal(t, 17, snapshot.Connections)
	assert.Nil(t, snapshot.Errors)
	assert.NoError(t, snapshot.Err(MetricCPU))
}

func TestSnapshotDegradesPerMetric(t *testing.T) {
	collector := fakeCollector()
	collector.connections = func(context.Context) (int, error) {
		return 0, errors.New("permission denied")
	}
	collector.diskPercent = func(_ context.Context, path string) (float64, error) {
		return 0, errors.New("no such mount: " + path)
	}

	snapshot := collector.Snapshot(context.Background(), "/missing")

	assert.Equal(t, 12.5, snapshot.CPUPercent)
	assert.Equal(t, 40.0, snapshot.MemoryPercent)
	require.Error(t, snapshot.Err(MetricConnections))
	require.Error(t, snapshot.Err(MetricDisk))
	assert.Contains(t, snapshot.Err(MetricDisk).Error(), "/missing")
	assert.NoError(t, snapshot.Err(MetricMemory))
}

func TestNewCollectorReadsHost(t *testing.T) {
	if testing.Short() {
		t.Skip("host probe")
	}
	snapshot := NewCollector().Snapshot(context.Background(), "/")
	if err := snapshot.Err(MetricMemory); err == nil {
		assert.GreaterOrEqual(t, snapshot.MemoryPercent, 0.0)
		assert.LessOrEqual(t, snapshot.MemoryPercent, 100.0)
	}
}
