package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePathCollapsesUUIDs(t *testing.T) {
	in := "/api/v1/reports/0b1f3c8e-5f1a-4a6b-9c2d-7e8f9a0b1c2d/status"
	assert.Equal(t, "/api/v1/reports/{id}/status", NormalizePath(in))
}

func TestMetricsRegistryAggregates(t *testing.T) {
	m := NewMetricsRegistry()

	m.Record("GET", "/api/v1/reports", 200, 10*time.Millisecond)
	m.Record("GET", "/api/v1/reports", 500, 30*time.Millisecond)
	m.Record("POST", "/api/v1/reports", 201, 5*time.Millisecond)

	snapshot := m.Snapshot()
	assert.Len(t, snapshot, 2)

	// busiest route first
	assert.Equal(t, "GET", snapshot[0].Method)
	assert.Equal(t, int64(2), snapshot[0].Count)
	assert.Equal(t, int64(1), snapshot[0].ErrorCount)
	assert.Equal(t, float64(30), snapshot[0].MaxMillis)
}
