package api

import (
	"regexp"
	"sort"
	"sync"
	"time"
)

// RouteMetrics aggregates request metrics for one method+route pair
type RouteMetrics struct {
	Method       string        `json:"method"`
	Path         string        `json:"path"`
	Count        int64         `json:"count"`
	ErrorCount   int64         `json:"errorCount"`
	TotalTime    time.Duration `json:"-"`
	MaxTime      time.Duration `json:"-"`
	AvgMillis    float64       `json:"avgMillis"`
	MaxMillis    float64       `json:"maxMillis"`
	LastAccessed time.Time     `json:"lastAccessed"`
}

// MetricsRegistry keeps in-process request metrics, keyed by method and
// normalized path. Process lifetime only, resets on restart.
type MetricsRegistry struct {
	mu     sync.Mutex
	routes map[string]*RouteMetrics
}

// NewMetricsRegistry creates an empty registry
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{routes: make(map[string]*RouteMetrics)}
}

// uuids in paths collapse to a placeholder so every report or notification
// hits the same bucket
var idSegment = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// NormalizePath replaces identifier segments with {id}
func NormalizePath(path string) string {
	return idSegment.ReplaceAllString(path, "{id}")
}

// Record adds one request observation
func (m *MetricsRegistry) Record(method, path string, status int, duration time.Duration) {
	normalized := NormalizePath(path)
	key := method + " " + normalized

	m.mu.Lock()
	defer m.mu.Unlock()

	route, ok := m.routes[key]
	if !ok {
		route = &RouteMetrics{Method: method, Path: normalized}
		m.routes[key] = route
	}
	route.Count++
	if status >= 500 {
		route.ErrorCount++
	}
	route.TotalTime += duration
	if duration > route.MaxTime {
		route.MaxTime = duration
	}
	route.AvgMillis = float64(route.TotalTime.Milliseconds()) / float64(route.Count)
	route.MaxMillis = float64(route.MaxTime.Milliseconds())
	route.LastAccessed = time.Now().UTC()
}

// Snapshot returns a copy of all route metrics, busiest first
func (m *MetricsRegistry) Snapshot() []RouteMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]RouteMetrics, 0, len(m.routes))
	for _, route := range m.routes {
		out = append(out, *route)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
