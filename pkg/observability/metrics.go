package observability

import (
	"sync"
	"time"
)

// MetricsClient defines the interface for metrics collection
type MetricsClient interface {
	// RecordOperation records the outcome and duration of one named
	// operation performed by a component
	RecordOperation(component string, operation string, success bool, durationSeconds float64, labels map[string]string)

	// RecordLatency records the duration of a named operation
	RecordLatency(operation string, duration time.Duration)

	// RecordCounter increments a named counter
	RecordCounter(name string, value float64, labels map[string]string)
}

// InMemoryMetricsClient is a MetricsClient that aggregates in process
// memory. It backs local deployments and tests; production deployments can
// substitute an exporter-backed implementation behind the same interface.
type InMemoryMetricsClient struct {
	mu       sync.Mutex
	counters map[string]float64
	timings  map[string][]time.Duration
}

// NewInMemoryMetricsClient creates a new in-memory metrics client
func NewInMemoryMetricsClient() *InMemoryMetricsClient {
	return &InMemoryMetricsClient{
		counters: make(map[string]float64),
		timings:  make(map[string][]time.Duration),
	}
}

// RecordOperation records the outcome and duration of one operation
func (m *InMemoryMetricsClient) RecordOperation(component string, operation string, success bool, durationSeconds float64, labels map[string]string) {
	key := component + "." + operation
	status := ".success"
	if !success {
		status = ".failure"
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key+status]++
	m.timings[key] = append(m.timings[key], time.Duration(durationSeconds*float64(time.Second)))
}

// RecordLatency records the duration of a named operation
func (m *InMemoryMetricsClient) RecordLatency(operation string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timings[operation] = append(m.timings[operation], duration)
}

// RecordCounter increments a named counter
func (m *InMemoryMetricsClient) RecordCounter(name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] += value
}

// CounterValue returns the current value of a counter. Intended for tests.
func (m *InMemoryMetricsClient) CounterValue(name string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}
