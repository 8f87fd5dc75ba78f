package metrics

import (
	"sync"
	"time"
)

type NoopRecorder struct{}

func (NoopRecorder) IncCounter(string, map[string]string)                    {}
func (NoopRecorder) ObserveLatency(string, time.Duration, map[string]string) {}

// MemoryRecorder keeps counters in memory, keyed by event name and rail.
type MemoryRecorder struct {
	mu        sync.Mutex
	counts    map[string]int
	latencies map[string]int
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		counts:    make(map[string]int),
		latencies: make(map[string]int),
	}
}

func (m *MemoryRecorder) IncCounter(name string, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key(name, labels)]++
}

func (m *MemoryRecorder) ObserveLatency(name string, _ time.Duration, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies[key(name, labels)]++
}

// Count returns how often name was counted for rail ("" for no rail).
func (m *MemoryRecorder) Count(name, rail string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key(name, map[string]string{"rail": rail})]
}

// Observations returns how many latency samples were taken for operation.
func (m *MemoryRecorder) Observations(operation, rail string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latencies[key(operation, map[string]string{"rail": rail})]
}

func key(name string, labels map[string]string) string {
	return name + "/" + labels["rail"]
}
