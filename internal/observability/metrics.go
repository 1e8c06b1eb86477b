package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	ticketsCreated  int64
	ticketsAssigned int64
	ticketsUnrouted int64
	notifyFailures  int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordDistribution tracks assignment outcomes of ticket creation.
func (m *Metrics) RecordDistribution(assigned bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticketsCreated++
	if assigned {
		m.ticketsAssigned++
	} else {
		m.ticketsUnrouted++
	}
}

// RecordNotificationFailure counts failed mail deliveries.
func (m *Metrics) RecordNotificationFailure() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifyFailures++
}

// DistributionCounts returns created/assigned/unassigned totals.
func (m *Metrics) DistributionCounts() (created, assigned, unassigned int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticketsCreated, m.ticketsAssigned, m.ticketsUnrouted
}
