// Package metrics provides Prometheus metrics for Metacat. Every metric is
// keyed by catalog name so that one misbehaving backend is visible on its own.
//
// # Basic Usage
//
//	collector := metrics.NewCollector("connector_factory")
//	timer := metrics.NewTimer("construct")
//	f, err := build()
//	collector.ObserveConstruction("sales_db", timer.Stop(), err)
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Collector wraps the package metrics for one component
type Collector struct {
	name      string
	startTime time.Time
	mu        sync.RWMutex
	counts    map[string]int64
}

// NewCollector creates a new metrics collector for a component.
func NewCollector(name string) *Collector {
	return &Collector{
		name:      name,
		startTime: time.Now(),
		counts:    make(map[string]int64),
	}
}

// Name returns the component name
func (c *Collector) Name() string { return c.name }

// ObserveConstruction records the outcome and latency of a factory construction
func (c *Collector) ObserveConstruction(catalog string, d time.Duration, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	FactoryConstructions.WithLabelValues(catalog, status).Inc()
	FactoryConstructionLatency.WithLabelValues(catalog).Observe(d.Seconds())
	c.inc("constructions_" + status)
}

// FactoryStopped records a factory teardown
func (c *Collector) FactoryStopped(catalog string, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	FactoryStops.WithLabelValues(catalog, status).Inc()
	c.inc("stops_" + status)
}

// ResolutionFailed records a service requested from a stopped factory
func (c *Collector) ResolutionFailed(catalog, service string) {
	ResolutionFailures.WithLabelValues(catalog, service).Inc()
	c.inc("resolution_failures")
}

// SetActiveCatalogs sets the number of registered catalogs
func (c *Collector) SetActiveCatalogs(n int) {
	ActiveCatalogs.Set(float64(n))
}

// SetActiveResources sets the number of open shared resources
func (c *Collector) SetActiveResources(n int) {
	ActiveResources.Set(float64(n))
}

// Count returns how often an event was recorded by this collector
func (c *Collector) Count(event string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counts[event]
}

// GetAll returns all current metric values
func (c *Collector) GetAll() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := map[string]interface{}{
		"component":  c.name,
		"start_time": c.startTime,
		"uptime":     time.Since(c.startTime).Seconds(),
	}
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

func (c *Collector) inc(event string) {
	c.mu.Lock()
	c.counts[event]++
	c.mu.Unlock()
}

var (
	// FactoryConstructions counts connector factory constructions.
	// Labels: catalog, status (success/failure)
	FactoryConstructions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metacat_connector_factory_constructions_total",
			Help: "Total number of connector factory constructions",
		},
		[]string{"catalog", "status"},
	)

	// FactoryConstructionLatency tracks how long building a binding container takes
	FactoryConstructionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metacat_connector_factory_construction_seconds",
			Help:    "Connector factory construction latency in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"catalog"},
	)

	// FactoryStops counts connector factory teardowns
	FactoryStops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metacat_connector_factory_stops_total",
			Help: "Total number of connector factory stops",
		},
		[]string{"catalog", "status"},
	)

	// ResolutionFailures counts services requested after a factory stopped
	ResolutionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metacat_connector_resolution_failures_total",
			Help: "Total number of service resolutions on stopped factories",
		},
		[]string{"catalog", "service"},
	)

	// ActiveCatalogs tracks registered catalogs
	ActiveCatalogs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "metacat_active_catalogs",
			Help: "Number of registered catalogs",
		},
	)

	// ActiveResources tracks open shared connection pools and clients
	ActiveResources = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "metacat_active_data_sources",
			Help: "Number of open shared data sources",
		},
	)
)

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Stop returns the elapsed duration since creation. It can be called
// repeatedly.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
