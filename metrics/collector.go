// Package metrics is a small in-process metrics collector: counters,
// gauges and bounded histograms with labels, exposed as a JSON snapshot
// over HTTP.
package metrics

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pixelforge/pixelforge/json"
)

// historyLimit bounds the samples kept per histogram.
const historyLimit = 100

// Metric is one named measurement.
type Metric struct {
	Type      string            `json:"type"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
	History   []float64         `json:"history,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// Collector aggregates metrics. The zero value is not usable; call
// NewCollector.
type Collector struct {
	mu      sync.RWMutex
	metrics map[string]*Metric
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{metrics: make(map[string]*Metric)}
}

// IncCounter increments a counter by one.
func (c *Collector) IncCounter(name string, labels map[string]string) {
	c.AddCounter(name, 1, labels)
}

// AddCounter increments a counter by value.
func (c *Collector) AddCounter(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := buildKey(name, labels)
	if metric, exists := c.metrics[key]; exists {
		metric.Value += value
		metric.Timestamp = time.Now().Unix()
		return
	}
	c.metrics[key] = &Metric{
		Type:      "counter",
		Value:     value,
		Labels:    labels,
		Timestamp: time.Now().Unix(),
	}
}

// SetGauge sets a gauge to value.
func (c *Collector) SetGauge(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics[buildKey(name, labels)] = &Metric{
		Type:      "gauge",
		Value:     value,
		Labels:    labels,
		Timestamp: time.Now().Unix(),
	}
}

// ObserveHistogram records one histogram sample.
func (c *Collector) ObserveHistogram(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := buildKey(name, labels)
	metric, exists := c.metrics[key]
	if !exists {
		metric = &Metric{Type: "histogram", Labels: labels}
		c.metrics[key] = metric
	}
	metric.History = append(metric.History, value)
	if len(metric.History) > historyLimit {
		metric.History = metric.History[1:]
	}
	metric.Value = value
	metric.Timestamp = time.Now().Unix()
}

// Snapshot returns a copy of all metrics keyed by name{labels}.
func (c *Collector) Snapshot() map[string]Metric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]Metric, len(c.metrics))
	for key, metric := range c.metrics {
		copied := *metric
		copied.History = append([]float64(nil), metric.History...)
		out[key] = copied
	}
	return out
}

// Handler serves the snapshot as JSON.
func (c *Collector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(c.Snapshot())
	})
}

// buildKey renders name{k=v,...} with sorted label keys so the same label
// set always maps to the same metric.
func buildKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	b.WriteByte('}')
	return b.String()
}
