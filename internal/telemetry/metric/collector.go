package metric

import "github.com/prometheus/client_golang/prometheus"

// KeyCounter reports the number of stored keys.
type KeyCounter interface {
	Len() int
}

// KeysCollector exports the key count at scrape time.
type KeysCollector struct {
	src  KeyCounter
	desc *prometheus.Desc
}

// NewKeysCollector creates a collector reading from src.
func NewKeysCollector(src KeyCounter) *KeysCollector {
	return &KeysCollector{
		src: src,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "keys"),
			"Number of keys currently stored.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *KeysCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *KeysCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(c.src.Len()))
}
