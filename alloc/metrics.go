package alloc

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports Allocator state to prometheus. Values are read from
// Stats on every scrape, so the allocator hot path carries no metric cost.
type Collector struct {
	a *Allocator

	activeSectors *prometheus.Desc
	mappedSectors *prometheus.Desc
	maxSectors    *prometheus.Desc
	usedChunks    *prometheus.Desc
	capacity      *prometheus.Desc
	outstanding   *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

func NewCollector(a *Allocator, namespace string, constLabels prometheus.Labels) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "sectorheap", name),
			help, nil, constLabels,
		)
	}
	return &Collector{
		a:             a,
		activeSectors: desc("active_sectors", "Sectors published into the active set."),
		mappedSectors: desc("mapped_sectors", "Pool sectors currently backed by a mapping."),
		maxSectors:    desc("max_sectors", "Capacity of the active set."),
		usedChunks:    desc("used_chunks", "Chunks claimed across mapped sectors."),
		capacity:      desc("capacity_chunks", "Chunks the active set can hold."),
		outstanding:   desc("outstanding_allocations", "Allocations not yet released."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeSectors
	ch <- c.mappedSectors
	ch <- c.maxSectors
	ch <- c.usedChunks
	ch <- c.capacity
	ch <- c.outstanding
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.a.Stats()
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}
	gauge(c.activeSectors, float64(st.ActiveSectors))
	gauge(c.mappedSectors, float64(st.MappedSectors))
	gauge(c.maxSectors, float64(st.MaxSectors))
	gauge(c.usedChunks, float64(st.UsedChunks))
	gauge(c.capacity, float64(st.CapacityChunks()))
	gauge(c.outstanding, float64(st.Outstanding))
}
