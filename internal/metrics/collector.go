package metrics

import (
	"time"

	"photo-stream/internal/logging"
)

// StatsProvider supplies current collection statistics.
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the collection counts the Collector exports as gauges.
type Stats struct {
	TotalPhotos      int
	TotalProjects    int
	ArchivedProjects int
	TotalTags        int
}

// Collector periodically refreshes the collection gauges.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop.
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection.
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	PhotosTotal.Set(float64(stats.TotalPhotos))
	ProjectsTotal.WithLabelValues("active").Set(float64(stats.TotalProjects))
	ProjectsTotal.WithLabelValues("archived").Set(float64(stats.ArchivedProjects))
	TagsTotal.Set(float64(stats.TotalTags))

	logging.Debug("Metrics collected: photos=%d, projects=%d, tags=%d",
		stats.TotalPhotos, stats.TotalProjects, stats.TotalTags)
}
