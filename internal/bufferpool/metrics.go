package bufferpool

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts pool activity. With a nil registerer the counters still work
// but are not exported anywhere, which is what tests and throwaway pools use.
type Metrics struct {
	Hits       prometheus.Counter
	Misses     prometheus.Counter
	Evictions  prometheus.Counter
	Writebacks prometheus.Counter
	DiskReads  prometheus.Counter
	DiskWrites prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pagebuf", Name: "pool_hits_total",
			Help: "Page requests served from a resident frame.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pagebuf", Name: "pool_misses_total",
			Help: "Page requests that had to load from disk.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pagebuf", Name: "pool_evictions_total",
			Help: "Resident pages evicted by the clock replacer.",
		}),
		Writebacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pagebuf", Name: "pool_writebacks_total",
			Help: "Dirty pages written back before frame reuse or during flush.",
		}),
		DiskReads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pagebuf", Name: "disk_reads_total",
			Help: "Pages read from the file layer.",
		}),
		DiskWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pagebuf", Name: "disk_writes_total",
			Help: "Pages written to the file layer.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Hits, m.Misses, m.Evictions, m.Writebacks, m.DiskReads, m.DiskWrites)
	}
	return m
}
