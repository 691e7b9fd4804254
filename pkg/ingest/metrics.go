package ingest

import (
	"time"

	hepmc "github.com/next-exp/hepmc_go/pkg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered on the registry given to NewMetrics. A nil *Metrics
// records nothing.
type Metrics struct {
	EventsRead       prometheus.Counter
	RecordsSkipped   *prometheus.CounterVec
	EventsWritten    *prometheus.CounterVec
	ParticlesWritten prometheus.Counter
	WriteDuration    *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "hepmc_events_read_total",
			Help: "Events returned by the reader",
		}),
		RecordsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hepmc_records_skipped_total",
			Help: "Records dropped while reading, by record tag",
		}, []string{"tag"}),
		EventsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hepmc_events_written_total",
			Help: "Events written, by sink",
		}, []string{"sink"}),
		ParticlesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "hepmc_particles_written_total",
			Help: "Particles of the events written to every sink",
		}),
		WriteDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hepmc_write_duration_seconds",
			Help:    "Time spent writing one event, by sink",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"sink"}),
	}
}

// ObserveSkipped counts a skipped record. It fits hepmc.WithSkipHandler.
func (m *Metrics) ObserveSkipped(rec *hepmc.RecordError) {
	if m == nil {
		return
	}
	m.RecordsSkipped.WithLabelValues(rec.Tag).Inc()
}

func (m *Metrics) observeRead() {
	if m == nil {
		return
	}
	m.EventsRead.Inc()
}

func (m *Metrics) observeWrite(sink string, d time.Duration) {
	if m == nil {
		return
	}
	m.EventsWritten.WithLabelValues(sink).Inc()
	m.WriteDuration.WithLabelValues(sink).Observe(d.Seconds())
}

func (m *Metrics) observeParticles(n int) {
	if m == nil {
		return
	}
	m.ParticlesWritten.Add(float64(n))
}

// WriteTextfile dumps the metrics of gatherer in the text exposition format,
// for the node exporter textfile collector.
func WriteTextfile(path string, gatherer prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, gatherer)
}
