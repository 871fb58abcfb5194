package allocator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "section_allocator"

// Metrics holds the counters updated during an allocation run
type Metrics struct {
	LookupMisses      prometheus.Counter
	Enrolled          prometheus.Counter
	Waitlisted        prometheus.Counter
	SectionsClosed    prometheus.Counter
	Passes            *prometheus.CounterVec
	ExhaustedStudents prometheus.Counter
}

// NewMetrics registers the allocation counters with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LookupMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "priority_lookup_misses_total",
			Help:      "Priority lookups that fell outside the scoring table.",
		}),
		Enrolled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "enrollments_total",
			Help:      "Seats granted to students.",
		}),
		Waitlisted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "waitlist_entries_total",
			Help:      "Students placed on a waitlist when a section closed.",
		}),
		SectionsClosed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sections_closed_total",
			Help:      "Sections that filled and were closed.",
		}),
		Passes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "passes_total",
			Help:      "Passes over the open sections, by subscription mode.",
		}, []string{"mode"}),
		ExhaustedStudents: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "exhausted_students_total",
			Help:      "Students removed from all candidacies because they reached the credit cap.",
		}),
	}
}
