package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the compliance engine. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	DocumentsCreated          prometheus.Counter
	IndicatorRecomputes       prometheus.Counter
	StatisticsGenerated       *prometheus.CounterVec
	StatisticsDuration        prometheus.Histogram
	InvitationsIssued         prometheus.Counter
	InvitationsAccepted       prometheus.Counter
	BPFSubmissions            prometheus.Counter
	AuditsCompleted           *prometheus.CounterVec
	BestEffortFailures        *prometheus.CounterVec
	OrganizationsBootstrapped prometheus.Counter
}

// New registers every metric on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "qualitrack_documents_created_total",
			Help: "Total number of documents created or uploaded",
		}),
		IndicatorRecomputes: f.NewCounter(prometheus.CounterOpts{
			Name: "qualitrack_indicator_recomputes_total",
			Help: "Total number of indicator completion recomputations",
		}),
		StatisticsGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "qualitrack_statistics_generated_total",
			Help: "Total number of statistics snapshots generated, by outcome",
		}, []string{"outcome"}),
		StatisticsDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "qualitrack_statistics_generate_duration_seconds",
			Help:    "Duration of statistics snapshot generation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		InvitationsIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "qualitrack_invitations_issued_total",
			Help: "Total number of invitations issued",
		}),
		InvitationsAccepted: f.NewCounter(prometheus.CounterOpts{
			Name: "qualitrack_invitations_accepted_total",
			Help: "Total number of invitations accepted",
		}),
		BPFSubmissions: f.NewCounter(prometheus.CounterOpts{
			Name: "qualitrack_bpf_submissions_total",
			Help: "Total number of annual reports submitted",
		}),
		AuditsCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "qualitrack_audits_completed_total",
			Help: "Total number of audits completed, by result",
		}, []string{"result"}),
		BestEffortFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "qualitrack_best_effort_failures_total",
			Help: "Failures of non-fatal side effects, by kind",
		}, []string{"kind"}),
		OrganizationsBootstrapped: f.NewCounter(prometheus.CounterOpts{
			Name: "qualitrack_organizations_bootstrapped_total",
			Help: "Total number of organizations initialized",
		}),
	}
}

func (m *Metrics) IncrementDocumentsCreated() {
	if m == nil {
		return
	}
	m.DocumentsCreated.Inc()
}

func (m *Metrics) AddIndicatorRecomputes(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.IndicatorRecomputes.Add(float64(n))
}

// ObserveStatistics records one snapshot generation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveStatistics(start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.StatisticsGenerated.WithLabelValues(outcome).Inc()
	m.StatisticsDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementInvitationsIssued() {
	if m == nil {
		return
	}
	m.InvitationsIssued.Inc()
}

func (m *Metrics) IncrementInvitationsAccepted() {
	if m == nil {
		return
	}
	m.InvitationsAccepted.Inc()
}

func (m *Metrics) IncrementBPFSubmissions() {
	if m == nil {
		return
	}
	m.BPFSubmissions.Inc()
}

func (m *Metrics) IncrementAuditsCompleted(result string) {
	if m == nil {
		return
	}
	m.AuditsCompleted.WithLabelValues(result).Inc()
}

// IncrementBestEffortFailure counts a swallowed side-effect failure, such as
// a file removal or a notification.
func (m *Metrics) IncrementBestEffortFailure(kind string) {
	if m == nil {
		return
	}
	m.BestEffortFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementOrganizationsBootstrapped() {
	if m == nil {
		return
	}
	m.OrganizationsBootstrapped.Inc()
}
