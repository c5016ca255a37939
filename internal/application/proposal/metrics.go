package proposal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks coordinator activity for the /metrics endpoint
type Metrics struct {
	ProposalsCreated prometheus.Counter
	Outcomes         *prometheus.CounterVec
	DuplicateEvents  prometheus.Counter
	LateEvents       prometheus.Counter
	ConflictRetries  prometheus.Counter
}

// NewMetrics registers the coordinator metrics on the given registerer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProposalsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "proposal_created_total",
			Help: "Number of policy proposals created",
		}),
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "proposal_outcome_total",
			Help: "Number of proposals that reached a terminal state, by status",
		}, []string{"status"}),
		DuplicateEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "proposal_duplicate_events_total",
			Help: "Number of inbound events dropped by the idempotency ledger",
		}),
		LateEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "proposal_late_events_total",
			Help: "Number of inbound events absorbed after a terminal state",
		}),
		ConflictRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "proposal_conflict_retries_total",
			Help: "Number of optimistic concurrency retries",
		}),
	}
}
