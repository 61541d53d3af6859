package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Service bundles the relay's prometheus collectors. Each Service owns its
// registry so concurrently running test servers never collide on
// registration.
type Service struct {
	Registry *prometheus.Registry

	InitiationsStarted   prometheus.Counter
	InitiationsSettled   prometheus.Counter
	InitiationsAborted   prometheus.Counter
	RefundsIssued        prometheus.Counter
	SignaturesDispatched prometheus.Counter
	SignaturesCompleted  prometheus.Counter
	SignaturesFailed     prometheus.Counter
}

func New() *Service {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Service{
		Registry: registry,
		InitiationsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_initiations_started_total",
			Help: "Number of transaction initiations accepted for processing.",
		}),
		InitiationsSettled: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_initiations_settled_total",
			Help: "Number of transaction initiations that persisted a signature batch.",
		}),
		InitiationsAborted: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_initiations_aborted_total",
			Help: "Number of transaction initiations aborted after the deposit was attached.",
		}),
		RefundsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_refunds_issued_total",
			Help: "Number of refund transfers issued back to callers.",
		}),
		SignaturesDispatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_signatures_dispatched_total",
			Help: "Number of signing sub-requests dispatched to the signer.",
		}),
		SignaturesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_signatures_completed_total",
			Help: "Number of signing sub-requests finalized with a signature.",
		}),
		SignaturesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_signatures_failed_total",
			Help: "Number of signer calls that failed and left a sub-request in flight.",
		}),
	}
}
