package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	AccountsCreated      prometheus.Counter
	AccountsRemoved      prometheus.Counter
	AccountsRecovered    prometheus.Counter
	TokensIssued         prometheus.Counter
	TokensVerified       prometheus.Counter
	TokensRejected       prometheus.Counter
	CertificatesResolved prometheus.Counter
	HeartbeatTicks       prometheus.Counter
	RequestLatency       *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idm_accounts_created_total",
			Help: "Total number of accounts created in the registry",
		}),
		AccountsRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idm_accounts_removed_total",
			Help: "Total number of accounts removed from the registry",
		}),
		AccountsRecovered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idm_accounts_recovered_total",
			Help: "Total number of accounts restored through recovery",
		}),
		TokensIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idm_phone_tokens_issued_total",
			Help: "Total number of phone verification tokens issued",
		}),
		TokensVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idm_phone_tokens_verified_total",
			Help: "Total number of phone verification tokens verified",
		}),
		TokensRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idm_phone_tokens_rejected_total",
			Help: "Total number of phone verification tokens rejected",
		}),
		CertificatesResolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idm_verifier_certificates_resolved_total",
			Help: "Total number of verifier certificates resolved",
		}),
		HeartbeatTicks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idm_heartbeat_ticks_total",
			Help: "Total number of replication heartbeat ticks executed",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idm_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}
