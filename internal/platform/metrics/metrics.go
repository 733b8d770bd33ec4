package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ChainEntriesAppended prometheus.Counter
	ChainVerifications   *prometheus.CounterVec
	SealsGenerated       prometheus.Counter
	SealVerifications    *prometheus.CounterVec
	VaultOperations      *prometheus.CounterVec
	KeyAgeViolations     prometheus.Counter
	ApprovalDecisions    *prometheus.CounterVec
	HoldChecks           *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ChainEntriesAppended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veritas_chain_entries_appended_total",
			Help: "Total audit chain entries appended",
		}),
		ChainVerifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_chain_verifications_total",
			Help: "Chain verification runs by result",
		}, []string{"result"}),
		SealsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veritas_seals_generated_total",
			Help: "Evidence seals generated",
		}),
		SealVerifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_seal_verifications_total",
			Help: "Seal verification runs by result",
		}, []string{"result"}),
		VaultOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_vault_operations_total",
			Help: "Vault encrypt/decrypt operations by outcome",
		}, []string{"operation", "outcome"}),
		KeyAgeViolations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veritas_key_age_violations_total",
			Help: "Keys found past their maximum age during audits",
		}),
		ApprovalDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_approval_decisions_total",
			Help: "Dual-control validation decisions by result",
		}, []string{"result"}),
		HoldChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_hold_checks_total",
			Help: "Litigation hold gate checks by outcome",
		}, []string{"outcome"}),
	}
}

// VerificationResult labels a pass/fail counter vec consistently.
func VerificationResult(valid bool) string {
	if valid {
		return "valid"
	}
	return "invalid"
}
