package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	MessagesSent        *prometheus.CounterVec
	MessagesReceived    *prometheus.CounterVec
	RateLimitRejections *prometheus.CounterVec
	UsageRecorded       *prometheus.CounterVec
	WalletBalance       *prometheus.GaugeVec
	StepRunsTotal       *prometheus.CounterVec
	ReconciledEvents    prometheus.Counter
	ReconcileAdjusts    prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		MessagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messaging_messages_sent_total",
				Help: "Outbound message attempts by channel and final status",
			},
			[]string{"channel", "status"},
		),
		MessagesReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messaging_messages_received_total",
				Help: "Inbound messages by channel",
			},
			[]string{"channel"},
		),
		RateLimitRejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messaging_rate_limit_rejections_total",
				Help: "Sends rejected by the rate limiter",
			},
			[]string{"channel", "action"},
		),
		UsageRecorded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messaging_usage_events_total",
				Help: "Billable usage events by channel and event type",
			},
			[]string{"channel", "event_type"},
		),
		WalletBalance: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "messaging_wallet_balance",
				Help: "Last observed wallet balance in minor currency units",
			},
			[]string{"tenant", "workspace"},
		),
		StepRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messaging_sequence_step_runs_total",
				Help: "Sequence step run outcomes by step type and status",
			},
			[]string{"step_type", "status"},
		),
		ReconciledEvents: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "messaging_reconciled_usage_events_total",
				Help: "Usage events matched to provider-reported actual costs",
			},
		),
		ReconcileAdjusts: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "messaging_reconcile_adjustments_total",
				Help: "Corrective wallet transactions posted by reconciliation",
			},
		),
	}
}
