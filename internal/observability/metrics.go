package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reply outcome label values for RepliesTotal.
const (
	ReplyOutcomeGenerated = "generated"
	ReplyOutcomeFallback  = "fallback"
	ReplyOutcomeSilent    = "silent"
)

// Delivery status label values for DeliveriesTotal.
const (
	DeliveryStatusSent   = "sent"
	DeliveryStatusFailed = "failed"
)

var (
	// InboundMessagesTotal counts customer messages accepted by the webhook
	// router, after deduplication.
	InboundMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "whats",
		Subsystem: "router",
		Name:      "inbound_messages_total",
		Help:      "Customer messages routed, excluding duplicates and empty bodies.",
	})

	// RepliesTotal counts automated reply attempts by outcome: generated by
	// the engine, replaced by the fallback text, or silenced (human mode or
	// no credit).
	RepliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "whats",
		Subsystem: "router",
		Name:      "replies_total",
		Help:      "Automated reply attempts by outcome.",
	}, []string{"outcome"})

	// CreditsConsumedTotal tracks credits spent across automated replies and
	// operator sends.
	CreditsConsumedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "whats",
		Subsystem: "ledger",
		Name:      "credits_consumed_total",
		Help:      "Credits decremented from the balance.",
	})

	// DeliveriesTotal counts outbound sends by terminal status.
	DeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "whats",
		Subsystem: "delivery",
		Name:      "deliveries_total",
		Help:      "Outbound message sends by status.",
	}, []string{"status"})
)
