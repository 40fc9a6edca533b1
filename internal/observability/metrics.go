package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Webhook outcomes.
const (
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeFailed    = "failed"
)

var (
	webhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatsapp_webhook_events_total",
			Help: "Inbound WhatsApp messages by processing outcome.",
		},
		[]string{"outcome"},
	)

	outboundMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatsapp_outbound_messages_total",
			Help: "Outbound WhatsApp API calls by message kind and result.",
		},
		[]string{"kind", "result"},
	)

	ordersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_orders_placed_total",
			Help: "Orders created, by payment method and channel (whatsapp|api).",
		},
		[]string{"payment_method", "channel"},
	)
)

func init() {
	prometheus.MustRegister(webhookEvents, outboundMessages, ordersPlaced)
}

// RecordWebhookEvent counts one inbound message with the given outcome.
func RecordWebhookEvent(outcome string) {
	webhookEvents.WithLabelValues(outcome).Inc()
}

// RecordOutbound counts one outbound call. Its signature matches
// whatsapp.WithObserver.
func RecordOutbound(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	outboundMessages.WithLabelValues(kind, result).Inc()
}

// RecordOrderPlaced counts one created order.
func RecordOrderPlaced(paymentMethod, channel string) {
	ordersPlaced.WithLabelValues(paymentMethod, channel).Inc()
}
