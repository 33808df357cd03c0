package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	OTPIssued        *prometheus.CounterVec
	OTPVerifications *prometheus.CounterVec
	WhatsAppMessages *prometheus.CounterVec
	PushSends        *prometheus.CounterVec
	Notifications    *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			OTPIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "otp_issued_total",
				Help:      "Total OTP send requests by outcome.",
			}, []string{"outcome"}),
			OTPVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "otp_verifications_total",
				Help:      "Total OTP verification attempts by outcome.",
			}, []string{"outcome"}),
			WhatsAppMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "whatsapp_messages_total",
				Help:      "Total outbound WhatsApp messages by type and status.",
			}, []string{"type", "status"}),
			PushSends: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "push_sends_total",
				Help:      "Total Web Push deliveries by status.",
			}, []string{"status"}),
			Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Total in-app notification records by type.",
			}, []string{"type"}),
		}

		prometheus.MustRegister(
			metricsInstance.OTPIssued,
			metricsInstance.OTPVerifications,
			metricsInstance.WhatsAppMessages,
			metricsInstance.PushSends,
			metricsInstance.Notifications,
		)
	})
	return metricsInstance
}
