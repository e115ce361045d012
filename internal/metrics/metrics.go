package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Protocol packet metrics
	packetsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "protocol_packets_sent_total",
		Help: "Total packets encoded and handed to the transport, by packet type",
	}, []string{"type"})

	packetsReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "protocol_packets_received_total",
		Help: "Total packets decoded from the transport, by packet class",
	}, []string{"class"})

	decodeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "protocol_decode_errors_total",
		Help: "Total inbound packets rejected by the decoder, by reason",
	}, []string{"reason"})

	// Session metrics
	autoAcksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_auto_acks_total",
		Help: "Total receipts sent automatically, by triggering packet type",
	}, []string{"type"})

	commandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "command_duration_seconds",
		Help:    "Time from parsing a command line to the packet reaching the wire",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
	}, []string{"verb"})

	commandErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "command_errors_total",
		Help: "Total commands that failed before reaching the wire, by verb and error type",
	}, []string{"verb", "error_type"})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "session_active_total",
		Help: "Number of active client sessions",
	})

	sessionRedialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_redials_total",
		Help: "Total link redial attempts per device",
	}, []string{"device"})
)

// RecordPacketSent increments the sent-packet counter for a packet type
func RecordPacketSent(packetType string) {
	packetsSentTotal.WithLabelValues(packetType).Inc()
}

// RecordPacketReceived increments the received-packet counter for a packet class
func RecordPacketReceived(class string) {
	packetsReceivedTotal.WithLabelValues(class).Inc()
}

// IncrementDecodeError increments the decode error counter for a reason
func IncrementDecodeError(reason string) {
	decodeErrorsTotal.WithLabelValues(reason).Inc()
}

// IncrementAutoAck increments the auto-ack counter for the packet type that
// triggered the receipt
func IncrementAutoAck(packetType string) {
	autoAcksTotal.WithLabelValues(packetType).Inc()
}

// RecordCommandDuration records how long a command took to encode and send
func RecordCommandDuration(verb string, seconds float64) {
	commandDuration.WithLabelValues(verb).Observe(seconds)
}

// IncrementCommandError increments the command error counter
func IncrementCommandError(verb, errorType string) {
	commandErrorsTotal.WithLabelValues(verb, errorType).Inc()
}

// IncrementSessions increments the active session gauge
func IncrementSessions() {
	sessionsActive.Inc()
}

// DecrementSessions decrements the active session gauge
func DecrementSessions() {
	sessionsActive.Dec()
}

// IncrementRedial increments the redial attempt counter for a device
func IncrementRedial(device string) {
	sessionRedialsTotal.WithLabelValues(device).Inc()
}
