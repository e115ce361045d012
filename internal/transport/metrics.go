package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Framing errors
	framingErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transport_framing_errors_total",
		Help: "Total number of discarded frames by framing and reason",
	}, []string{"framing", "reason"})

	// Link traffic
	linkBytesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transport_bytes_sent_total",
		Help: "Total bytes written to the serial device",
	}, []string{"device"})

	linkBytesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transport_bytes_received_total",
		Help: "Total bytes read from the serial device",
	}, []string{"device"})

	linkPacketsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transport_packets_sent_total",
		Help: "Total packets framed and written to the serial device",
	}, []string{"device"})

	linkPacketsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transport_packets_received_total",
		Help: "Total packets deframed from the serial device",
	}, []string{"device"})

	linkUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "transport_link_up",
		Help: "Whether the serial link is open (1) or closed (0)",
	}, []string{"device"})
)
