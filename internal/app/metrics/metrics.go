// Package metrics provides Prometheus instrumentation for the chat client.
// It counts frames in both directions, decode failures, ignored events and
// failed sends, and tracks the roster size and the live typing timers.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"roomchat/internal/app/wire"
	"roomchat/internal/pkg/errs"
)

var (
	// FramesTotal counts frames by direction ("in", "out") and, for outbound
	// frames, by messageType.
	FramesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roomchat_frames_total",
		Help: "Total number of frames exchanged with the chat server",
	}, []string{"direction", "type"})

	// DecodeErrorsTotal counts discarded inbound frames by error code.
	DecodeErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roomchat_decode_errors_total",
		Help: "Total number of inbound frames that could not be decoded",
	}, []string{"code"})

	// IgnoredEventsTotal counts decoded events that were dropped as no-ops.
	IgnoredEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roomchat_ignored_events_total",
		Help: "Total number of inbound events ignored by the session",
	}, []string{"kind"})

	// SendFailuresTotal counts outbound frames that did not reach the transport.
	SendFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roomchat_send_failures_total",
		Help: "Total number of outbound frames that could not be sent",
	}, []string{"code"})

	// RosterSize tracks the number of users in the latest roster snapshot.
	RosterSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roomchat_roster_size",
		Help: "Number of users in the current roster",
	})

	// TypingTimers tracks the number of pending typing expiries.
	TypingTimers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roomchat_typing_timers",
		Help: "Number of remote typing indicators waiting to expire",
	})
)

func init() {
	prometheus.MustRegister(
		FramesTotal,
		DecodeErrorsTotal,
		IgnoredEventsTotal,
		SendFailuresTotal,
		RosterSize,
		TypingTimers,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Observer feeds session events into the package metrics.
type Observer struct{}

func (Observer) FrameReceived() {
	FramesTotal.WithLabelValues("in", "").Inc()
}

func (Observer) DecodeFailed(err error) {
	DecodeErrorsTotal.WithLabelValues(strconv.Itoa(errs.CodeOf(err))).Inc()
}

func (Observer) EventIgnored(kind string) {
	IgnoredEventsTotal.WithLabelValues(kind).Inc()
}

func (Observer) FrameSent(kind wire.MessageType) {
	FramesTotal.WithLabelValues("out", string(kind)).Inc()
}

func (Observer) SendFailed(err error) {
	SendFailuresTotal.WithLabelValues(strconv.Itoa(errs.CodeOf(err))).Inc()
}

func (Observer) RosterSize(n int) {
	RosterSize.Set(float64(n))
}

func (Observer) TypingTimers(n int) {
	TypingTimers.Set(float64(n))
}
