package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"roomchat/internal/app/chat"
	"roomchat/internal/app/wire"
	"roomchat/internal/pkg/errs"
)

var _ chat.Observer = Observer{}

func TestObserver_Counters(t *testing.T) {
	var o Observer

	before := testutil.ToFloat64(DecodeErrorsTotal.WithLabelValues("1001"))
	o.DecodeFailed(errs.NewError(errs.ErrMalformedEnvelope))
	if got := testutil.ToFloat64(DecodeErrorsTotal.WithLabelValues("1001")); got != before+1 {
		t.Errorf("expected decode errors %v, got %v", before+1, got)
	}

	before = testutil.ToFloat64(FramesTotal.WithLabelValues("out", "message"))
	o.FrameSent(wire.TypeMessage)
	if got := testutil.ToFloat64(FramesTotal.WithLabelValues("out", "message")); got != before+1 {
		t.Errorf("expected outbound frames %v, got %v", before+1, got)
	}

	before = testutil.ToFloat64(SendFailuresTotal.WithLabelValues("2002"))
	o.SendFailed(errs.NewError(errs.ErrChannelFull))
	if got := testutil.ToFloat64(SendFailuresTotal.WithLabelValues("2002")); got != before+1 {
		t.Errorf("expected send failures %v, got %v", before+1, got)
	}
}

func TestObserver_Gauges(t *testing.T) {
	var o Observer

	o.RosterSize(3)
	if got := testutil.ToFloat64(RosterSize); got != 3 {
		t.Errorf("expected roster size 3, got %v", got)
	}

	o.TypingTimers(2)
	o.TypingTimers(0)
	if got := testutil.ToFloat64(TypingTimers); got != 0 {
		t.Errorf("expected 0 typing timers, got %v", got)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	Observer{}.EventIgnored("unknown_type")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "roomchat_ignored_events_total") {
		t.Error("expected the ignored events counter in the exposition")
	}
}
