package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.ObserveUpstream("/items", http.MethodGet, 200, time.Millisecond)
	r.DebounceSuperseded("catalog")
	r.StaleDiscarded("catalog")
	r.StatusRolledBack()
	r.CheckoutHandoff("failed")
	r.SetActiveSessions(3)
	if r.Registry() != nil {
		t.Fatalf("nil recorder should not expose a registry")
	}
}

func TestRecorderCounters(t *testing.T) {
	r := New()
	r.ObserveUpstream("/vendor/items", http.MethodGet, 200, 20*time.Millisecond)
	r.ObserveUpstream("/vendor/items", http.MethodGet, 0, time.Millisecond)
	r.StaleDiscarded("seller_orders")
	r.StaleDiscarded("seller_orders")
	r.StatusRolledBack()

	if got := testutil.ToFloat64(r.upstreamRequests.WithLabelValues("/vendor/items", "GET", "error")); got != 1 {
		t.Fatalf("transport error counter want 1 got %v", got)
	}
	if got := testutil.ToFloat64(r.staleResponses.WithLabelValues("seller_orders")); got != 2 {
		t.Fatalf("stale counter want 2 got %v", got)
	}
	if got := testutil.ToFloat64(r.statusRollbacks); got != 1 {
		t.Fatalf("rollback counter want 1 got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New()
	r.CheckoutHandoff("redirected")

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), MetricCheckoutHandoffsTotal) {
		t.Fatalf("expected checkout metric in output")
	}
}
