package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Counts(t *testing.T) {
	r := New()
	r.FrameSubmitted()
	r.FrameSubmitted()
	r.BarRasterized()
	r.KeyDispatched("consumed")
	r.KeyDispatched("forwarded")
	r.KeyDispatched("consumed")
	r.RecoverableError("spawn_failure")
	r.Windows(3)

	if got := testutil.ToFloat64(r.frames); got != 2 {
		t.Fatalf("expected 2 frames, got %v", got)
	}
	if got := testutil.ToFloat64(r.bars); got != 1 {
		t.Fatalf("expected 1 rasterization, got %v", got)
	}
	if got := testutil.ToFloat64(r.keys.WithLabelValues("consumed")); got != 2 {
		t.Fatalf("expected 2 consumed keys, got %v", got)
	}
	if got := testutil.ToFloat64(r.recoverable.WithLabelValues("spawn_failure")); got != 1 {
		t.Fatalf("expected 1 spawn failure, got %v", got)
	}
	if got := testutil.ToFloat64(r.windows); got != 3 {
		t.Fatalf("expected 3 windows, got %v", got)
	}
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.FrameSubmitted()

	rr := httptest.NewRecorder()
	r.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "tessel_frames_total 1") {
		t.Fatalf("expected frames counter in output, got:\n%s", rr.Body.String())
	}
}

func TestRecorders_AreIndependent(t *testing.T) {
	a, b := New(), New()
	a.FrameSubmitted()
	if got := testutil.ToFloat64(b.frames); got != 0 {
		t.Fatalf("expected separate registries, got %v", got)
	}
}
