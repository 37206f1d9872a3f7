package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestObserveStoreOp(t *testing.T) {
	before := testutil.ToFloat64(StoreOperations.WithLabelValues("test_op", "error"))

	ObserveStoreOp("test_op", time.Now(), errors.New("boom"))
	ObserveStoreOp("test_op", time.Now(), nil)

	if got := testutil.ToFloat64(StoreOperations.WithLabelValues("test_op", "error")); got != before+1 {
		t.Fatalf("expected error counter %v, got %v", before+1, got)
	}
	if got := testutil.ToFloat64(StoreOperations.WithLabelValues("test_op", "ok")); got < 1 {
		t.Fatalf("expected ok counter to be incremented, got %v", got)
	}
}

func TestServerRoutes(t *testing.T) {
	PlaysRecorded.Inc()
	srv := NewServer("127.0.0.1:0", zerolog.Nop())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("unexpected health response: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "gameshelf_plays_recorded_total") {
		t.Fatalf("expected gameshelf metrics in output")
	}
}
