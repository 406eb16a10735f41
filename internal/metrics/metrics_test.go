package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.PlaysStarted.Inc()
	m.PlaysStarted.Inc()
	m.PlaysEnded.WithLabelValues("completed").Inc()
	m.Collections.WithLabelValues("music").Add(3)

	if got := testutil.ToFloat64(m.PlaysStarted); got != 2 {
		t.Errorf("plays started = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.PlaysEnded.WithLabelValues("completed")); got != 1 {
		t.Errorf("plays completed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Collections.WithLabelValues("music")); got != 3 {
		t.Errorf("music collections = %v, want 3", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.LivePlays.Set(4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "lunastars_live_plays 4") {
		t.Errorf("metrics output missing live plays gauge:\n%s", body)
	}
}
