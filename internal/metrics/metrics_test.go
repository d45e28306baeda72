package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New(nil)
	b := New(nil)

	a.ActiveRooms.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.ActiveRooms))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ActiveRooms))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.MatchesFinished.WithLabelValues("ultimatum", "draw").Inc()
	m.Waiting.WithLabelValues("prisoners_dilemma").Set(1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `arena_matches_finished_total{mode="ultimatum",outcome="draw"} 1`))
	assert.True(t, strings.Contains(body, `arena_queue_waiting{mode="prisoners_dilemma"} 1`))
}
