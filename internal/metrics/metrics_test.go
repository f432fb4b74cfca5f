package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(SessionEventsTotal.WithLabelValues("zoomend"))
	SessionEventsTotal.WithLabelValues("zoomend").Inc()
	assert.InDelta(t, before+1, testutil.ToFloat64(SessionEventsTotal.WithLabelValues("zoomend")), 1e-9)
}

func TestHandler(t *testing.T) {
	SessionsTotal.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "storemap_sessions_total")
}
