package observability

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestMeterProviderExportsToRegistry(t *testing.T) {
	res, err := Resource("solo-persona-test", "0.0.0")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	mp, err := NewMeterProvider(res, reg)
	require.NoError(t, err)
	defer mp.Shutdown(context.Background())

	counter, err := mp.Meter("test").Int64Counter("quiz.cycles")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	w := httptest.NewRecorder()
	MetricsHandler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "quiz_cycles_total")
}

func TestTracingWritesSpans(t *testing.T) {
	res, err := Resource("solo-persona-test", "0.0.0")
	require.NoError(t, err)

	var buf bytes.Buffer
	shutdown, err := SetupTracing(res, &buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "analysis.cycle")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), "analysis.cycle")
}
