package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"solo-persona/backend/pkg/logger"
	"solo-persona/backend/pkg/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCriticalComponentDownIsUnhealthy(t *testing.T) {
	c := NewChecker(logger.Discard(), time.Minute)
	n := 3
	c.RegisterCountCheck("question_pool", func() int { return n }, 7)

	c.RunChecks()
	assert.False(t, c.IsSystemHealthy())

	w := httptest.NewRecorder()
	c.HTTPHandler()(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	n = 14
	c.RunChecks()
	assert.True(t, c.IsSystemHealthy())
}

func TestOpenCircuitDegradesButStaysHealthy(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "gemini", FailureThreshold: 1, RetryTimeout: time.Hour}, logger.Discard())
	_ = cb.Execute(context.Background(), func(context.Context) error { return errors.New("down") })

	c := NewChecker(logger.Discard(), time.Minute)
	c.RegisterCircuitBreakerCheck("gemini", cb)
	c.RunChecks()

	status := c.GetStatus()
	assert.Equal(t, StatusDegraded, status["gemini"].Status)
	assert.Equal(t, StatusUp, status["self"].Status)
	assert.True(t, c.IsSystemHealthy())

	w := httptest.NewRecorder()
	c.HTTPHandler()(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}
