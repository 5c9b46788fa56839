package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAllHealthy(t *testing.T) {
	c := NewChecker()
	c.Register("index", func(context.Context) error { return nil })
	c.Register("redis", func(context.Context) error { return nil })

	report := c.Run(context.Background())
	assert.True(t, report.Healthy)
	require.Len(t, report.Components, 2)
	assert.True(t, report.Components["index"].Healthy)
	assert.True(t, report.Components["redis"].Healthy)
}

func TestRunOneFailing(t *testing.T) {
	c := NewChecker()
	c.Register("index", func(context.Context) error { return nil })
	c.Register("postgres", func(context.Context) error { return errors.New("connection refused") })

	report := c.Run(context.Background())
	assert.False(t, report.Healthy)
	assert.True(t, report.Components["index"].Healthy)
	assert.False(t, report.Components["postgres"].Healthy)
	assert.Equal(t, "connection refused", report.Components["postgres"].Error)
}

func TestReadyHandlerStatus(t *testing.T) {
	c := NewChecker()
	c.Register("index", func(context.Context) error { return nil })

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	c.Register("postgres", func(context.Context) error { return errors.New("down") })
	rec = httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLiveHandler(t *testing.T) {
	c := NewChecker()
	rec := httptest.NewRecorder()
	c.LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alive")
}
