package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealthCheckHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHealthController(fakePinger{}).HealthCheckHandler(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	NewHealthController(fakePinger{errors.New("dial tcp: refused")}).HealthCheckHandler(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "service_unavailable")
}
