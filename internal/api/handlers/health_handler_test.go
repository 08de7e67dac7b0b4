package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/patientflow/internal/api/handlers"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(ctx context.Context) error {
	return s.err
}

func TestHealthHandler_Ready(t *testing.T) {
	down := errors.New("connection refused")

	tests := []struct {
		name     string
		deps     []handlers.Dependency
		wantCode int
		wantBody string
	}{
		{
			name: "all reachable",
			deps: []handlers.Dependency{
				{Name: "postgres", Pinger: stubPinger{}, Required: true},
				{Name: "redis", Pinger: stubPinger{}},
			},
			wantCode: http.StatusOK,
			wantBody: `{"status":"ready","checks":{"postgres":"ok","redis":"ok"}}`,
		},
		{
			name: "optional store down degrades",
			deps: []handlers.Dependency{
				{Name: "postgres", Pinger: stubPinger{}, Required: true},
				{Name: "redis", Pinger: stubPinger{err: down}},
			},
			wantCode: http.StatusOK,
			wantBody: `{"status":"degraded","checks":{"postgres":"ok","redis":"unreachable"}}`,
		},
		{
			name: "required store down is unavailable",
			deps: []handlers.Dependency{
				{Name: "postgres", Pinger: stubPinger{err: down}, Required: true},
				{Name: "redis", Pinger: stubPinger{err: down}},
			},
			wantCode: http.StatusServiceUnavailable,
			wantBody: `{"status":"unavailable","checks":{"postgres":"unreachable","redis":"unreachable"}}`,
		},
		{
			name: "unconfigured store is disabled",
			deps: []handlers.Dependency{
				{Name: "postgres", Pinger: stubPinger{}, Required: true},
				{Name: "redis"},
			},
			wantCode: http.StatusOK,
			wantBody: `{"status":"ready","checks":{"postgres":"ok","redis":"disabled"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := handlers.NewHealthHandler(tt.deps...)

			w := httptest.NewRecorder()
			handler.Ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantCode, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}
