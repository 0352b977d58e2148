package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"notifier/internal/application/dto"
	"notifier/internal/domain/constant"
	"notifier/internal/interfaces/api/handler"
	"notifier/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
)

type stubSettings struct{}

func (stubSettings) GetTimerOption(ctx context.Context) (constant.TimerOption, error) {
	return constant.Timer60s, nil
}

func (stubSettings) SetTimerOption(ctx context.Context, label string) (constant.TimerOption, error) {
	return constant.ParseTimerOption(label)
}

type stubHost struct{}

func (stubHost) Dispatch(msg dto.ReconfigurationMessage) {}

func (stubHost) Kick() error { return nil }

func (stubHost) Status(ctx context.Context) (dto.HostStatus, error) {
	return dto.HostStatus{Phase: "running"}, nil
}

func TestRoutes(t *testing.T) {
	e := NewRouter(&Config{
		TimerHandler: handler.NewTimerHandler(stubSettings{}, stubHost{}, logger.Nop()),
		Logger:       logger.Nop(),
	})

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/api/timer", "", http.StatusOK},
		{http.MethodPut, "/api/timer", `{"timer_option":"10s"}`, http.StatusOK},
		{http.MethodPost, "/api/scheduler/reconfigure", `{"timer_option":"10s"}`, http.StatusAccepted},
		{http.MethodPost, "/api/scheduler/kick", "", http.StatusAccepted},
		{http.MethodGet, "/api/scheduler/status", "", http.StatusOK},
		{http.MethodPost, "/callback", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
