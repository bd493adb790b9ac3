package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/greenleague-backend/pkg/config"
	"github.com/angelmondragon/greenleague-backend/pkg/logger"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	resp := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Header().Get(envHeader) != "dev" {
		t.Fatalf("expected env header, got %q", resp.Header().Get(envHeader))
	}
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	logg := logger.New(logger.Options{ServiceName: "test"})

	resp := httptest.NewRecorder()
	HealthReady(cfg, logg, map[string]Pinger{"db": stubPinger{}, "redis": nil}).
		ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body struct {
		Data struct {
			Checks map[string]string `json:"checks"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Checks["db"] != "up" || body.Data.Checks["redis"] != "disabled" {
		t.Fatalf("unexpected checks %+v", body.Data.Checks)
	}

	resp = httptest.NewRecorder()
	HealthReady(cfg, logg, map[string]Pinger{"db": stubPinger{err: errors.New("down")}}).
		ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}
