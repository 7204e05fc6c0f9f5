package http

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error {
	return p.err
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		db     Pinger
		status int
		body   string
	}{
		{name: "no database", status: 200, body: "ok"},
		{name: "database up", db: fakePinger{}, status: 200, body: "ok"},
		{name: "database down", db: fakePinger{err: errors.New("refused")}, status: 503, body: "database unavailable"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest("GET", "/health", nil)
			rec := httptest.NewRecorder()

			HealthHandler(tt.db)(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}
			if body := rec.Body.String(); body != tt.body {
				t.Fatalf("expected body %q, got %q", tt.body, body)
			}
		})
	}
}
