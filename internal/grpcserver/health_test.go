package grpcserver

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync/atomic"
	"testing"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type fakePinger struct {
	down atomic.Bool
}

func (p *fakePinger) Ping(context.Context) error {
	if p.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func TestServer_RefreshTracksDatabase(t *testing.T) {
	t.Parallel()

	db := &fakePinger{}
	s := New(db, log.New(&bytes.Buffer{}, "", 0))
	ctx := context.Background()

	check := func(want healthpb.HealthCheckResponse_ServingStatus) {
		t.Helper()
		for _, service := range []string{"", ServiceName} {
			resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
			if err != nil {
				t.Fatalf("check %q: %v", service, err)
			}
			if resp.GetStatus() != want {
				t.Fatalf("service %q: expected %s, got %s", service, want, resp.GetStatus())
			}
		}
	}

	s.refresh(ctx)
	check(healthpb.HealthCheckResponse_SERVING)

	db.down.Store(true)
	s.refresh(ctx)
	check(healthpb.HealthCheckResponse_NOT_SERVING)

	db.down.Store(false)
	s.refresh(ctx)
	check(healthpb.HealthCheckResponse_SERVING)
}
