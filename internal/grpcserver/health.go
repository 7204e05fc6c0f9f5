package grpcserver

import (
	"context"
	"log"
	"net"
	"time"

	gp "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the booking API.
const ServiceName = "travel.api"

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes grpc.health.v1.Health with Prometheus interceptors.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	db     Pinger
	logger *log.Logger
}

func New(db Pinger, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(gp.UnaryServerInterceptor),
		grpc.StreamInterceptor(gp.StreamServerInterceptor),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	gp.Register(srv)

	return &Server{grpc: srv, health: hs, db: db, logger: logger}
}

// Serve listens on addr until ctx is cancelled, refreshing the serving status
// from the database every interval.
func (s *Server) Serve(ctx context.Context, addr string, interval time.Duration) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.logger.Printf("grpc health listening addr=%s", addr)

	s.refresh(ctx)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.health.Shutdown()
				s.grpc.GracefulStop()
				return
			case <-ticker.C:
				s.refresh(ctx)
			}
		}
	}()

	return s.grpc.Serve(lis)
}

func (s *Server) refresh(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if s.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := s.db.Ping(pingCtx)
		cancel()
		if err != nil && ctx.Err() == nil {
			s.logger.Printf("grpc health database unavailable err=%v", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
