// Package health serves the standard gRPC health protocol so orchestrators
// that check liveness over gRPC see the same readiness as GET /health.
package health

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthPb "google.golang.org/grpc/health/grpc_health_v1"
	"k8s.io/klog/v2"
)

// Service is the name reported for the prediction API.
const Service = "carbon.Predictor"

type Server struct {
	grpc   *grpc.Server
	health *health.Server
}

// NewServer starts in NOT_SERVING; call MarkReady once the model is loaded.
func NewServer() *Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthPb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(Service, healthPb.HealthCheckResponse_NOT_SERVING)

	s := grpc.NewServer()
	healthPb.RegisterHealthServer(s, hs)
	return &Server{grpc: s, health: hs}
}

func (s *Server) MarkReady() {
	s.health.SetServingStatus("", healthPb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(Service, healthPb.HealthCheckResponse_SERVING)
}

// Serve blocks until Stop is called or the listener fails.
func (s *Server) Serve(lis net.Listener) error {
	klog.Infof("gRPC health listening on %s", lis.Addr())
	if err := s.grpc.Serve(lis); err != nil {
		return fmt.Errorf("grpc health serve: %w", err)
	}
	return nil
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
