package health

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthPb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestReadiness(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := NewServer()
	go func() {
		_ = srv.Serve(lis)
	}()
	defer srv.Stop()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	client := healthPb.NewHealthClient(conn)

	check := func() healthPb.HealthCheckResponse_ServingStatus {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		resp, err := client.Check(ctx, &healthPb.HealthCheckRequest{Service: Service})
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		return resp.GetStatus()
	}

	if got := check(); got != healthPb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status before MarkReady = %v, want NOT_SERVING", got)
	}
	srv.MarkReady()
	if got := check(); got != healthPb.HealthCheckResponse_SERVING {
		t.Errorf("status after MarkReady = %v, want SERVING", got)
	}
}
