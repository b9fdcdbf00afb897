package grpc

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

type healthServer struct {
	addr   string
	health *health.Server
}

func (h healthServer) set(service string, status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	h.health.SetServingStatus(service, status)
}

// startHealthServer serves a health service with the overall server and
// the proxy service registered as NOT_SERVING.
func startHealthServer(t *testing.T) healthServer {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := gogrpc.NewServer()
	hs := RegisterHealth(server, "justly.proxy.v1.ProxyService")
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)
	return healthServer{addr: listener.Addr().String(), health: hs}
}

func dial(t *testing.T, addr string) *gogrpc.ClientConn {
	t.Helper()
	conn, err := gogrpc.NewClient(addr, ClientOptions()...)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestRegisterHealthStartsNotServing(t *testing.T) {
	h := startHealthServer(t)
	client := grpc_health_v1.NewHealthClient(dial(t, h.addr))
	for _, service := range []string{"", "justly.proxy.v1.ProxyService"} {
		resp, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: service})
		if err != nil {
			t.Fatalf("check %q: %v", service, err)
		}
		if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
			t.Fatalf("status %q = %v", service, resp.GetStatus())
		}
	}
}

func TestWaitForHealthSeesSetServing(t *testing.T) {
	h := startHealthServer(t)
	conn := dial(t, h.addr)

	var logged []string
	logf := func(format string, args ...any) { logged = append(logged, format) }
	go func() {
		time.Sleep(100 * time.Millisecond)
		SetServing(h.health, "justly.proxy.v1.ProxyService")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := WaitForHealth(ctx, conn, "justly.proxy.v1.ProxyService", logf); err != nil {
		t.Fatalf("wait for health: %v", err)
	}
	if len(logged) == 0 || !strings.Contains(logged[len(logged)-1], "SERVING") {
		t.Fatalf("expected serving log, got %v", logged)
	}
}

func TestWaitForHealthRespectsContext(t *testing.T) {
	h := startHealthServer(t)
	conn := dial(t, h.addr)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := WaitForHealth(ctx, conn, "", nil); err == nil {
		t.Fatal("expected error while not serving")
	}
}

func TestWaitForHealthRequiresConn(t *testing.T) {
	if err := WaitForHealth(context.Background(), nil, "", nil); err == nil {
		t.Fatal("expected error for nil connection")
	}
}

func TestSetServingIgnoresNilServer(t *testing.T) {
	SetServing(nil, "justly.proxy.v1.ProxyService")
}
