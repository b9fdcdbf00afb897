package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	platformgrpc "github.com/justly-io/justly-soroban/internal/platform/grpc"
	"github.com/justly-io/justly-soroban/internal/platform/timeouts"
	"github.com/justly-io/justly-soroban/internal/services/mcp/domain"
	proxyservice "github.com/justly-io/justly-soroban/internal/services/proxy/api/grpc/proxy"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
)

const (
	serverName    = "justly-proxy-mcp"
	serverVersion = "0.1.0"
)

// Config holds the MCP server settings.
type Config struct {
	// ProxyAddr is the proxy gRPC address.
	ProxyAddr string
}

// Server hosts the read-only dispute inspection tools.
type Server struct {
	mcpServer *mcp.Server
	conn      io.Closer
}

// newServer registers every tool against client. conn, when set, is closed
// with the server.
func newServer(client proxyservice.ProxyServiceClient, conn io.Closer) (*Server, error) {
	if client == nil {
		return nil, errors.New("proxy client is required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	mcp.AddTool(mcpServer, domain.DisputeGetTool(), domain.DisputeGetHandler(client))
	mcp.AddTool(mcpServer, domain.LocalByRemoteTool(), domain.LocalByRemoteHandler(client))
	mcp.AddTool(mcpServer, domain.RelayerGetTool(), domain.RelayerGetHandler(client))
	mcp.AddTool(mcpServer, domain.DisputeEventsTool(), domain.DisputeEventsHandler(client))
	return &Server{mcpServer: mcpServer, conn: conn}, nil
}

// Run connects to the proxy and serves MCP on stdio until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return runWithTransport(ctx, cfg.ProxyAddr, &mcp.StdioTransport{})
}

func runWithTransport(ctx context.Context, proxyAddr string, transport mcp.Transport) error {
	addr := strings.TrimSpace(proxyAddr)
	if addr == "" {
		return errors.New("proxy address is required")
	}
	conn, err := dialProxy(ctx, addr)
	if err != nil {
		return err
	}
	server, err := newServer(proxyservice.NewProxyServiceClient(conn), conn)
	if err != nil {
		_ = conn.Close()
		return err
	}
	return server.serveWithTransport(ctx, transport)
}

// Close releases the proxy connection.
func (s *Server) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if closeErr := s.Close(); closeErr != nil {
		if err == nil {
			return fmt.Errorf("close gRPC connection: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close gRPC connection: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

func dialProxy(ctx context.Context, addr string) (*grpc.ClientConn, error) {
	logf := func(format string, args ...any) {
		log.Printf("proxy %s", fmt.Sprintf(format, args...))
	}
	conn, err := platformgrpc.Connect(ctx, addr, proxyservice.ServiceName, timeouts.GRPCDial, logf)
	if err != nil {
		var dialErr *platformgrpc.DialError
		if errors.As(err, &dialErr) && dialErr.Stage == platformgrpc.DialStageConnect {
			return nil, fmt.Errorf("connect to proxy at %s: %w", addr, dialErr.Err)
		}
		return nil, err
	}
	return conn, nil
}
