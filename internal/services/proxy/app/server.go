package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/justly-io/justly-soroban/internal/platform/config"
	platformgrpc "github.com/justly-io/justly-soroban/internal/platform/grpc"
	"github.com/justly-io/justly-soroban/internal/platform/id"
	"github.com/justly-io/justly-soroban/internal/platform/timeouts"
	"github.com/justly-io/justly-soroban/internal/services/proxy/api/grpc/interceptors"
	grpcmeta "github.com/justly-io/justly-soroban/internal/services/proxy/api/grpc/metadata"
	proxyservice "github.com/justly-io/justly-soroban/internal/services/proxy/api/grpc/proxy"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/authz"
	"github.com/justly-io/justly-soroban/internal/services/proxy/engine"
	"github.com/justly-io/justly-soroban/internal/services/proxy/storage/integrity"
	proxysqlite "github.com/justly-io/justly-soroban/internal/services/proxy/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// Config holds the proxy server settings.
type Config struct {
	Port           int           `env:"JUSTLY_PROXY_PORT" envDefault:"8090"`
	Addr           string        `env:"JUSTLY_PROXY_ADDR"`
	DBPath         string        `env:"JUSTLY_PROXY_DB_PATH" envDefault:"data/proxy.db"`
	Audience       string        `env:"JUSTLY_PROXY_AUDIENCE" envDefault:"justly-proxy"`
	TokenMaxAge    time.Duration `env:"JUSTLY_PROXY_TOKEN_MAX_AGE" envDefault:"5m"`
	ExecutionLease time.Duration `env:"JUSTLY_PROXY_EXECUTION_LEASE" envDefault:"30s"`
	MaxConns       int           `env:"JUSTLY_PROXY_MAX_CONNS" envDefault:"256"`
	// RebuildProjections replays the journal into the dispute and config
	// tables before serving.
	RebuildProjections bool `env:"JUSTLY_PROXY_REBUILD_PROJECTIONS"`
	// Endpoints maps target addresses to ArbitrableService endpoints as
	// address:host:port entries.
	Endpoints string `env:"JUSTLY_ARBITRABLE_ENDPOINTS"`
	// Scripts maps target addresses to Lua settlement scripts as
	// address:path entries.
	Scripts string `env:"JUSTLY_ARBITRABLE_SCRIPTS"`

	// Keyring signs the journal. Loaded from JUSTLY_EVENT_HMAC_KEYS when nil.
	Keyring *integrity.Keyring `env:"-"`
	// Gate overrides the signature gate for embedded use.
	Gate authz.Gate `env:"-"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings New cannot default.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "" && (c.Port < 0 || c.Port > 65535):
		return fmt.Errorf("port %d is out of range", c.Port)
	case strings.TrimSpace(c.DBPath) == "":
		return errors.New("db path is required")
	case strings.TrimSpace(c.Audience) == "":
		return errors.New("token audience is required")
	case c.TokenMaxAge <= 0:
		return errors.New("token max age must be positive")
	case c.ExecutionLease <= 0:
		return errors.New("execution lease must be positive")
	case c.MaxConns < 0:
		return errors.New("max conns must not be negative")
	}
	return nil
}

// ListenAddr resolves the listen address. Addr wins over Port.
func (c Config) ListenAddr() string {
	if addr := strings.TrimSpace(c.Addr); addr != "" {
		return addr
	}
	return fmt.Sprintf(":%d", c.Port)
}

// Server hosts the proxy gRPC API.
type Server struct {
	listener    net.Listener
	grpcServer  *grpc.Server
	health      *health.Server
	store       *proxysqlite.Store
	arbitrables []*grpc.ClientConn
}

// New creates a configured proxy server listening on cfg's address.
func New(cfg Config) (*Server, error) {
	keyring := cfg.Keyring
	if keyring == nil {
		loaded, err := integrity.KeyringFromEnv()
		if err != nil {
			return nil, fmt.Errorf("load journal keyring: %w", err)
		}
		keyring = loaded
	}

	addr := cfg.ListenAddr()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	if cfg.MaxConns > 0 {
		listener = netutil.LimitListener(listener, cfg.MaxConns)
	}

	store, err := openProxyStore(cfg.DBPath, keyring)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}
	router, conns, err := buildRouter(cfg.Endpoints, cfg.Scripts)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}
	s := &Server{listener: listener, store: store, arbitrables: conns}

	gate := cfg.Gate
	if gate == nil {
		gate = authz.NewSignatureGate(cfg.Audience, cfg.TokenMaxAge)
	}
	eng, err := engine.New(store, engine.Options{
		Gate:           gate,
		Invoker:        router,
		ExecutionLease: cfg.ExecutionLease,
		Keyring:        keyring,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("build engine: %w", err)
	}
	if cfg.RebuildProjections {
		applied, err := eng.Rebuild(context.Background())
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("rebuild projections: %w", err)
		}
		log.Printf("proxy: rebuilt projections from %d journal events", applied)
	}
	service, err := proxyservice.NewService(eng)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.grpcServer = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcmeta.UnaryServerInterceptor(id.NewID),
			interceptors.AuditInterceptor(log.Printf),
		),
	)
	proxyservice.RegisterProxyServiceServer(s.grpcServer, service)
	s.health = platformgrpc.RegisterHealth(s.grpcServer, proxyservice.ServiceName)
	platformgrpc.SetServing(s.health, proxyservice.ServiceName)

	log.Printf("proxy: %d arbitrable targets, audience %q", router.Targets(), cfg.Audience)
	return s, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a proxy server until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the gRPC server and blocks until it stops or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("proxy server listening at %v", s.listener.Addr())
	group, groupCtx := errgroup.WithContext(ctx)
	stopped := make(chan struct{})
	group.Go(func() error {
		defer close(stopped)
		if err := s.grpcServer.Serve(s.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		select {
		case <-stopped:
			return nil
		case <-groupCtx.Done():
		}
		s.health.Shutdown()
		s.gracefulStop(timeouts.Shutdown)
		return nil
	})
	return group.Wait()
}

// gracefulStop drains in-flight calls, forcing a stop after timeout.
func (s *Server) gracefulStop(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		log.Printf("proxy graceful stop timed out after %v", timeout)
		s.grpcServer.Stop()
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	for _, conn := range s.arbitrables {
		_ = conn.Close()
	}
	s.arbitrables = nil
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close proxy store: %v", err)
		}
		s.store = nil
	}
}

func openProxyStore(path string, keyring *integrity.Keyring) (*proxysqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("data", "proxy.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	registry, err := engine.NewRegistry()
	if err != nil {
		return nil, err
	}
	store, err := proxysqlite.Open(path, keyring, registry)
	if err != nil {
		return nil, fmt.Errorf("open proxy sqlite store: %w", err)
	}
	return store, nil
}
