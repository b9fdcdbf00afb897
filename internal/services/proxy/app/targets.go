package server

import (
	"fmt"
	"strings"

	platformgrpc "github.com/justly-io/justly-soroban/internal/platform/grpc"
	"github.com/justly-io/justly-soroban/internal/services/proxy/arbitrable"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
	"google.golang.org/grpc"
)

// parseTargets reads a comma separated list of address:value entries. The
// value keeps any further colons, so endpoints may carry host:port.
func parseTargets(raw string) (map[identity.Address]string, error) {
	targets := make(map[identity.Address]string)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		addr, value, ok := strings.Cut(entry, ":")
		if !ok || strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("target entry %q: want address:value", entry)
		}
		target, err := identity.Parse(strings.TrimSpace(addr))
		if err != nil {
			return nil, fmt.Errorf("target entry %q: %w", entry, err)
		}
		if _, dup := targets[target]; dup {
			return nil, fmt.Errorf("target %s configured twice", target.Short())
		}
		targets[target] = strings.TrimSpace(value)
	}
	return targets, nil
}

// buildRouter registers every configured endpoint and script. It returns the
// client connections so the caller can close them.
func buildRouter(endpoints, scripts string) (*arbitrable.Router, []*grpc.ClientConn, error) {
	remote, err := parseTargets(endpoints)
	if err != nil {
		return nil, nil, fmt.Errorf("arbitrable endpoints: %w", err)
	}
	local, err := parseTargets(scripts)
	if err != nil {
		return nil, nil, fmt.Errorf("arbitrable scripts: %w", err)
	}

	router := arbitrable.NewRouter()
	conns := make([]*grpc.ClientConn, 0, len(remote))
	closeAll := func() {
		for _, conn := range conns {
			_ = conn.Close()
		}
	}
	for target, endpoint := range remote {
		conn, err := grpc.NewClient(endpoint, platformgrpc.ClientOptions()...)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("arbitrable %s at %s: %w", target.Short(), endpoint, err)
		}
		conns = append(conns, conn)
		router.Register(target, arbitrable.NewGRPCClient(conn))
	}
	for target, path := range local {
		if _, dup := remote[target]; dup {
			closeAll()
			return nil, nil, fmt.Errorf("target %s has both an endpoint and a script", target.Short())
		}
		contract, err := arbitrable.LoadLuaContract(path)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		router.Register(target, contract)
	}
	return router, conns, nil
}
