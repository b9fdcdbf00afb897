// Package arbitrable delivers final rulings to settlement targets.
//
// A target is identified by its address. The Router maps addresses to
// invokers: remote gRPC services implementing ArbitrableService or local Lua
// scripts defining a rule(dispute_id, ruling) function.
package arbitrable

import (
	"context"
	"fmt"
	"sync"

	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
)

// Invoker calls a target's settlement entry point.
type Invoker interface {
	Rule(ctx context.Context, target identity.Address, disputeID uint64, ruling uint32) error
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, target identity.Address, disputeID uint64, ruling uint32) error

// Rule implements Invoker.
func (fn InvokerFunc) Rule(ctx context.Context, target identity.Address, disputeID uint64, ruling uint32) error {
	return fn(ctx, target, disputeID, ruling)
}

// UnknownTargetError reports a target with no registered invoker.
type UnknownTargetError struct {
	Target identity.Address
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("no arbitrable registered for %s", e.Target)
}

// Router dispatches to the invoker registered for each target.
type Router struct {
	mu      sync.RWMutex
	targets map[identity.Address]Invoker
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{targets: make(map[identity.Address]Invoker)}
}

// Register sets the invoker for target, replacing any previous one.
func (r *Router) Register(target identity.Address, invoker Invoker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[target] = invoker
}

// Targets returns the number of registered targets.
func (r *Router) Targets() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.targets)
}

// Rule implements Invoker.
func (r *Router) Rule(ctx context.Context, target identity.Address, disputeID uint64, ruling uint32) error {
	r.mu.RLock()
	invoker, ok := r.targets[target]
	r.mu.RUnlock()
	if !ok {
		return &UnknownTargetError{Target: target}
	}
	return invoker.Rule(ctx, target, disputeID, ruling)
}
