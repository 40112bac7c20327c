// Package providers implements the maintenance loops that keep node state
// current: a Bitcoin Core provider (JSON-RPC polling plus an optional ZMQ
// hashblock feed) and two lightning REST providers (LND and Core
// Lightning). The variant set is closed; there is no plugin registry.
//
// Each provider owns its transport clients exclusively and shares nothing
// with other tasks except the outbound update sink. Transport failures are
// handled locally with retries and surface only as status transitions;
// they are never fatal to the rest of the system.
package providers

import (
	"context"
	"fmt"
	"time"

	"chainmon/internal/config"
	"chainmon/internal/node"
	"chainmon/internal/supervisor"
)

const (
	// pollInterval is the steady-state cadence for RPC and REST polls.
	pollInterval = 15 * time.Second

	// requestTimeout bounds every individual RPC/REST request so one
	// stuck call cannot starve a maintenance loop.
	requestTimeout = 10 * time.Second

	// feedHandshakeTimeout bounds the ZMQ subscribe handshake.
	feedHandshakeTimeout = 5 * time.Second
)

// Sink receives updates for a node slot. The TUI program and the headless
// reporter both implement it; it is safe for concurrent senders.
type Sink interface {
	Send(index int, u node.Update)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(index int, u node.Update)

// Send implements Sink.
func (f SinkFunc) Send(index int, u node.Update) {
	f(index, u)
}

// Provider runs the maintenance loop for one configured node slot. Run
// blocks until ctx is cancelled; its error is the loop's exit cause
// (context.Canceled on a clean shutdown).
type Provider interface {
	Name() string
	Run(ctx context.Context, sink Sink) error
}

// ForNode builds the provider for one node slot. The backend kinds form a
// closed set; config validation has already rejected anything else, so an
// unknown kind here is a programming error.
func ForNode(index int, cfg config.NodeConfig, sup *supervisor.Supervisor) (Provider, error) {
	switch cfg.Backend {
	case config.BackendBitcoinCore:
		return NewBitcoinCore(index, cfg.DisplayName(), *cfg.BitcoinCore, sup)
	case config.BackendLND:
		return NewLND(index, cfg.DisplayName(), *cfg.LND), nil
	case config.BackendCoreLightning:
		return NewCoreLightning(index, cfg.DisplayName(), *cfg.CoreLightning), nil
	default:
		return nil, fmt.Errorf("no provider for backend %q", cfg.Backend)
	}
}
