package providers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/rpcclient"

	"chainmon/internal/config"
	"chainmon/internal/node"
	"chainmon/internal/supervisor"
	"chainmon/pkg/logging"
)

// chainClient is the slice of the JSON-RPC surface the provider needs.
// The btcd rpcclient implements it; tests substitute a fake.
type chainClient interface {
	GetBlockChainInfo() (*btcjson.GetBlockChainInfoResult, error)
	Shutdown()
}

// BitcoinCore tracks one Bitcoin Core node. It polls getblockchaininfo on
// the fixed interval and, when a ZMQ endpoint is configured, keeps a
// hashblock listener task subscribed: if the listener dies it is
// re-subscribed on a later poll tick, gated by the handshake backoff.
type BitcoinCore struct {
	index int
	name  string
	host  string
	sup   *supervisor.Supervisor

	rpc      chainClient
	dialFeed feedDialer

	// mu guards the feed fields below. It is only ever held for pointer
	// swaps and backoff bookkeeping, never across I/O.
	mu       sync.Mutex
	feed     blockFeed
	feedGen  int
	listener *supervisor.Handle
	retry    *backoff
}

// NewBitcoinCore builds the provider for one Bitcoin Core slot. The RPC
// client runs in HTTP POST mode and does not touch the network until the
// first poll.
func NewBitcoinCore(index int, name string, cfg config.BitcoinCoreConfig, sup *supervisor.Supervisor) (*BitcoinCore, error) {
	rpc, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         cfg.RPCAddress(),
		User:         cfg.RPCUser,
		Pass:         cfg.RPCPassword,
		HTTPPostMode: true,
		DisableTLS:   true,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("creating RPC client for %s: %w", cfg.RPCAddress(), err)
	}

	p := &BitcoinCore{
		index: index,
		name:  name,
		host:  cfg.Host,
		sup:   sup,
		rpc:   rpc,
		retry: newBackoff(),
	}
	if addr := cfg.ZMQAddress(); addr != "" {
		p.dialFeed = func() blockFeed { return newZMQFeed(addr) }
	}
	return p, nil
}

// Name implements Provider.
func (p *BitcoinCore) Name() string {
	return p.name
}

// Run implements Provider. It polls immediately, then on every tick, and
// keeps the block feed subscribed while the node is reachable.
func (p *BitcoinCore) Run(ctx context.Context, sink Sink) error {
	services := []string{node.ServiceRPC}
	if p.dialFeed != nil {
		services = append(services, node.ServiceZMQ)
	}
	sink.Send(p.index, node.Init{
		Name:     p.name,
		Host:     p.host,
		Message:  "Connecting to Bitcoin Core...",
		Services: services,
	})

	defer p.rpc.Shutdown()
	defer p.stopFeed()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if p.poll(ctx, sink) && p.dialFeed != nil {
			p.maintainFeed(ctx, sink)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// poll runs one getblockchaininfo cycle and reports whether it succeeded.
// A failed poll drags the feed down with it: block announcements from an
// unreachable node cannot be trusted, so the listener is torn down and
// re-subscribed only after RPC recovers.
func (p *BitcoinCore) poll(ctx context.Context, sink Sink) bool {
	sink.Send(p.index, node.PollStarted{Service: node.ServiceRPC})

	info, err := p.blockchainInfo(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		logging.Warn(p.name, "chain info poll failed: %v", err)
		var force []string
		if p.dialFeed != nil {
			force = []string{node.ServiceZMQ}
		}
		sink.Send(p.index, node.PollFailed{
			Service:      node.ServiceRPC,
			ForceOffline: force,
			Message:      "RPC unreachable",
		})
		p.stopFeed()
		return false
	}

	feedSvc := ""
	if p.dialFeed != nil {
		feedSvc = node.ServiceZMQ
	}
	sink.Send(p.index, node.ChainInfo{
		Service:     node.ServiceRPC,
		Height:      uint64(info.Blocks),
		Headers:     uint64(info.Headers),
		BestHash:    info.BestBlockHash,
		FeedService: feedSvc,
	})
	return true
}

// blockchainInfo bridges the client's blocking call onto the request
// timeout. The goroutine holding a late response is abandoned; its result
// lands in a buffered channel and is dropped.
func (p *BitcoinCore) blockchainInfo(ctx context.Context) (*btcjson.GetBlockChainInfoResult, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	type result struct {
		info *btcjson.GetBlockChainInfoResult
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		info, err := p.rpc.GetBlockChainInfo()
		ch <- result{info: info, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.info, r.err
	}
}

// maintainFeed subscribes the hashblock listener if it is not running.
// The generation counter keeps a slow attempt from installing its feed
// over a newer one.
func (p *BitcoinCore) maintainFeed(ctx context.Context, sink Sink) {
	now := time.Now()

	p.mu.Lock()
	if p.listener != nil && !p.listener.Finished() {
		p.mu.Unlock()
		return
	}
	if !p.retry.ready(now) {
		p.mu.Unlock()
		return
	}
	p.feedGen++
	gen := p.feedGen
	p.mu.Unlock()

	feed := p.dialFeed()
	if err := feed.Dial(ctx); err != nil {
		feed.Close()
		if ctx.Err() == nil {
			logging.Warn(p.name, "block feed subscribe failed: %v", err)
			p.mu.Lock()
			p.retry.failure(time.Now())
			p.mu.Unlock()
		}
		return
	}

	p.mu.Lock()
	if gen != p.feedGen {
		p.mu.Unlock()
		feed.Close()
		return
	}
	h := p.sup.Spawn(p.name+"-blockfeed", func(context.Context) error {
		return p.listen(feed, sink)
	})
	if h == nil {
		p.mu.Unlock()
		feed.Close()
		return
	}
	p.feed = feed
	p.listener = h
	p.retry.success()
	p.mu.Unlock()

	logging.Info(p.name, "subscribed to block feed")
}

// listen drains the feed until it errors, which happens on socket close,
// teardown, or shutdown. The feed service is online exactly while this
// task runs.
func (p *BitcoinCore) listen(feed blockFeed, sink Sink) error {
	sink.Send(p.index, node.ServiceStatus{Service: node.ServiceZMQ, Status: node.StatusOnline})
	defer sink.Send(p.index, node.ServiceStatus{Service: node.ServiceZMQ, Status: node.StatusOffline})
	defer feed.Close()

	for {
		topic, payload, err := feed.Recv()
		if err != nil {
			return err
		}
		if topic != topicHashBlock {
			continue
		}
		hash := blockHashString(payload)
		logging.Debug(p.name, "block feed announced %s", hash)
		sink.Send(p.index, node.NewBlock{Hash: hash})
	}
}

// stopFeed tears down the current listener, if any, by closing its feed.
// Bumping the generation also invalidates any subscribe attempt in flight.
func (p *BitcoinCore) stopFeed() {
	p.mu.Lock()
	feed := p.feed
	p.feed = nil
	p.feedGen++
	p.mu.Unlock()

	if feed != nil {
		feed.Close()
	}
}
