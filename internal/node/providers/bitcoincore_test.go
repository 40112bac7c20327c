package providers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainmon/internal/node"
	"chainmon/internal/supervisor"
)

// recordSink collects updates and can fold them into a state the way the
// single owner would.
type recordSink struct {
	mu      sync.Mutex
	updates []node.Update
}

func (s *recordSink) Send(index int, u node.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, u)
}

func (s *recordSink) all() []node.Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]node.Update(nil), s.updates...)
}

func (s *recordSink) fold(name string) node.State {
	st := node.NewState(name)
	now := time.Now()
	for _, u := range s.all() {
		st = u.Apply(st, now)
	}
	return st
}

type fakeChainClient struct {
	mu   sync.Mutex
	info *btcjson.GetBlockChainInfoResult
	err  error
}

func (c *fakeChainClient) GetBlockChainInfo() (*btcjson.GetBlockChainInfoResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info, c.err
}

func (c *fakeChainClient) Shutdown() {}

func (c *fakeChainClient) set(info *btcjson.GetBlockChainInfoResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info, c.err = info, err
}

type fakeFeed struct {
	dialErr error
	msgs    chan fakeMsg
	closed  chan struct{}
	once    sync.Once
}

type fakeMsg struct {
	topic   string
	payload []byte
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		msgs:   make(chan fakeMsg, 8),
		closed: make(chan struct{}),
	}
}

func (f *fakeFeed) Dial(ctx context.Context) error { return f.dialErr }

func (f *fakeFeed) Recv() (string, []byte, error) {
	select {
	case m := <-f.msgs:
		return m.topic, m.payload, nil
	case <-f.closed:
		return "", nil, errors.New("feed closed")
	}
}

func (f *fakeFeed) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func newTestBitcoinCore(rpc chainClient, feed blockFeed, sup *supervisor.Supervisor) *BitcoinCore {
	p := &BitcoinCore{
		index: 0,
		name:  "test-node",
		host:  "localhost",
		sup:   sup,
		rpc:   rpc,
		retry: newBackoff(),
	}
	if feed != nil {
		p.dialFeed = func() blockFeed { return feed }
	}
	return p
}

func TestBitcoinCorePollReportsChainInfo(t *testing.T) {
	rpc := &fakeChainClient{}
	rpc.set(&btcjson.GetBlockChainInfoResult{
		Blocks:        100,
		Headers:       100,
		BestBlockHash: "00000000000000000001",
	}, nil)
	p := newTestBitcoinCore(rpc, nil, nil)
	sink := &recordSink{}

	ok := p.poll(context.Background(), sink)
	require.True(t, ok)

	st := sink.fold("test-node")
	assert.Equal(t, node.StatusOnline, st.Status)
	assert.Equal(t, uint64(100), st.Height)
	assert.Equal(t, "00000000000000000001", st.BestHash)
}

func TestBitcoinCorePollReportsSynchronizing(t *testing.T) {
	rpc := &fakeChainClient{}
	rpc.set(&btcjson.GetBlockChainInfoResult{Blocks: 50, Headers: 100}, nil)
	p := newTestBitcoinCore(rpc, nil, nil)
	sink := &recordSink{}

	require.True(t, p.poll(context.Background(), sink))

	st := sink.fold("test-node")
	assert.Equal(t, node.StatusSynchronizing, st.Status)
	assert.Equal(t, uint64(50), st.Height)
	assert.Equal(t, uint64(100), st.HeaderHeight)
}

func TestBitcoinCorePollFailureForcesFeedOffline(t *testing.T) {
	rpc := &fakeChainClient{}
	rpc.set(&btcjson.GetBlockChainInfoResult{Blocks: 100, Headers: 100, BestBlockHash: "aa"}, nil)
	feed := newFakeFeed()
	p := newTestBitcoinCore(rpc, feed, nil)
	sink := &recordSink{}

	require.True(t, p.poll(context.Background(), sink))

	rpc.set(nil, errors.New("connection refused"))
	require.False(t, p.poll(context.Background(), sink))

	st := sink.fold("test-node")
	assert.Equal(t, node.StatusOffline, st.Status)
	assert.Equal(t, node.StatusOffline, st.Services[node.ServiceZMQ])
	// Chain fields keep their last known values across the outage.
	assert.Equal(t, uint64(100), st.Height)
	assert.Equal(t, "aa", st.BestHash)
}

func TestBitcoinCoreListenerDeliversBlocks(t *testing.T) {
	feed := newFakeFeed()
	p := newTestBitcoinCore(&fakeChainClient{}, feed, nil)
	sink := &recordSink{}

	payload := make([]byte, 32)
	payload[31] = 0x01
	feed.msgs <- fakeMsg{topic: "rawtx", payload: []byte("ignored")}
	feed.msgs <- fakeMsg{topic: topicHashBlock, payload: payload}

	done := make(chan error, 1)
	go func() { done <- p.listen(feed, sink) }()

	// Let the listener drain the queued messages, then close the feed.
	assert.Eventually(t, func() bool {
		for _, u := range sink.all() {
			if _, ok := u.(node.NewBlock); ok {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
	feed.Close()
	require.Error(t, <-done)

	var blocks []node.NewBlock
	for _, u := range sink.all() {
		if b, ok := u.(node.NewBlock); ok {
			blocks = append(blocks, b)
		}
	}
	require.Len(t, blocks, 1)
	// 32-byte hashes render byte-reversed, like RPC results.
	assert.Equal(t, "01"+strings.Repeat("00", 31), blocks[0].Hash)

	st := sink.fold("test-node")
	assert.Equal(t, node.StatusOffline, st.Services[node.ServiceZMQ])
}

func TestBitcoinCoreMaintainFeedSpawnsListener(t *testing.T) {
	sup := supervisor.New(context.Background())
	defer sup.Shutdown()

	feed := newFakeFeed()
	p := newTestBitcoinCore(&fakeChainClient{}, feed, sup)
	sink := &recordSink{}

	p.maintainFeed(context.Background(), sink)

	p.mu.Lock()
	h := p.listener
	p.mu.Unlock()
	require.NotNil(t, h)
	assert.False(t, h.Finished())

	p.stopFeed()
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("listener did not stop after feed teardown")
	}
}

func TestBitcoinCoreMaintainFeedBacksOffAfterFailure(t *testing.T) {
	sup := supervisor.New(context.Background())
	defer sup.Shutdown()

	attempts := 0
	p := newTestBitcoinCore(&fakeChainClient{}, nil, sup)
	p.dialFeed = func() blockFeed {
		attempts++
		f := newFakeFeed()
		f.dialErr = errors.New("handshake timeout")
		return f
	}
	sink := &recordSink{}

	p.maintainFeed(context.Background(), sink)
	require.Equal(t, 1, attempts)

	// A tick inside the backoff window must not dial again.
	p.maintainFeed(context.Background(), sink)
	assert.Equal(t, 1, attempts)
}

func TestBitcoinCoreTimeoutBoundsStuckRPC(t *testing.T) {
	p := newTestBitcoinCore(&stuckChainClient{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := p.blockchainInfo(ctx)
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("blockchainInfo did not honor cancellation")
	}
}

type stuckChainClient struct{}

func (stuckChainClient) GetBlockChainInfo() (*btcjson.GetBlockChainInfoResult, error) {
	select {}
}

func (stuckChainClient) Shutdown() {}
