package providers

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/go-zeromq/zmq4"
)

// topicHashBlock is the only ZMQ topic the feed subscribes to. bitcoind
// publishes the 32-byte block hash as the second frame.
const topicHashBlock = "hashblock"

// blockFeed is the push-feed transport the Bitcoin Core provider listens
// on. The zmq4-backed implementation is the only production one; tests
// substitute an in-memory feed.
type blockFeed interface {
	// Dial performs the subscribe handshake. The socket is bound to ctx:
	// cancelling it aborts both the handshake and any blocked Recv.
	Dial(ctx context.Context) error
	// Recv blocks for the next published message and returns its topic and
	// payload.
	Recv() (topic string, payload []byte, err error)
	Close() error
}

// feedDialer builds a fresh feed for one subscribe attempt. ZMQ sockets
// are not reusable after a failed handshake, so every attempt gets a new
// one.
type feedDialer func() blockFeed

type zmqFeed struct {
	addr   string
	sock   zmq4.Socket
	cancel context.CancelFunc
}

func newZMQFeed(addr string) blockFeed {
	return &zmqFeed{addr: addr}
}

// Dial leaves cleanup to Close on every path, success or failure.
func (f *zmqFeed) Dial(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.sock = zmq4.NewSub(ctx, zmq4.WithDialerTimeout(feedHandshakeTimeout))
	if err := f.sock.Dial(f.addr); err != nil {
		return fmt.Errorf("dialing %s: %w", f.addr, err)
	}
	if err := f.sock.SetOption(zmq4.OptionSubscribe, topicHashBlock); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topicHashBlock, err)
	}
	return nil
}

func (f *zmqFeed) Recv() (string, []byte, error) {
	msg, err := f.sock.Recv()
	if err != nil {
		return "", nil, err
	}
	if len(msg.Frames) < 2 {
		return "", nil, fmt.Errorf("short message: %d frames", len(msg.Frames))
	}
	return string(msg.Frames[0]), msg.Frames[1], nil
}

func (f *zmqFeed) Close() error {
	if f.cancel != nil {
		f.cancel()
	}
	if f.sock == nil {
		return nil
	}
	return f.sock.Close()
}

// blockHashString renders a raw published block hash the way RPC does:
// byte-reversed hex. A payload of unexpected length is passed through as
// plain hex rather than dropped.
func blockHashString(payload []byte) string {
	h, err := chainhash.NewHash(payload)
	if err != nil {
		return hex.EncodeToString(payload)
	}
	return h.String()
}
