package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chainmon/internal/config"
	"chainmon/internal/node"
	"chainmon/pkg/logging"
)

// strUint64 decodes the string-encoded uint64 values the LND REST API
// emits for amounts, while tolerating plain numbers.
type strUint64 uint64

func (v *strUint64) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*v = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parsing amount %q: %w", s, err)
	}
	*v = strUint64(n)
	return nil
}

type lndInfo struct {
	Alias               string `json:"alias"`
	BlockHeight         uint32 `json:"block_height"`
	NumPeers            uint32 `json:"num_peers"`
	NumActiveChannels   uint32 `json:"num_active_channels"`
	NumInactiveChannels uint32 `json:"num_inactive_channels"`
	NumPendingChannels  uint32 `json:"num_pending_channels"`
	SyncedToChain       bool   `json:"synced_to_chain"`
	SyncedToGraph       bool   `json:"synced_to_graph"`
}

type lndAmount struct {
	Sat strUint64 `json:"sat"`
}

type lndChannelBalance struct {
	LocalBalance  lndAmount `json:"local_balance"`
	RemoteBalance lndAmount `json:"remote_balance"`
}

// LND tracks one LND node over its REST API, authenticated by macaroon.
type LND struct {
	index  int
	name   string
	cfg    config.LNDConfig
	base   string
	client *http.Client
}

// NewLND builds the provider for one LND slot.
func NewLND(index int, name string, cfg config.LNDConfig) *LND {
	return &LND{
		index:  index,
		name:   name,
		cfg:    cfg,
		base:   strings.TrimRight(cfg.RestAddress, "/"),
		client: newRESTClient(cfg.InsecureSkipVerify),
	}
}

// Name implements Provider.
func (p *LND) Name() string {
	return p.name
}

// Run implements Provider. REST is stateless request/response, so the
// loop polls on the fixed interval with no handshake backoff.
func (p *LND) Run(ctx context.Context, sink Sink) error {
	sink.Send(p.index, node.Init{
		Name:      p.name,
		Host:      p.cfg.RestAddress,
		Message:   "Connecting to LND...",
		Services:  []string{node.ServiceREST},
		Lightning: true,
	})

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		p.poll(ctx, sink)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// poll runs one getinfo + channel-balance cycle. Either request failing
// fails the whole poll, so the owner keeps every metric at its last known
// value instead of mixing fresh counters with zeroed balances.
func (p *LND) poll(ctx context.Context, sink Sink) {
	sink.Send(p.index, node.PollStarted{Service: node.ServiceREST})

	var info lndInfo
	if err := p.get(ctx, "/v1/getinfo", &info); err != nil {
		p.fail(ctx, sink, err)
		return
	}
	var bal lndChannelBalance
	if err := p.get(ctx, "/v1/balance/channels", &bal); err != nil {
		p.fail(ctx, sink, err)
		return
	}

	status := node.StatusOnline
	msg := ""
	switch {
	case !info.SyncedToChain:
		status = node.StatusSynchronizing
		msg = "Syncing to chain..."
	case !info.SyncedToGraph:
		status = node.StatusSynchronizing
		msg = "Syncing to graph..."
	}

	local := uint64(bal.LocalBalance.Sat)
	remote := uint64(bal.RemoteBalance.Sat)
	sink.Send(p.index, node.LightningInfo{
		Service: node.ServiceREST,
		Status:  status,
		Height:  uint64(info.BlockHeight),
		Message: msg,
		Metrics: node.LightningMetrics{
			Alias:            info.Alias,
			Peers:            info.NumPeers,
			ActiveChannels:   info.NumActiveChannels,
			PendingChannels:  info.NumPendingChannels,
			InactiveChannels: info.NumInactiveChannels,
			TotalCapacitySat: local + remote,
			LocalBalanceSat:  local,
		},
	})
}

func (p *LND) fail(ctx context.Context, sink Sink, err error) {
	if ctx.Err() != nil {
		return
	}
	logging.Warn(p.name, "poll failed: %v", err)
	sink.Send(p.index, node.PollFailed{
		Service: node.ServiceREST,
		Message: "REST unreachable",
	})
}

func (p *LND) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Grpc-Metadata-macaroon", p.cfg.MacaroonHex)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decoding response: %w", path, err)
	}
	return nil
}
