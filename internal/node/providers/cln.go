package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chainmon/internal/config"
	"chainmon/internal/node"
	"chainmon/pkg/logging"
)

// channelStateNormal is the clnrest state of a fully established channel.
// Only these channels count toward capacity and balance.
const channelStateNormal = "CHANNELD_NORMAL"

type clnInfo struct {
	Alias                 string `json:"alias"`
	BlockHeight           uint32 `json:"blockheight"`
	NumPeers              uint32 `json:"num_peers"`
	NumActiveChannels     uint32 `json:"num_active_channels"`
	NumInactiveChannels   uint32 `json:"num_inactive_channels"`
	NumPendingChannels    uint32 `json:"num_pending_channels"`
	WarningBitcoindSync   string `json:"warning_bitcoind_sync,omitempty"`
	WarningLightningdSync string `json:"warning_lightningd_sync,omitempty"`
}

type clnChannel struct {
	State     string            `json:"state"`
	TotalMsat uint64            `json:"total_msat"`
	ToUsMsat  uint64            `json:"to_us_msat"`
	HTLCs     []json.RawMessage `json:"htlcs"`
}

type clnChannels struct {
	Channels []clnChannel `json:"channels"`
}

// CoreLightning tracks one Core Lightning node over the clnrest API,
// authenticated by rune. clnrest exposes RPC commands as POST endpoints.
type CoreLightning struct {
	index  int
	name   string
	cfg    config.CoreLightningConfig
	base   string
	client *http.Client
}

// NewCoreLightning builds the provider for one Core Lightning slot.
func NewCoreLightning(index int, name string, cfg config.CoreLightningConfig) *CoreLightning {
	return &CoreLightning{
		index:  index,
		name:   name,
		cfg:    cfg,
		base:   strings.TrimRight(cfg.RestAddress, "/"),
		client: newRESTClient(cfg.InsecureSkipVerify),
	}
}

// Name implements Provider.
func (p *CoreLightning) Name() string {
	return p.name
}

// Run implements Provider.
func (p *CoreLightning) Run(ctx context.Context, sink Sink) error {
	sink.Send(p.index, node.Init{
		Name:      p.name,
		Host:      p.cfg.RestAddress,
		Message:   "Connecting to Core Lightning...",
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

// poll runs one getinfo + listpeerchannels cycle. As with LND, a failure
// in either request fails the whole poll and preserves last known metrics.
func (p *CoreLightning) poll(ctx context.Context, sink Sink) {
	sink.Send(p.index, node.PollStarted{Service: node.ServiceREST})

	var info clnInfo
	if err := p.post(ctx, "/v1/getinfo", &info); err != nil {
		p.fail(ctx, sink, err)
		return
	}
	var chans clnChannels
	if err := p.post(ctx, "/v1/listpeerchannels", &chans); err != nil {
		p.fail(ctx, sink, err)
		return
	}

	status := node.StatusOnline
	msg := ""
	switch {
	case info.WarningBitcoindSync != "":
		status = node.StatusSynchronizing
		msg = info.WarningBitcoindSync
	case info.WarningLightningdSync != "":
		status = node.StatusSynchronizing
		msg = info.WarningLightningdSync
	}

	var capacitySat, balanceSat uint64
	var htlcs uint32
	for _, ch := range chans.Channels {
		if ch.State != channelStateNormal {
			continue
		}
		capacitySat += ch.TotalMsat / 1000
		balanceSat += ch.ToUsMsat / 1000
		htlcs += uint32(len(ch.HTLCs))
	}

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
			TotalCapacitySat: capacitySat,
			LocalBalanceSat:  balanceSat,
			PendingHTLCs:     htlcs,
		},
	})
}

func (p *CoreLightning) fail(ctx context.Context, sink Sink, err error) {
	if ctx.Err() != nil {
		return
	}
	logging.Warn(p.name, "poll failed: %v", err)
	sink.Send(p.index, node.PollFailed{
		Service: node.ServiceREST,
		Message: "REST unreachable",
	})
}

func (p *CoreLightning) post(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.base+path, bytes.NewReader([]byte("{}")))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Rune", p.cfg.Rune)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("POST %s: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("POST %s: decoding response: %w", path, err)
	}
	return nil
}
