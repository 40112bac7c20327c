// Package fees polls mempool.space's recommended fee rates for the
// footer. Like the price poller, failures are logged and skipped.
package fees

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chainmon/pkg/logging"
)

const (
	// DefaultEndpoint is mempool.space's recommended-fees API. A self-hosted
	// instance can be pointed at via the fees.endpoint config key.
	DefaultEndpoint = "https://mempool.space/api/v1/fees/recommended"

	pollInterval   = 30 * time.Second
	requestTimeout = 10 * time.Second
)

// Recommended is one set of recommended fee rates, in sat/vB.
type Recommended struct {
	Fastest   float64 `json:"fastestFee"`
	HalfHour  float64 `json:"halfHourFee"`
	Hour      float64 `json:"hourFee"`
	Economy   float64 `json:"economyFee"`
	Minimum   float64 `json:"minimumFee"`
	UpdatedAt time.Time `json:"-"`
}

// Sink receives fee observations as they arrive.
type Sink func(Recommended)

// Poller fetches recommended fees on a fixed interval.
type Poller struct {
	endpoint string
	client   *http.Client
	send     Sink
}

// New builds a poller. An empty endpoint selects the default.
func New(endpoint string, send Sink) *Poller {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Poller{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: requestTimeout},
		send:     send,
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		p.poll(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	rec, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logging.Warn("fees", "recommended fees fetch failed: %v", err)
		}
		return
	}
	p.send(rec)
}

func (p *Poller) fetch(ctx context.Context) (Recommended, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return Recommended{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return Recommended{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Recommended{}, fmt.Errorf("GET %s: %s", p.endpoint, resp.Status)
	}

	var rec Recommended
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return Recommended{}, fmt.Errorf("decoding recommended fees: %w", err)
	}
	rec.UpdatedAt = time.Now()
	return rec, nil
}
