// Package price polls the Coinbase spot price so the footer can show the
// current BTC exchange rate. Failures are logged and skipped; the UI keeps
// showing the last quote it received.
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"chainmon/pkg/logging"
)

const (
	// DefaultEndpoint is the Coinbase spot price API. The %s is the quote
	// currency.
	DefaultEndpoint = "https://api.coinbase.com/v2/prices/BTC-%s/spot"

	pollInterval   = 30 * time.Second
	requestTimeout = 10 * time.Second
)

// Quote is one spot price observation.
type Quote struct {
	Currency  string
	Amount    float64
	UpdatedAt time.Time
}

// Sink receives quotes as they arrive.
type Sink func(Quote)

// Poller fetches the spot price on a fixed interval.
type Poller struct {
	currency string
	endpoint string
	client   *http.Client
	send     Sink
}

// New builds a poller for the given quote currency ("USD" or "EUR"; empty
// defaults to USD).
func New(currency string, send Sink) *Poller {
	if currency == "" {
		currency = "USD"
	}
	return &Poller{
		currency: currency,
		endpoint: DefaultEndpoint,
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
	q, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logging.Warn("price", "spot price fetch failed: %v", err)
		}
		return
	}
	p.send(q)
}

func (p *Poller) fetch(ctx context.Context) (Quote, error) {
	url := fmt.Sprintf(p.endpoint, p.currency)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Quote{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return Quote{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	var body struct {
		Data struct {
			Currency string `json:"currency"`
			Amount   string `json:"amount"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Quote{}, fmt.Errorf("decoding spot price: %w", err)
	}
	amount, err := strconv.ParseFloat(body.Data.Amount, 64)
	if err != nil {
		return Quote{}, fmt.Errorf("parsing amount %q: %w", body.Data.Amount, err)
	}
	return Quote{Currency: p.currency, Amount: amount, UpdatedAt: time.Now()}, nil
}
