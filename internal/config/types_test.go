package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBitcoinCoreNode() NodeConfig {
	return NodeConfig{
		Backend: BackendBitcoinCore,
		BitcoinCore: &BitcoinCoreConfig{
			Host: "localhost", RPCPort: "8332", RPCUser: "user", RPCPassword: "pass",
		},
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	cfg := Config{Nodes: []NodeConfig{
		validBitcoinCoreNode(),
		{Backend: BackendLND, LND: &LNDConfig{RestAddress: "https://localhost:8080", MacaroonHex: "0201"}},
		{Backend: BackendCoreLightning, CoreLightning: &CoreLightningConfig{RestAddress: "https://localhost:3010", Rune: "abc"}},
	}}
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBrokenConfigs(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "no nodes",
			mutate:  func(c *Config) { c.Nodes = nil },
			wantErr: "no nodes configured",
		},
		{
			name:    "missing backend",
			mutate:  func(c *Config) { c.Nodes[0].Backend = "" },
			wantErr: "backend is required",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Nodes[0].Backend = "geth" },
			wantErr: "unknown backend",
		},
		{
			name:    "bitcoincore without section",
			mutate:  func(c *Config) { c.Nodes[0].BitcoinCore = nil },
			wantErr: "requires a bitcoinCore section",
		},
		{
			name:    "bitcoincore without credentials",
			mutate:  func(c *Config) { c.Nodes[0].BitcoinCore.RPCUser = "" },
			wantErr: "rpcUser",
		},
		{
			name: "lnd without macaroon",
			mutate: func(c *Config) {
				c.Nodes[0] = NodeConfig{Backend: BackendLND, LND: &LNDConfig{RestAddress: "https://x"}}
			},
			wantErr: "macaroonHex",
		},
		{
			name: "corelightning without rune",
			mutate: func(c *Config) {
				c.Nodes[0] = NodeConfig{Backend: BackendCoreLightning, CoreLightning: &CoreLightningConfig{RestAddress: "https://x"}}
			},
			wantErr: "rune",
		},
		{
			name:    "unsupported price currency",
			mutate:  func(c *Config) { c.Price.Currency = "GBP" },
			wantErr: "price.currency",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{Nodes: []NodeConfig{validBitcoinCoreNode()}}
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestBitcoinCoreAddresses(t *testing.T) {
	c := BitcoinCoreConfig{Host: "node.local", RPCPort: "8332"}
	assert.Equal(t, "node.local:8332", c.RPCAddress())
	assert.Equal(t, "", c.ZMQAddress())

	c.ZMQPort = "28332"
	assert.Equal(t, "tcp://node.local:28332", c.ZMQAddress())
}

func TestDisplayName(t *testing.T) {
	n := validBitcoinCoreNode()
	assert.Equal(t, "Bitcoin Core", n.DisplayName())

	n.BitcoinCore.Host = "node.local"
	assert.Equal(t, "node.local", n.DisplayName())

	n.Name = "my node"
	assert.Equal(t, "my node", n.DisplayName())

	assert.Equal(t, "LND", NodeConfig{Backend: BackendLND}.DisplayName())
	assert.Equal(t, "Core Lightning", NodeConfig{Backend: BackendCoreLightning}.DisplayName())
}
