package config

import (
	"fmt"
	"time"
)

// Backend identifies the kind of node a slot connects to.
type Backend string

const (
	BackendBitcoinCore   Backend = "bitcoincore"
	BackendLND           Backend = "lnd"
	BackendCoreLightning Backend = "corelightning"
)

// Config is the top-level configuration structure for chainmon.
type Config struct {
	TickRate time.Duration  `yaml:"tickRate,omitempty"`
	Rotation RotationConfig `yaml:"rotation,omitempty"`
	Price    PriceConfig    `yaml:"price,omitempty"`
	Fees     FeesConfig     `yaml:"fees,omitempty"`
	Nodes    []NodeConfig   `yaml:"nodes"`
}

// RotationConfig controls how the display cycles through configured nodes.
type RotationConfig struct {
	SwitchInterval time.Duration `yaml:"switchInterval,omitempty"`
}

// PriceConfig controls the spot price poller. Enabled is a pointer so a
// config layer that does not mention the section leaves the lower layers'
// choice intact.
type PriceConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	Currency string `yaml:"currency,omitempty"` // "USD" or "EUR"
}

// IsEnabled reports whether the price poller should run.
func (p PriceConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// FeesConfig controls the recommended-fees poller.
type FeesConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

// IsEnabled reports whether the fees poller should run.
func (f FeesConfig) IsEnabled() bool {
	return f.Enabled == nil || *f.Enabled
}

// NodeConfig configures one monitored node slot. Exactly one of the
// backend-specific sections must be populated, matching Backend.
type NodeConfig struct {
	Name    string `yaml:"name,omitempty"` // display name; defaults to the backend host
	Backend Backend `yaml:"backend"`

	BitcoinCore   *BitcoinCoreConfig   `yaml:"bitcoinCore,omitempty"`
	LND           *LNDConfig           `yaml:"lnd,omitempty"`
	CoreLightning *CoreLightningConfig `yaml:"coreLightning,omitempty"`
}

// BitcoinCoreConfig holds connection parameters for a Bitcoin Core backend.
type BitcoinCoreConfig struct {
	Host        string `yaml:"host"`
	RPCPort     string `yaml:"rpcPort"`
	RPCUser     string `yaml:"rpcUser"`
	RPCPassword string `yaml:"rpcPassword"`
	// ZMQPort is the port of the node's zmqpubhashblock endpoint. Empty
	// disables the push feed; the node is then tracked by RPC polling only.
	ZMQPort string `yaml:"zmqPort,omitempty"`
}

// RPCAddress returns the host:port the JSON-RPC client connects to.
func (c BitcoinCoreConfig) RPCAddress() string {
	return fmt.Sprintf("%s:%s", c.Host, c.RPCPort)
}

// ZMQAddress returns the tcp:// endpoint of the hashblock feed, or "" when
// the feed is disabled.
func (c BitcoinCoreConfig) ZMQAddress() string {
	if c.ZMQPort == "" {
		return ""
	}
	return fmt.Sprintf("tcp://%s:%s", c.Host, c.ZMQPort)
}

// LNDConfig holds connection parameters for an LND REST backend.
type LNDConfig struct {
	RestAddress        string `yaml:"restAddress"`
	MacaroonHex        string `yaml:"macaroonHex"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify,omitempty"`
}

// CoreLightningConfig holds connection parameters for a Core Lightning
// (clnrest) backend.
type CoreLightningConfig struct {
	RestAddress        string `yaml:"restAddress"`
	Rune               string `yaml:"rune"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify,omitempty"`
}

// DisplayName returns the configured name or a backend-derived fallback.
func (n NodeConfig) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	switch n.Backend {
	case BackendBitcoinCore:
		if n.BitcoinCore != nil && n.BitcoinCore.Host != "" && n.BitcoinCore.Host != "localhost" {
			return n.BitcoinCore.Host
		}
		return "Bitcoin Core"
	case BackendLND:
		return "LND"
	case BackendCoreLightning:
		return "Core Lightning"
	default:
		return string(n.Backend)
	}
}

// Validate checks that the configuration is complete enough to start
// providers. Any error returned here is fatal at startup.
func (c Config) Validate() error {
	if len(c.Nodes) == 0 {
		return fmt.Errorf("no nodes configured")
	}
	for i, n := range c.Nodes {
		if err := n.validate(); err != nil {
			return fmt.Errorf("node %d: %w", i, err)
		}
	}
	switch c.Price.Currency {
	case "", "USD", "EUR":
	default:
		return fmt.Errorf("price.currency %q not supported (USD, EUR)", c.Price.Currency)
	}
	return nil
}

func (n NodeConfig) validate() error {
	switch n.Backend {
	case BackendBitcoinCore:
		if n.BitcoinCore == nil {
			return fmt.Errorf("backend %q requires a bitcoinCore section", n.Backend)
		}
		bc := n.BitcoinCore
		if bc.Host == "" || bc.RPCPort == "" {
			return fmt.Errorf("bitcoinCore.host and bitcoinCore.rpcPort are required")
		}
		if bc.RPCUser == "" || bc.RPCPassword == "" {
			return fmt.Errorf("bitcoinCore.rpcUser and bitcoinCore.rpcPassword are required")
		}
	case BackendLND:
		if n.LND == nil {
			return fmt.Errorf("backend %q requires an lnd section", n.Backend)
		}
		if n.LND.RestAddress == "" {
			return fmt.Errorf("lnd.restAddress is required")
		}
		if n.LND.MacaroonHex == "" {
			return fmt.Errorf("lnd.macaroonHex is required")
		}
	case BackendCoreLightning:
		if n.CoreLightning == nil {
			return fmt.Errorf("backend %q requires a coreLightning section", n.Backend)
		}
		if n.CoreLightning.RestAddress == "" {
			return fmt.Errorf("coreLightning.restAddress is required")
		}
		if n.CoreLightning.Rune == "" {
			return fmt.Errorf("coreLightning.rune is required")
		}
	case "":
		return fmt.Errorf("backend is required")
	default:
		return fmt.Errorf("unknown backend %q (expected one of: bitcoincore, lnd, corelightning)", n.Backend)
	}
	return nil
}
