package config

import "time"

// Default intervals. The switch interval has a hard floor enforced in
// GetDefaultConfig consumers; see internal/rotation.
const (
	DefaultTickRate       = 250 * time.Millisecond
	DefaultSwitchInterval = 5 * time.Second
	DefaultFeesEndpoint   = "https://mempool.space/api/v1/fees/recommended"
)

// GetDefaultConfig returns the built-in defaults. It configures no nodes;
// at least one node must come from a configuration file.
func GetDefaultConfig() Config {
	return Config{
		TickRate: DefaultTickRate,
		Rotation: RotationConfig{
			SwitchInterval: DefaultSwitchInterval,
		},
		Price: PriceConfig{
			Currency: "USD",
		},
		Fees: FeesConfig{
			Endpoint: DefaultFeesEndpoint,
		},
		Nodes: []NodeConfig{},
	}
}
