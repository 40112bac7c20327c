// Package config provides configuration management for chainmon.
//
// This package implements a layered configuration system. Configuration is
// loaded from multiple sources and merged in a specific order, with later
// sources overriding earlier ones:
//
//  1. Default Configuration (embedded in binary)
//     - Provides sensible defaults for all settings
//     - Ensures chainmon works out-of-the-box against a local node
//
//  2. System Configuration (/etc/chainmon/config.yaml)
//     - Host-wide settings
//
//  3. User Configuration (~/.config/chainmon/config.yaml)
//     - User-specific settings
//
//  4. Explicit Configuration (--config flag)
//     - A single file that overrides everything else
//
// # Configuration Structure
//
// The configuration file uses YAML format:
//
//	tickRate: 250ms
//	rotation:
//	  switchInterval: 5s
//	price:
//	  enabled: true
//	  currency: USD
//	fees:
//	  enabled: true
//	nodes:
//	  - name: "home"
//	    backend: "bitcoincore"
//	    bitcoinCore:
//	      host: "localhost"
//	      rpcPort: "8332"
//	      rpcUser: "username"
//	      rpcPassword: "password"
//	      zmqPort: "28332"
//	  - name: "ln"
//	    backend: "lnd"
//	    lnd:
//	      restAddress: "https://localhost:8080"
//	      macaroonHex: "0201..."
//	      insecureSkipVerify: true
//	  - backend: "corelightning"
//	    coreLightning:
//	      restAddress: "https://127.0.0.1:9835"
//	      rune: "..."
//
// Node order in the file is the display order; it is fixed at startup and
// there is no runtime reconfiguration. Validation failures are fatal before
// any background work is started.
package config
