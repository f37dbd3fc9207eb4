// Copyright 2025 The contractkit Authors
// This file is part of the contractkit library.
//
// The contractkit library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The contractkit library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the contractkit library. If not, see <http://www.gnu.org/licenses/>.

// Package config holds the project configuration handed to the toolchain:
// networks, compiler pin, plugin list and API keys.
//
// 配置的三层来源（与 geth 的 loadBaseConfig 相同的优先级）：
// 内置默认值（从环境变量读取） -> TOML 配置文件 -> 命令行参数。
package config

import (
	"fmt"
	"sort"

	"github.com/sunyihoo/contractkit/params"
)

// Environment variables the default configuration is wired to.
const (
	EnvInfuraURL       = "INFURA_API_URL"
	EnvMnemonic        = "MNEMONIC"
	EnvEtherscanAPIKey = "ETHERSCAN_API_KEY"
)

// Identifiers of the plugins every project enables.
const (
	PluginVerify       = "truffle-plugin-verify"
	PluginContractSize = "truffle-contract-size"
)

// DefaultPlugins is the fixed plugin list of the default configuration.
var DefaultPlugins = []string{PluginVerify, PluginContractSize}

// Config is the complete project configuration. It is built once per
// invocation and not mutated afterwards.
type Config struct {
	Networks  map[string]NetworkConfig
	Compilers Compilers
	Plugins   []string
	APIKeys   APIKeys

	ContractsDirectory string `toml:",omitempty"`
	BuildDirectory     string `toml:",omitempty"`

	// Migrations lists the contracts deployed by `migrate`, in order.
	Migrations []MigrationStep `toml:",omitempty"`
}

// Compilers groups per-language compiler settings.
type Compilers struct {
	Solc SolcConfig
}

// SolcConfig pins the Solidity compiler.
type SolcConfig struct {
	Version  string       // exact version ("0.8.15") or a range (">=0.8.0 <0.9.0")
	Path     string       `toml:",omitempty"` // solc executable, defaults to "solc" on PATH
	Settings SolcSettings
}

// SolcSettings is forwarded into the standard-JSON "settings" object.
type SolcSettings struct {
	Optimizer  Optimizer
	EVMVersion string `toml:",omitempty"`
}

// Optimizer is the solc optimizer hint.
type Optimizer struct {
	Enabled bool
	Runs    int
}

// APIKeys carries credentials for external services.
type APIKeys struct {
	Etherscan string `toml:",omitempty"`
}

// MigrationStep deploys one contract artifact with constructor arguments
// given in their textual form.
type MigrationStep struct {
	Contract string
	Args     []string `toml:",omitempty"`
}

// Defaults builds the canonical configuration, reading the three wired
// environment values through lookup. Absent values stay empty; nothing is
// validated here.
func Defaults(lookup LookupFunc) *Config {
	if lookup == nil {
		lookup = OSLookup
	}
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}
	return &Config{
		Networks: map[string]NetworkConfig{
			"development": {
				Host:      "127.0.0.1",
				Port:      7545,
				NetworkID: AnyNetwork,
			},
			"ropsten": {
				URL:                 get(EnvInfuraURL),
				Mnemonic:            get(EnvMnemonic),
				NetworkID:           NetworkIDOf(params.RopstenNetworkID),
				Gas:                 5500000,
				NetworkCheckTimeout: Duration(10000 * 1e6), // 10000 ms
				TimeoutBlocks:       200,
			},
		},
		Compilers: Compilers{
			Solc: SolcConfig{
				Version: "0.8.15",
				Settings: SolcSettings{
					Optimizer: Optimizer{Enabled: true, Runs: 200},
				},
			},
		},
		Plugins: append([]string(nil), DefaultPlugins...),
		APIKeys: APIKeys{
			Etherscan: get(EnvEtherscanAPIKey),
		},
		ContractsDirectory: "contracts",
		BuildDirectory:     "build/contracts",
	}
}

// Network returns the descriptor registered under name.
func (c *Config) Network(name string) (NetworkConfig, error) {
	n, ok := c.Networks[name]
	if !ok {
		return NetworkConfig{}, fmt.Errorf("%w: %q (have %v)", ErrUnknownNetwork, name, c.NetworkNames())
	}
	n.Name = name
	return n, nil
}

// NetworkNames returns the configured network names, sorted.
func (c *Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SolcPath returns the compiler executable to run.
func (c *Config) SolcPath() string {
	if c.Compilers.Solc.Path != "" {
		return c.Compilers.Solc.Path
	}
	return params.DefaultSolcPath
}

// Validate reports the first malformed entry. It is run before any network
// operation, never during construction.
func (c *Config) Validate() error {
	for _, name := range c.NetworkNames() {
		n := c.Networks[name]
		if err := n.validate(); err != nil {
			return fmt.Errorf("network %q: %w", name, err)
		}
	}
	if c.Compilers.Solc.Version == "" {
		return fmt.Errorf("%w: compilers.solc.version is empty", ErrInvalidConfig)
	}
	if c.Compilers.Solc.Settings.Optimizer.Runs < 0 {
		return fmt.Errorf("%w: optimizer runs must not be negative", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Plugins))
	for _, p := range c.Plugins {
		if seen[p] {
			return fmt.Errorf("%w: plugin %q listed twice", ErrInvalidConfig, p)
		}
		seen[p] = true
	}
	for i, step := range c.Migrations {
		if step.Contract == "" {
			return fmt.Errorf("%w: migration %d has no contract", ErrInvalidConfig, i+1)
		}
	}
	return nil
}
