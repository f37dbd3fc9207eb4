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

package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sunyihoo/contractkit/accounts"
	"github.com/sunyihoo/contractkit/accounts/hdwallet"
	"github.com/sunyihoo/contractkit/params"
	"github.com/sunyihoo/contractkit/provider"
)

// ProviderFunc builds a signing provider on demand. It is invoked lazily so
// that a configuration with missing credentials can still be loaded.
type ProviderFunc func() (provider.Provider, error)

// NetworkConfig describes how to reach one deployment target.
//
// A descriptor is either host based (Host/Port, an unlocked node such as
// Ganache) or provider based (URL/Mnemonic, a remote endpoint with local
// signing). ProviderFunc overrides both when set programmatically.
type NetworkConfig struct {
	Name string `toml:"-"`

	Host      string    `toml:",omitempty"`
	Port      int       `toml:",omitempty"`
	NetworkID NetworkID

	URL               string `toml:",omitempty"`
	Mnemonic          string `toml:",omitempty"`
	DerivationPath    string `toml:",omitempty"` // root path, "m/44'/60'/0'/0" when empty
	AddressIndex      uint32 `toml:",omitempty"`
	NumberOfAddresses int    `toml:",omitempty"`

	From     string `toml:",omitempty"` // sender, first provider account when empty
	Gas      uint64 `toml:",omitempty"`
	GasPrice uint64 `toml:",omitempty"` // wei, EIP-1559 pricing when zero

	NetworkCheckTimeout Duration `toml:",omitempty"`
	TimeoutBlocks       uint64   `toml:",omitempty"`

	ProviderFunc ProviderFunc `toml:"-"`
}

// Provider returns the transaction provider for the network. Credentials are
// only checked here, never when the configuration is built.
// 只有在真正需要签名者时才会校验助记词和 URL。
func (n NetworkConfig) Provider() (provider.Provider, error) {
	switch {
	case n.ProviderFunc != nil:
		return n.ProviderFunc()
	case n.URL != "" || n.Mnemonic != "":
		opts, err := n.walletOptions()
		if err != nil {
			return nil, err
		}
		return provider.NewHDWalletProvider(n.Mnemonic, n.URL, opts)
	case n.Host != "":
		return provider.NewHostProvider(n.Host, n.Port), nil
	}
	return nil, ErrNoProvider
}

func (n NetworkConfig) walletOptions() (hdwallet.Options, error) {
	opts := hdwallet.Options{
		AddressIndex:      n.AddressIndex,
		NumberOfAddresses: n.NumberOfAddresses,
	}
	if n.DerivationPath != "" {
		path, err := accounts.ParseDerivationPath(n.DerivationPath)
		if err != nil {
			return opts, fmt.Errorf("%w: derivation path: %v", ErrInvalidConfig, err)
		}
		opts.Path = path
	}
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return opts, nil
}

// IsHost reports whether the network is reached through an unlocked node.
func (n NetworkConfig) IsHost() bool {
	return n.ProviderFunc == nil && n.URL == "" && n.Mnemonic == "" && n.Host != ""
}

// Endpoint describes the connection target without exposing credentials.
func (n NetworkConfig) Endpoint() string {
	switch {
	case n.ProviderFunc != nil:
		return "custom provider"
	case n.URL != "":
		return provider.RedactURL(n.URL)
	case n.Host != "":
		return fmt.Sprintf("http://%s:%d", n.Host, n.Port)
	}
	return "none"
}

// GasLimit returns the configured gas limit or the toolchain default.
func (n NetworkConfig) GasLimit() uint64 {
	if n.Gas != 0 {
		return n.Gas
	}
	return params.DefaultGasLimit
}

// CheckTimeout returns how long to wait for the chain id probe.
func (n NetworkConfig) CheckTimeout() time.Duration {
	if n.NetworkCheckTimeout > 0 {
		return n.NetworkCheckTimeout.Std()
	}
	return params.DefaultNetworkCheckTimeout
}

// ReceiptTimeoutBlocks returns how many blocks to wait for a receipt.
func (n NetworkConfig) ReceiptTimeoutBlocks() uint64 {
	if n.TimeoutBlocks != 0 {
		return n.TimeoutBlocks
	}
	return params.DefaultTimeoutBlocks
}

// FromAddress returns the configured sender, if any.
func (n NetworkConfig) FromAddress() (common.Address, bool) {
	if n.From == "" {
		return common.Address{}, false
	}
	return common.HexToAddress(n.From), true
}

func (n NetworkConfig) validate() error {
	// Remote descriptors fed from the environment stay blank until their
	// variables are set; only a descriptor without any network id is empty.
	if n.ProviderFunc == nil && n.Host == "" && n.URL == "" && n.Mnemonic == "" && n.NetworkID == (NetworkID{}) {
		return ErrNoProvider
	}
	if n.Host != "" && (n.Port <= 0 || n.Port > 65535) {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, n.Port)
	}
	if n.From != "" && !common.IsHexAddress(n.From) {
		return fmt.Errorf("%w: from %q is not an address", ErrInvalidConfig, n.From)
	}
	if _, err := n.walletOptions(); err != nil {
		return err
	}
	if n.NetworkCheckTimeout < 0 {
		return fmt.Errorf("%w: negative network check timeout", ErrInvalidConfig)
	}
	return nil
}

// NetworkID is either a concrete chain id or the "*" wildcard that accepts
// whatever the node reports.
type NetworkID struct {
	ID  uint64
	Any bool
}

// AnyNetwork matches every chain id.
var AnyNetwork = NetworkID{Any: true}

// NetworkIDOf returns a concrete network id.
func NetworkIDOf(id uint64) NetworkID { return NetworkID{ID: id} }

// ParseNetworkID accepts "*" or a decimal integer.
func ParseNetworkID(s string) (NetworkID, error) {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	if s == "*" {
		return AnyNetwork, nil
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return NetworkID{}, fmt.Errorf("%w: network id %q must be \"*\" or a decimal integer", ErrInvalidConfig, s)
	}
	return NetworkID{ID: id}, nil
}

// Matches reports whether a node reporting chainID satisfies the id.
func (id NetworkID) Matches(chainID uint64) bool {
	return id.Any || id.ID == chainID
}

// String returns "*" or the decimal id.
func (id NetworkID) String() string {
	if id.Any {
		return "*"
	}
	return strconv.FormatUint(id.ID, 10)
}

// MarshalText implements encoding.TextMarshaler.
func (id NetworkID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. TOML integers and
// strings both land here.
func (id *NetworkID) UnmarshalText(data []byte) error {
	v, err := ParseNetworkID(string(data))
	if err != nil {
		return err
	}
	*id = v
	return nil
}
