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

package params

import "time"

const (
	// DefaultGasLimit is the gas limit attached to deployments when a network
	// descriptor leaves it unset.
	DefaultGasLimit uint64 = 6721975

	// DefaultNetworkCheckTimeout bounds the initial network id probe.
	DefaultNetworkCheckTimeout = 30 * time.Second

	// DefaultTimeoutBlocks is the number of blocks to wait for a receipt
	// before a transaction is considered lost.
	DefaultTimeoutBlocks uint64 = 50

	// DefaultPollingInterval is how often receipts are polled.
	DefaultPollingInterval = 4 * time.Second

	// DefaultNumberOfAddresses is how many accounts a mnemonic wallet derives.
	DefaultNumberOfAddresses = 10

	// DefaultDerivationPath is the BIP-44 root under which wallet accounts are
	// derived, one per trailing index.
	DefaultDerivationPath = "m/44'/60'/0'/0"

	// MaxCodeSize is the EIP-170 limit on deployed contract bytecode.
	// MaxCodeSize 是 EIP-170 规定的合约部署字节码最大值（24 KiB）。
	MaxCodeSize = 24576

	// DefaultSolcPath is the solc executable looked up on PATH.
	DefaultSolcPath = "solc"
)
