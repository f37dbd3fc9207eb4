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

// Package accounts implements hierarchical deterministic key derivation for
// mnemonic backed deployment wallets.
package accounts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Account represents an Ethereum account derived at a specific location of an
// HD wallet.
// Account 代表一个从 HD 钱包特定路径派生的以太坊账户。
type Account struct {
	Address common.Address `json:"address"` // Ethereum account address derived from the key
	Path    DerivationPath `json:"path"`    // Derivation path the key was generated at
}

// Wallet represents a set of signing accounts derived from the same seed.
// Wallet 代表从同一个种子派生的一组签名账户。
type Wallet interface {
	// Accounts retrieves the list of signing accounts the wallet is currently
	// aware of, in derivation order.
	Accounts() []Account

	// Contains returns whether an account is part of this particular wallet or not.
	Contains(address common.Address) bool

	// SignTx requests the wallet to sign the given transaction for the chain id.
	// An *UnknownAccountError is returned for addresses outside the wallet.
	SignTx(address common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}
