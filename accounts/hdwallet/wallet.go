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

// Package hdwallet derives deployment accounts from a BIP-39 mnemonic.
//
// 助记词钱包：
// BIP-39 将 128-256 位熵编码为 12-24 个单词，并通过 PBKDF2（2048 轮 HMAC-SHA512）生成 64 字节种子。
// 种子经 BIP-32 派生出账户私钥，路径遵循 BIP-44（m/44'/60'/0'/0/i）。
package hdwallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/sunyihoo/contractkit/accounts"
	"github.com/sunyihoo/contractkit/params"
	"github.com/tyler-smith/go-bip39"
)

// Options tunes which accounts a wallet derives.
type Options struct {
	Passphrase        string                  // Optional BIP-39 passphrase ("25th word")
	AddressIndex      uint32                  // First index derived under Path
	NumberOfAddresses int                     // Number of consecutive accounts, defaults to 10
	Path              accounts.DerivationPath // Root path, defaults to m/44'/60'/0'/0
}

func (o Options) withDefaults() Options {
	if o.NumberOfAddresses <= 0 {
		o.NumberOfAddresses = params.DefaultNumberOfAddresses
	}
	if len(o.Path) == 0 {
		o.Path = accounts.DefaultRootDerivationPath
	}
	return o
}

// ErrAddressRange is returned when the selected accounts would run into the
// hardened index space.
var ErrAddressRange = errors.New("address index range out of bounds")

// Validate checks that every derived index stays a normal (non-hardened)
// child of Path.
func (o Options) Validate() error {
	o = o.withDefaults()
	last := uint64(o.AddressIndex) + uint64(o.NumberOfAddresses) - 1
	if last >= accounts.HardenedOffset {
		return fmt.Errorf("%w: indexes %d to %d, limit %d", ErrAddressRange, o.AddressIndex, last, uint64(accounts.HardenedOffset)-1)
	}
	return nil
}

// Wallet is an in-memory set of keys derived from one mnemonic.
type Wallet struct {
	accounts []accounts.Account
	keys     map[common.Address]*ecdsa.PrivateKey
	lock     sync.RWMutex
}

var _ accounts.Wallet = (*Wallet)(nil)

// NewWallet validates mnemonic and derives the accounts selected by opts.
func NewWallet(mnemonic string, opts Options) (*Wallet, error) {
	mnemonic = normalize(mnemonic)
	if mnemonic == "" {
		return nil, accounts.ErrMissingMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, opts.Passphrase)
	if err != nil {
		return nil, accounts.ErrInvalidMnemonic
	}
	return newWalletFromSeed(seed, opts)
}

func newWalletFromSeed(seed []byte, opts Options) (*Wallet, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	w := &Wallet{
		accounts: make([]accounts.Account, 0, opts.NumberOfAddresses),
		keys:     make(map[common.Address]*ecdsa.PrivateKey, opts.NumberOfAddresses),
	}
	next := accounts.DefaultIterator(opts.Path.Child(opts.AddressIndex))
	for i := 0; i < opts.NumberOfAddresses; i++ {
		path := next()
		key, err := accounts.DeriveKey(seed, path)
		if err != nil {
			return nil, err
		}
		addr := crypto.PubkeyToAddress(key.PublicKey)
		w.accounts = append(w.accounts, accounts.Account{
			Address: addr,
			Path:    append(accounts.DerivationPath(nil), path...),
		})
		w.keys[addr] = key
	}
	log.Debug("Derived wallet accounts", "path", opts.Path, "from", opts.AddressIndex, "count", len(w.accounts))
	return w, nil
}

// normalize collapses runs of whitespace so pasted phrases validate.
func normalize(mnemonic string) string {
	return strings.Join(strings.Fields(mnemonic), " ")
}

// Accounts implements accounts.Wallet.
func (w *Wallet) Accounts() []accounts.Account {
	w.lock.RLock()
	defer w.lock.RUnlock()

	cpy := make([]accounts.Account, len(w.accounts))
	copy(cpy, w.accounts)
	return cpy
}

// Addresses returns the derived addresses in derivation order.
func (w *Wallet) Addresses() []common.Address {
	w.lock.RLock()
	defer w.lock.RUnlock()

	addrs := make([]common.Address, len(w.accounts))
	for i, acc := range w.accounts {
		addrs[i] = acc.Address
	}
	return addrs
}

// Contains implements accounts.Wallet.
func (w *Wallet) Contains(address common.Address) bool {
	w.lock.RLock()
	defer w.lock.RUnlock()

	_, ok := w.keys[address]
	return ok
}

// SignTx implements accounts.Wallet, signing with the latest signer for the
// chain id (EIP-155 replay protection, typed transactions).
func (w *Wallet) SignTx(address common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	w.lock.RLock()
	key, ok := w.keys[address]
	w.lock.RUnlock()
	if !ok {
		return nil, &accounts.UnknownAccountError{Address: address}
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
}

// PrivateKey returns the key of a derived account, for exporting into a
// keystore.
func (w *Wallet) PrivateKey(address common.Address) (*ecdsa.PrivateKey, error) {
	w.lock.RLock()
	defer w.lock.RUnlock()

	key, ok := w.keys[address]
	if !ok {
		return nil, &accounts.UnknownAccountError{Address: address}
	}
	return key, nil
}
