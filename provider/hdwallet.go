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

package provider

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/sunyihoo/contractkit/accounts/hdwallet"
)

// HDWalletProvider signs transactions locally with keys derived from a
// mnemonic and relays them to a remote endpoint (e.g. Infura).
//
// The endpoint is dialled lazily, so constructing a provider never touches the
// network.
type HDWalletProvider struct {
	url    string
	wallet *hdwallet.Wallet

	mu      sync.Mutex // guards backend, client, chainID and closed
	backend Backend
	client  *ethclient.Client // set when the provider dialled the backend itself
	chainID *big.Int
	closed  bool

	sendLock sync.Mutex // serialises nonce assignment
}

// NewHDWalletProvider derives the wallet accounts and prepares a provider for
// url. It fails only on a malformed mnemonic or an empty url.
func NewHDWalletProvider(mnemonic, url string, opts hdwallet.Options) (*HDWalletProvider, error) {
	wallet, err := hdwallet.NewWallet(mnemonic, opts)
	if err != nil {
		return nil, err
	}
	if url == "" {
		return nil, ErrMissingURL
	}
	return &HDWalletProvider{url: url, wallet: wallet}, nil
}

// NewHDWalletProviderWithBackend wraps an already connected backend.
func NewHDWalletProviderWithBackend(wallet *hdwallet.Wallet, backend Backend) *HDWalletProvider {
	return &HDWalletProvider{wallet: wallet, backend: backend}
}

// Wallet returns the derived key set.
func (p *HDWalletProvider) Wallet() *hdwallet.Wallet { return p.wallet }

// Backend implements Provider.
func (p *HDWalletProvider) Backend(ctx context.Context) (Backend, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if p.backend != nil {
		return p.backend, nil
	}
	client, err := Dial(ctx, p.url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", RedactURL(p.url), err)
	}
	log.Debug("Connected wallet provider", "url", RedactURL(p.url))
	p.backend, p.client = client, client
	return client, nil
}

// ChainID returns the chain id of the backend, cached after the first call.
func (p *HDWalletProvider) ChainID(ctx context.Context) (*big.Int, error) {
	backend, err := p.Backend(ctx)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	cached := p.chainID
	p.mu.Unlock()
	if cached != nil {
		return new(big.Int).Set(cached), nil
	}
	id, err := backend.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.chainID = id
	p.mu.Unlock()
	return new(big.Int).Set(id), nil
}

// Accounts implements Provider. The list is local, no RPC is made.
func (p *HDWalletProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	return p.wallet.Addresses(), nil
}

// SendTransaction implements Provider. The transaction is filled, signed with
// the key of from and broadcast. Dynamic fee transactions are used when the
// chain head carries a base fee and no explicit gas price was requested.
func (p *HDWalletProvider) SendTransaction(ctx context.Context, from common.Address, req *TxRequest) (common.Hash, error) {
	if !p.wallet.Contains(from) {
		return common.Hash{}, fmt.Errorf("send from %s: not a wallet account", from.Hex())
	}
	backend, err := p.Backend(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	chainID, err := p.ChainID(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain id: %w", err)
	}

	p.sendLock.Lock()
	defer p.sendLock.Unlock()

	nonce, err := backend.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pending nonce: %w", err)
	}
	gas := req.Gas
	if gas == 0 {
		if gas, err = backend.EstimateGas(ctx, callMsg(from, req)); err != nil {
			return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
		}
	}
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	head, err := backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("latest header: %w", err)
	}

	var tx *types.Transaction
	if req.GasPrice != nil || head.BaseFee == nil {
		price := req.GasPrice
		if price == nil {
			if price, err = backend.SuggestGasPrice(ctx); err != nil {
				return common.Hash{}, fmt.Errorf("suggest gas price: %w", err)
			}
		}
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: price,
			Gas:      gas,
			To:       req.To,
			Value:    value,
			Data:     req.Data,
		})
	} else {
		tip, err := backend.SuggestGasTipCap(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("suggest gas tip: %w", err)
		}
		// 费用上限 = 小费 + 2 * 基础费用，可承受连续 6 个满块的基础费用上涨。
		feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        req.To,
			Value:     value,
			Data:      req.Data,
		})
	}
	signed, err := p.wallet.SignTx(from, tx, chainID)
	if err != nil {
		return common.Hash{}, err
	}
	if err := backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}
	log.Debug("Submitted transaction", "hash", signed.Hash(), "from", from, "nonce", nonce, "gas", gas)
	return signed.Hash(), nil
}

// Close implements Provider.
func (p *HDWalletProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
	p.backend = nil
	p.closed = true
}
