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
	"net"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// HostProvider talks to a development node (Ganache, geth --dev) whose
// accounts are unlocked on the node itself. Transactions are handed over with
// eth_sendTransaction and signed remotely.
type HostProvider struct {
	url string

	mu     sync.Mutex
	rpc    *rpc.Client
	client *ethclient.Client
	closed bool
}

// NewHostProvider prepares a provider for http://host:port.
func NewHostProvider(host string, port int) *HostProvider {
	return &HostProvider{url: "http://" + net.JoinHostPort(host, strconv.Itoa(port))}
}

// NewHostProviderWithClient wraps an existing RPC client.
func NewHostProviderWithClient(c *rpc.Client) *HostProvider {
	return &HostProvider{rpc: c, client: ethclient.NewClient(c)}
}

// URL returns the endpoint the provider dials.
func (p *HostProvider) URL() string { return p.url }

func (p *HostProvider) connect(ctx context.Context) (*rpc.Client, *ethclient.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, nil, ErrClosed
	}
	if p.rpc == nil {
		c, err := rpc.DialContext(ctx, p.url)
		if err != nil {
			return nil, nil, fmt.Errorf("dial %s: %w", p.url, err)
		}
		p.rpc, p.client = c, ethclient.NewClient(c)
	}
	return p.rpc, p.client, nil
}

// Backend implements Provider.
func (p *HostProvider) Backend(ctx context.Context) (Backend, error) {
	_, client, err := p.connect(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Accounts implements Provider using eth_accounts.
func (p *HostProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	c, _, err := p.connect(ctx)
	if err != nil {
		return nil, err
	}
	var accs []common.Address
	if err := c.CallContext(ctx, &accs, "eth_accounts"); err != nil {
		return nil, err
	}
	return accs, nil
}

// sendTxArgs mirrors the eth_sendTransaction argument object.
type sendTxArgs struct {
	From     common.Address  `json:"from"`
	To       *common.Address `json:"to,omitempty"`
	Gas      *hexutil.Uint64 `json:"gas,omitempty"`
	GasPrice *hexutil.Big    `json:"gasPrice,omitempty"`
	Value    *hexutil.Big    `json:"value,omitempty"`
	Data     hexutil.Bytes   `json:"data,omitempty"`
}

// SendTransaction implements Provider using eth_sendTransaction.
func (p *HostProvider) SendTransaction(ctx context.Context, from common.Address, req *TxRequest) (common.Hash, error) {
	c, _, err := p.connect(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	args := sendTxArgs{From: from, To: req.To, Data: req.Data}
	if req.Gas != 0 {
		gas := hexutil.Uint64(req.Gas)
		args.Gas = &gas
	}
	if req.GasPrice != nil {
		args.GasPrice = (*hexutil.Big)(new(big.Int).Set(req.GasPrice))
	}
	if req.Value != nil {
		args.Value = (*hexutil.Big)(new(big.Int).Set(req.Value))
	}
	var hash common.Hash
	if err := c.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// Close implements Provider.
func (p *HostProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rpc != nil {
		p.rpc.Close()
		p.rpc, p.client = nil, nil
	}
	p.closed = true
}
