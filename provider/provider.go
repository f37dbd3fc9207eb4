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

// Package provider connects the toolchain to an EVM network, either through a
// node that manages its own accounts or through a locally signing mnemonic
// wallet.
package provider

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	// ErrMissingURL is returned when a signing provider has no endpoint to dial.
	ErrMissingURL = errors.New("provider url is empty")

	// ErrNoAccounts is returned when the provider exposes no account to send from.
	ErrNoAccounts = errors.New("no accounts available")

	// ErrClosed is returned by providers used after Close.
	ErrClosed = errors.New("provider closed")
)

// Backend is the subset of the Ethereum RPC API the toolchain consumes.
// *ethclient.Client and the simulated backend client both satisfy it.
// Backend 是工具链使用的以太坊 RPC 接口子集。
type Backend interface {
	ethereum.ChainIDReader
	ethereum.BlockNumberReader
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	ethereum.GasPricer
	ethereum.GasPricer1559
	ethereum.GasEstimator
	ethereum.TransactionSender
	ethereum.TransactionReader
}

var _ Backend = (*ethclient.Client)(nil)

// TxRequest is an unsigned transaction request. Zero fields are filled in by
// the provider: Gas is estimated, fees are suggested by the node.
type TxRequest struct {
	To       *common.Address // nil for contract creation
	Data     []byte
	Value    *big.Int
	Gas      uint64
	GasPrice *big.Int // forces a legacy transaction when set
}

// Provider is a connection to one network with a set of sending accounts.
// Provider 是到某个网络的连接，附带一组可发送交易的账户。
type Provider interface {
	// Backend returns the chain access, dialling on first use.
	Backend(ctx context.Context) (Backend, error)

	// Accounts lists the accounts transactions can be sent from.
	Accounts(ctx context.Context) ([]common.Address, error)

	// SendTransaction submits req from the given account and returns the
	// transaction hash.
	SendTransaction(ctx context.Context, from common.Address, req *TxRequest) (common.Hash, error)

	// Close releases the underlying connection.
	Close()
}

// Dial connects to an RPC endpoint (http, ws or ipc).
func Dial(ctx context.Context, url string) (*ethclient.Client, error) {
	if url == "" {
		return nil, ErrMissingURL
	}
	return ethclient.DialContext(ctx, url)
}

// callMsg converts a request into the message used for gas estimation.
func callMsg(from common.Address, req *TxRequest) ethereum.CallMsg {
	return ethereum.CallMsg{
		From:     from,
		To:       req.To,
		Value:    req.Value,
		Data:     req.Data,
		GasPrice: req.GasPrice,
	}
}
