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

// Package deploy sends contract creation transactions and runs the migration
// steps declared in the project configuration.
package deploy

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/sunyihoo/contractkit/artifacts"
	"github.com/sunyihoo/contractkit/config"
	"github.com/sunyihoo/contractkit/params"
	"github.com/sunyihoo/contractkit/provider"
)

// Deployment is the outcome of one contract creation.
type Deployment struct {
	Contract string
	Address  common.Address
	TxHash   common.Hash
	Block    uint64
	GasUsed  uint64
	GasPrice *big.Int
	Cost     *uint256.Int // GasUsed * effective gas price, in wei
}

// Deployer creates contracts on one network.
type Deployer struct {
	Provider provider.Provider
	Network  config.NetworkConfig
	Poll     time.Duration // receipt polling interval
}

// NewDeployer returns a deployer for network using p.
func NewDeployer(p provider.Provider, network config.NetworkConfig) *Deployer {
	return &Deployer{Provider: p, Network: network, Poll: params.DefaultPollingInterval}
}

// Sender returns the account deployments are sent from: the configured
// address, or the first provider account.
func (d *Deployer) Sender(ctx context.Context) (common.Address, error) {
	if from, ok := d.Network.FromAddress(); ok {
		return from, nil
	}
	accs, err := d.Provider.Accounts(ctx)
	if err != nil {
		return common.Address{}, err
	}
	if len(accs) == 0 {
		return common.Address{}, provider.ErrNoAccounts
	}
	return accs[0], nil
}

// Deploy creates the contract of artifact a with textual constructor args,
// waits until it is mined and checks that code exists at the new address.
func (d *Deployer) Deploy(ctx context.Context, a *artifacts.Artifact, args []string) (*Deployment, error) {
	code, err := a.CreationCode()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.ContractName, err)
	}
	parsed, err := a.ParsedABI()
	if err != nil {
		return nil, fmt.Errorf("%s: abi: %w", a.ContractName, err)
	}
	values, err := ConvertArgs(parsed.Constructor.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.ContractName, err)
	}
	packed, err := parsed.Pack("", values...)
	if err != nil {
		return nil, fmt.Errorf("%s: pack constructor: %w", a.ContractName, err)
	}
	from, err := d.Sender(ctx)
	if err != nil {
		return nil, err
	}
	backend, err := d.Provider.Backend(ctx)
	if err != nil {
		return nil, err
	}

	req := &provider.TxRequest{
		Data: append(code, packed...),
		Gas:  d.Network.GasLimit(),
	}
	if d.Network.GasPrice != 0 {
		req.GasPrice = new(big.Int).SetUint64(d.Network.GasPrice)
	}
	hash, err := d.Provider.SendTransaction(ctx, from, req)
	if err != nil {
		return nil, fmt.Errorf("%s: send: %w", a.ContractName, err)
	}
	log.Info("Deploying contract", "contract", a.ContractName, "network", d.Network.Name, "tx", hash)

	poll := d.Poll
	if poll <= 0 {
		poll = params.DefaultPollingInterval
	}
	receipt, err := WaitForReceipt(ctx, backend, hash, d.Network.ReceiptTimeoutBlocks(), poll)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.ContractName, err)
	}
	if receipt.ContractAddress == (common.Address{}) {
		return nil, fmt.Errorf("%s: %w", a.ContractName, ErrNoCode)
	}
	deployed, err := backend.CodeAt(ctx, receipt.ContractAddress, nil)
	if err != nil {
		return nil, err
	}
	if len(deployed) == 0 {
		return nil, fmt.Errorf("%s at %s: %w", a.ContractName, receipt.ContractAddress.Hex(), ErrNoCode)
	}

	price := receipt.EffectiveGasPrice
	if price == nil {
		price = new(big.Int)
	}
	cost, overflow := uint256.FromBig(price)
	if overflow {
		return nil, fmt.Errorf("%s: gas price overflows 256 bits", a.ContractName)
	}
	cost.Mul(cost, uint256.NewInt(receipt.GasUsed))

	out := &Deployment{
		Contract: a.ContractName,
		Address:  receipt.ContractAddress,
		TxHash:   hash,
		Block:    receipt.BlockNumber.Uint64(),
		GasUsed:  receipt.GasUsed,
		GasPrice: price,
		Cost:     cost,
	}
	log.Info("Contract deployed", "contract", out.Contract, "address", out.Address,
		"block", out.Block, "gas", out.GasUsed, "cost", params.FormatEther(out.Cost)+" ETH")
	return out, nil
}
