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

package main

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/olekukonko/tablewriter"
	"github.com/sunyihoo/contractkit/cmd/utils"
	"github.com/sunyihoo/contractkit/config"
	"github.com/sunyihoo/contractkit/deploy"
	"github.com/sunyihoo/contractkit/internal/flags"
	"github.com/sunyihoo/contractkit/params"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var (
	balanceFlag = &cli.BoolFlag{
		Name:     "balance",
		Usage:    "Query the balance of every account",
		Category: flags.NetworkCategory,
	}

	networksCommand = &cli.Command{
		Action: listNetworks,
		Name:   "networks",
		Usage:  "List the configured networks",
		Flags:  []cli.Flag{utils.CheckFlag},
		Description: `
Lists every network of the configuration. With --check each network is
contacted concurrently and its network id compared with the configured one.`,
	}
	accountsCommand = &cli.Command{
		Action: listAccounts,
		Name:   "accounts",
		Usage:  "List the sending accounts of --network",
		Flags:  []cli.Flag{balanceFlag},
	}
)

func listNetworks(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	var results []networkStatus
	if ctx.Bool(utils.CheckFlag.Name) {
		results = checkNetworks(ctx.Context, cfg)
	}
	return printNetworks(ctx.App.Writer, cfg, results)
}

// networkStatus is the outcome of probing one network.
type networkStatus struct {
	ID  uint64
	Err error
}

// maxConcurrentChecks bounds the number of networks dialled at once.
const maxConcurrentChecks = 4

// checkNetworks probes every network concurrently. Failures are reported per
// network and never cancel the other checks.
func checkNetworks(ctx context.Context, cfg *config.Config) []networkStatus {
	names := cfg.NetworkNames()
	results := make([]networkStatus, len(names))

	var g errgroup.Group
	g.SetLimit(maxConcurrentChecks)
	for i, name := range names {
		g.Go(func() error {
			n, err := cfg.Network(name)
			if err == nil {
				results[i].ID, err = probeNetwork(ctx, n)
			}
			if err != nil {
				log.Debug("Network check failed", "network", name, "err", err)
			}
			results[i].Err = err
			return nil
		})
	}
	g.Wait()
	return results
}

func probeNetwork(ctx context.Context, n config.NetworkConfig) (uint64, error) {
	prov, err := n.Provider()
	if err != nil {
		return 0, err
	}
	defer prov.Close()

	backend, err := prov.Backend(ctx)
	if err != nil {
		return 0, err
	}
	return deploy.CheckNetwork(ctx, backend, n)
}

func printNetworks(w io.Writer, cfg *config.Config, results []networkStatus) error {
	header := []string{"Network", "Network ID", "Endpoint", "Gas", "Timeout blocks"}
	if results != nil {
		header = append(header, "Status")
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)

	var failed int
	for i, name := range cfg.NetworkNames() {
		n, _ := cfg.Network(name)
		row := []string{
			name,
			n.NetworkID.String(),
			n.Endpoint(),
			strconv.FormatUint(n.GasLimit(), 10),
			strconv.FormatUint(n.ReceiptTimeoutBlocks(), 10),
		}
		if results != nil {
			status := fmt.Sprintf("ok (id %d)", results[i].ID)
			if results[i].Err != nil {
				status = results[i].Err.Error()
				failed++
			}
			row = append(row, status)
		}
		table.Append(row)
	}
	table.Render()

	if failed > 0 {
		return fmt.Errorf("%d of %d networks failed the check", failed, len(cfg.Networks))
	}
	return nil
}

func listAccounts(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	n, err := selectedNetwork(ctx, cfg)
	if err != nil {
		return err
	}
	return printAccounts(ctx.Context, ctx.App.Writer, n, ctx.Bool(balanceFlag.Name))
}

func printAccounts(ctx context.Context, w io.Writer, n config.NetworkConfig, withBalance bool) error {
	prov, err := n.Provider()
	if err != nil {
		return err
	}
	defer prov.Close()

	accounts, err := prov.Accounts(ctx)
	if err != nil {
		return err
	}
	balances := make([]string, len(accounts))
	if withBalance {
		backend, err := prov.Backend(ctx)
		if err != nil {
			return err
		}
		for i, addr := range accounts {
			if balances[i], err = accountBalance(ctx, backend, addr); err != nil {
				return err
			}
		}
	}

	table := tablewriter.NewWriter(w)
	header := []string{"#", "Address"}
	if withBalance {
		header = append(header, "Balance (ETH)")
	}
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	for i, addr := range accounts {
		row := []string{strconv.Itoa(i), addr.Hex()}
		if withBalance {
			row = append(row, balances[i])
		}
		table.Append(row)
	}
	table.Render()
	return nil
}

type balanceReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

func accountBalance(ctx context.Context, backend balanceReader, addr common.Address) (string, error) {
	bal, err := backend.BalanceAt(ctx, addr, nil)
	if err != nil {
		return "", fmt.Errorf("balance of %s: %w", addr.Hex(), err)
	}
	wei, overflow := uint256.FromBig(bal)
	if overflow {
		return "", fmt.Errorf("balance of %s overflows 256 bits", addr.Hex())
	}
	return params.FormatEther(wei), nil
}
