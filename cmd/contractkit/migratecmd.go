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
	"path/filepath"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/olekukonko/tablewriter"
	"github.com/sunyihoo/contractkit/cmd/utils"
	"github.com/sunyihoo/contractkit/config"
	"github.com/sunyihoo/contractkit/deploy"
	"github.com/sunyihoo/contractkit/internal/flags"
	"github.com/sunyihoo/contractkit/params"
	"github.com/sunyihoo/contractkit/registry"
	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Action: migrate,
	Name:   "migrate",
	Usage:  "Deploy the configured migration steps to --network",
	Flags:  []cli.Flag{utils.ResetFlag, utils.GasPriceFlag, utils.DryRunFlag},
	Description: `
Runs the [[Migrations]] steps of the configuration in order. Steps already
recorded as completed for the network are skipped unless --reset is given.
Enabled plugins with a deploy hook (truffle-contract-size) can veto a step.`,
}

// migrateOptions are the command line switches of migrate.
type migrateOptions struct {
	DataDir string
	Reset   bool
	DryRun  bool
	Poll    time.Duration // receipt polling, params.DefaultPollingInterval when zero
}

func migrate(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	network, err := selectedNetwork(ctx, cfg)
	if err != nil {
		return err
	}
	if ctx.IsSet(utils.GasPriceFlag.Name) {
		price := flags.GlobalWei(ctx, utils.GasPriceFlag.Name)
		if !price.IsUint64() {
			return fmt.Errorf("--%s out of range: %v", utils.GasPriceFlag.Name, price)
		}
		network.GasPrice = price.Uint64()
	}
	opts := migrateOptions{
		DataDir: ctx.String(utils.DataDirFlag.Name),
		Reset:   ctx.Bool(utils.ResetFlag.Name),
		DryRun:  ctx.Bool(utils.DryRunFlag.Name),
	}
	return runMigrations(ctx.Context, cfg, network, opts, ctx.App.Writer)
}

// runMigrations checks the network, deploys the pending steps and prints a
// summary of what was deployed.
func runMigrations(ctx context.Context, cfg *config.Config, network config.NetworkConfig, opts migrateOptions, out io.Writer) error {
	if len(cfg.Migrations) == 0 {
		log.Warn("No migrations configured, nothing to deploy")
		return nil
	}
	loaded, err := pluginRegistry.Load(cfg.Plugins)
	if err != nil {
		return err
	}
	var hooks []deploy.Hook
	for _, p := range loaded {
		if h, ok := p.(deploy.Hook); ok {
			hooks = append(hooks, h)
		}
	}

	prov, err := network.Provider()
	if err != nil {
		return err
	}
	defer prov.Close()
	backend, err := prov.Backend(ctx)
	if err != nil {
		return err
	}
	id, err := deploy.CheckNetwork(ctx, backend, network)
	if err != nil {
		return err
	}
	reg, err := registry.Open(filepath.Join(opts.DataDir, "registry"))
	if err != nil {
		return err
	}
	defer reg.Close()

	if opts.DryRun {
		return printPending(out, reg, id, cfg.Migrations, opts.Reset)
	}
	deployer := deploy.NewDeployer(prov, network)
	if opts.Poll > 0 {
		deployer.Poll = opts.Poll
	}
	runner := &deploy.Runner{
		Deployer:  deployer,
		Artifacts: artifactStore(cfg),
		Registry:  reg,
		NetworkID: id,
		Hooks:     hooks,
	}
	fmt.Fprintf(out, "Deploying to '%s' (network id %d)\n", network.Name, id)
	res, err := runner.Run(ctx, cfg.Migrations, opts.Reset)
	if res != nil {
		printDeployments(out, res)
	}
	return err
}

// printPending lists the steps a run would execute.
func printPending(out io.Writer, reg *registry.Registry, networkID uint64, steps []config.MigrationStep, reset bool) error {
	last, done, err := reg.LastCompleted(networkID)
	if err != nil {
		return err
	}
	if reset {
		done = false
	}
	var pending int
	for i, step := range steps {
		if done && i+1 <= last {
			continue
		}
		fmt.Fprintf(out, "%d: %s %v\n", i+1, step.Contract, step.Args)
		pending++
	}
	fmt.Fprintf(out, "%d pending migrations\n", pending)
	return nil
}

func printDeployments(out io.Writer, res *deploy.Result) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Contract", "Address", "Transaction", "Block", "Gas used", "Cost (ETH)"})
	table.SetAutoFormatHeaders(false)

	total := new(uint256.Int)
	for _, d := range res.Deployed {
		table.Append([]string{
			d.Contract,
			d.Address.Hex(),
			d.TxHash.Hex(),
			strconv.FormatUint(d.Block, 10),
			strconv.FormatUint(d.GasUsed, 10),
			params.FormatEther(d.Cost),
		})
		if d.Cost != nil {
			total.Add(total, d.Cost)
		}
	}
	table.SetFooter([]string{"", "", "", "", "Total", params.FormatEther(total)})
	table.Render()
	fmt.Fprintf(out, "Run %s: %d deployed, %d skipped\n", res.RunID, len(res.Deployed), res.Skipped)
}
