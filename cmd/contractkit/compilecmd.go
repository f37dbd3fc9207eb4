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
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/log"
	"github.com/sunyihoo/contractkit/artifacts"
	"github.com/sunyihoo/contractkit/common/compiler"
	"github.com/sunyihoo/contractkit/config"
	"github.com/urfave/cli/v2"
)

var errNoSources = errors.New("no Solidity sources found")

var compileCommand = &cli.Command{
	Action: compileContracts,
	Name:   "compile",
	Usage:  "Compile the project's contracts and write their artifacts",
	Description: `
Compiles every .sol file below the contracts directory with the pinned solc
version and writes one JSON artifact per contract to the build directory.
Recorded deployments survive recompilation unless the bytecode changed.`,
}

func compileContracts(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	_, err = compileProject(ctx.Context, cfg, ctx.App.Writer)
	return err
}

// compileProject runs solc over the contracts directory and stores the
// resulting artifacts.
func compileProject(ctx context.Context, cfg *config.Config, out io.Writer) ([]*artifacts.Artifact, error) {
	solc, err := compiler.SolidityVersion(ctx, cfg.SolcPath())
	if err != nil {
		return nil, err
	}
	if err := compiler.CheckVersion(cfg.Compilers.Solc.Version, solc.Version); err != nil {
		return nil, err
	}
	sources, err := compiler.CollectSources(cfg.ContractsDirectory)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w in %s", errNoSources, cfg.ContractsDirectory)
	}
	log.Info("Compiling contracts", "sources", len(sources), "compiler", solc.LongVersion())

	settings := cfg.Compilers.Solc.Settings
	input := compiler.NewStandardInput(sources, compiler.Settings{
		OptimizerEnabled: settings.Optimizer.Enabled,
		OptimizerRuns:    settings.Optimizer.Runs,
		EVMVersion:       settings.EVMVersion,
	})
	contracts, err := compiler.CompileStandard(ctx, solc, input)
	if err != nil {
		return nil, err
	}
	list := make([]*artifacts.Artifact, 0, len(contracts))
	for _, key := range compiler.Names(contracts) {
		a, err := artifacts.FromContract(key, contracts[key])
		if err != nil {
			return nil, err
		}
		list = append(list, a)
		fmt.Fprintf(out, "> Compiled %s\n", key)
	}
	store := artifactStore(cfg)
	if err := store.Write(ctx, list...); err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "> Artifacts written to %s\n", store.Dir())
	fmt.Fprintf(out, "> Compiled successfully using %s\n", solc.LongVersion())
	return list, nil
}
