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
	"github.com/sunyihoo/contractkit/artifacts"
	"github.com/sunyihoo/contractkit/cmd/utils"
	"github.com/sunyihoo/contractkit/config"
	"github.com/urfave/cli/v2"
)

// loadBaseConfig loads the configuration based on the given command line
// parameters: environment file, config file, then flags.
func loadBaseConfig(ctx *cli.Context) (*config.Config, error) {
	lookup, err := config.LoadDotEnv(ctx.String(utils.EnvFileFlag.Name), config.OSLookup)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(ctx.String(utils.ConfigFileFlag.Name), lookup)
	if err != nil {
		return nil, err
	}
	if ctx.IsSet(utils.BuildDirFlag.Name) {
		cfg.BuildDirectory = ctx.String(utils.BuildDirFlag.Name)
	}
	return cfg, nil
}

// loadConfig is loadBaseConfig followed by validation. Every command that
// acts on the configuration goes through here.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := loadBaseConfig(ctx)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// selectedNetwork returns the descriptor named by --network.
func selectedNetwork(ctx *cli.Context, cfg *config.Config) (config.NetworkConfig, error) {
	return cfg.Network(ctx.String(utils.NetworkFlag.Name))
}

func artifactStore(cfg *config.Config) *artifacts.Store {
	return artifacts.NewStore(cfg.BuildDirectory)
}
