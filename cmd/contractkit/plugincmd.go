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
	"github.com/sunyihoo/contractkit/config"
	"github.com/sunyihoo/contractkit/plugins"
	"github.com/urfave/cli/v2"
)

// runCommand exposes every registered plugin as a subcommand of run. A
// plugin can only be run when the configuration enables it.
func runCommand(r *plugins.Registry) *cli.Command {
	all, err := r.Load(r.Names())
	if err != nil {
		panic(err)
	}
	cmd := &cli.Command{
		Name:      "run",
		Usage:     "Run a plugin enabled in the configuration",
		ArgsUsage: "<plugin> [arguments...]",
	}
	for _, p := range all {
		name := p.Name()
		cmd.Subcommands = append(cmd.Subcommands, &cli.Command{
			Name:    p.Command(),
			Aliases: []string{name},
			Usage:   p.Usage(),
			Flags:   p.Flags(),
			Action: func(ctx *cli.Context) error {
				return runPlugin(ctx, r, name)
			},
		})
	}
	return cmd
}

func runPlugin(ctx *cli.Context, r *plugins.Registry, name string) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	loaded, err := r.Load(cfg.Plugins)
	if err != nil {
		return err
	}
	p, err := plugins.Find(loaded, name)
	if err != nil {
		return err
	}
	env, err := pluginEnv(ctx, cfg)
	if err != nil {
		return err
	}
	return p.Run(ctx.Context, env, ctx, ctx.Args().Slice())
}

func pluginEnv(ctx *cli.Context, cfg *config.Config) (*plugins.Env, error) {
	network, err := selectedNetwork(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &plugins.Env{
		Config:    cfg,
		Network:   network,
		Artifacts: artifactStore(cfg),
		Out:       ctx.App.Writer,
		Provider:  network.Provider,
	}, nil
}
