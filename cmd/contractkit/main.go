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

// contractkit compiles, deploys and verifies Solidity contracts for the
// networks declared in the project configuration.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/sunyihoo/contractkit/cmd/utils"
	"github.com/sunyihoo/contractkit/internal/debug"
	"github.com/sunyihoo/contractkit/internal/flags"
	"github.com/sunyihoo/contractkit/plugins"
	"github.com/sunyihoo/contractkit/plugins/contractsize"
	"github.com/sunyihoo/contractkit/plugins/verify"
	"github.com/urfave/cli/v2"
)

// pluginRegistry holds every plugin this binary ships with. The project's
// Plugins list selects which of them are enabled.
var pluginRegistry = newPluginRegistry(verify.New, contractsize.New)

func newPluginRegistry(factories ...plugins.Factory) *plugins.Registry {
	r := plugins.NewRegistry()
	for _, f := range factories {
		if err := r.Register(f); err != nil {
			panic(err)
		}
	}
	return r
}

func newApp() *cli.App {
	app := flags.NewApp("the contract build, deployment and verification toolchain")
	app.Commands = []*cli.Command{
		// See networkcmd.go:
		networksCommand,
		accountsCommand,
		// See compilecmd.go:
		compileCommand,
		// See migratecmd.go:
		migrateCommand,
		// See plugincmd.go:
		runCommand(pluginRegistry),
		// See misccmd.go:
		dumpConfigCommand,
		versionCommand,
	}
	sort.Sort(cli.CommandsByName(app.Commands))
	app.Flags = flags.Merge(utils.GlobalFlags, debug.Flags)
	app.Before = func(ctx *cli.Context) error {
		return debug.Setup(ctx)
	}
	app.After = func(ctx *cli.Context) error {
		debug.Exit()
		return nil
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
