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
	"fmt"

	"github.com/sunyihoo/contractkit/cmd/utils"
	"github.com/sunyihoo/contractkit/config"
	"github.com/sunyihoo/contractkit/internal/version"
	"github.com/urfave/cli/v2"
)

var (
	dumpConfigCommand = &cli.Command{
		Action:    dumpConfig,
		Name:      "dumpconfig",
		Usage:     "Export the effective configuration as TOML",
		ArgsUsage: "",
		Flags:     []cli.Flag{utils.ShowSecretsFlag},
		Description: `
Prints the configuration after applying the environment, the config file and
the command line. The mnemonic and API keys are redacted unless
--show-secrets is given.`,
	}
	versionCommand = &cli.Command{
		Action:    printVersion,
		Name:      "version",
		Usage:     "Print version numbers",
		ArgsUsage: " ",
		Description: `
The output of this command is supposed to be machine-readable.`,
	}
)

// dumpConfig is the dumpconfig command. It does not validate, so a broken
// configuration can still be inspected.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := loadBaseConfig(ctx)
	if err != nil {
		return err
	}
	return config.Dump(ctx.App.Writer, cfg, ctx.Bool(utils.ShowSecretsFlag.Name))
}

func printVersion(ctx *cli.Context) error {
	fmt.Fprintln(ctx.App.Writer, ctx.App.Name)
	for _, line := range version.Info() {
		fmt.Fprintln(ctx.App.Writer, line)
	}
	return nil
}
