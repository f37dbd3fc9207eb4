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

// Package utils contains internal helper functions for contractkit commands.
package utils

import (
	"github.com/sunyihoo/contractkit/internal/flags"
	"github.com/urfave/cli/v2"
)

// These are all the command line flags we support.
// If you add to this list, please remember to include the
// flag in the appropriate command definition.
//
// The flags are defined here so their names and help texts
// are the same for all commands.

var (
	// Project settings
	ConfigFileFlag = &flags.PathFlag{
		Name:     "config",
		Usage:    "TOML configuration file overriding the built-in defaults",
		Category: flags.ProjectCategory,
	}
	EnvFileFlag = &flags.PathFlag{
		Name:     "envfile",
		Usage:    "Dotenv file read before the process environment",
		Value:    ".env",
		Category: flags.ProjectCategory,
	}
	BuildDirFlag = &flags.PathFlag{
		Name:     "builddir",
		Usage:    "Directory holding the contract artifacts (overrides BuildDirectory)",
		Category: flags.ProjectCategory,
	}
	DataDirFlag = &flags.PathFlag{
		Name:     "datadir",
		Usage:    "Directory for the deployment registry",
		Value:    ".contractkit",
		Category: flags.ProjectCategory,
	}

	// Network settings
	NetworkFlag = &cli.StringFlag{
		Name:     "network",
		Usage:    "Name of the network to use",
		Value:    "development",
		EnvVars:  []string{"CONTRACTKIT_NETWORK"},
		Category: flags.NetworkCategory,
	}
	CheckFlag = &cli.BoolFlag{
		Name:     "check",
		Usage:    "Verify that every network is reachable and reports the expected id",
		Category: flags.NetworkCategory,
	}

	// Deployment settings
	ResetFlag = &cli.BoolFlag{
		Name:     "reset",
		Usage:    "Run all migrations from the beginning, discarding recorded progress",
		Category: flags.DeployCategory,
	}
	GasPriceFlag = &flags.WeiFlag{
		Name:     "gasprice",
		Usage:    "Legacy gas price for deployments, e.g. 20gwei (overrides the network's GasPrice)",
		Category: flags.DeployCategory,
	}
	DryRunFlag = &cli.BoolFlag{
		Name:     "dry-run",
		Usage:    "List the pending migrations without sending transactions",
		Category: flags.DeployCategory,
	}

	// Misc
	ShowSecretsFlag = &cli.BoolFlag{
		Name:     "show-secrets",
		Usage:    "Print the mnemonic and API keys instead of redacting them",
		Category: flags.MiscCategory,
	}
)

// GlobalFlags are accepted by every command.
var GlobalFlags = []cli.Flag{
	ConfigFileFlag,
	EnvFileFlag,
	BuildDirFlag,
	DataDirFlag,
	NetworkFlag,
}
