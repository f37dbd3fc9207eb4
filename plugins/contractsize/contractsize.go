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

// Package contractsize reports the deployed bytecode size of compiled
// contracts and refuses deployments above the EIP-170 limit.
package contractsize

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/log"
	"github.com/olekukonko/tablewriter"
	"github.com/sunyihoo/contractkit/artifacts"
	"github.com/sunyihoo/contractkit/config"
	"github.com/sunyihoo/contractkit/params"
	"github.com/sunyihoo/contractkit/plugins"
	"github.com/urfave/cli/v2"
)

// ErrContractTooLarge is returned when a contract exceeds the size limit.
var ErrContractTooLarge = errors.New("contract exceeds size limit")

const kib = 1024

var (
	contractsFlag = &cli.StringSliceFlag{
		Name:  "contracts",
		Usage: "Only report the named contracts",
	}
	ignoreMocksFlag = &cli.BoolFlag{
		Name:  "ignoreMocks",
		Usage: "Skip contracts whose name ends in Mock",
	}
	sizeInBytesFlag = &cli.BoolFlag{
		Name:  "sizeInBytes",
		Usage: "Report sizes in bytes instead of KiB",
	}
)

const checkMaxSizeName = "checkMaxSize"

// newCheckMaxSizeFlag returns --checkMaxSize[=N]. The value is parsed into a
// fresh sizeLimit per command so runs never share state.
func newCheckMaxSizeFlag() *cli.GenericFlag {
	return &cli.GenericFlag{
		Name:  checkMaxSizeName,
		Usage: "Fail if a contract is larger than N KiB (bare flag: the EIP-170 limit of 24 KiB)",
		Value: &sizeLimit{kib: params.MaxCodeSize / kib},
	}
}

// sizeLimit is a size in KiB that may be given without a value, like a
// boolean flag. The bare form selects the EIP-170 limit.
type sizeLimit struct {
	kib int
}

func (l *sizeLimit) String() string {
	if l == nil {
		return ""
	}
	return strconv.Itoa(l.kib)
}

func (l *sizeLimit) Set(s string) error {
	if s == "true" {
		l.kib = params.MaxCodeSize / kib
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("invalid size limit %q, want a number of KiB", s)
	}
	l.kib = n
	return nil
}

// IsBoolFlag lets the flag package accept --checkMaxSize without a value.
func (l *sizeLimit) IsBoolFlag() bool { return true }

// Plugin implements plugins.Plugin.
type Plugin struct {
	// Limit is the byte size deployments are checked against.
	Limit int
}

// New returns the plugin with the EIP-170 limit.
func New() plugins.Plugin {
	return &Plugin{Limit: params.MaxCodeSize}
}

func (p *Plugin) Name() string    { return config.PluginContractSize }
func (p *Plugin) Command() string { return "contract-size" }
func (p *Plugin) Usage() string   { return "Show the deployed bytecode size of compiled contracts" }

func (p *Plugin) Flags() []cli.Flag {
	return []cli.Flag{contractsFlag, newCheckMaxSizeFlag(), ignoreMocksFlag, sizeInBytesFlag}
}

// Size is the measured size of one contract.
type Size struct {
	Contract string
	Bytes    int
}

// Measure returns the deployed bytecode sizes of the given artifacts,
// filtered by name. An empty filter selects everything.
func Measure(list []*artifacts.Artifact, only []string, ignoreMocks bool) []Size {
	filter := mapset.NewThreadUnsafeSet(only...)
	var out []Size
	for _, a := range list {
		if filter.Cardinality() > 0 && !filter.Contains(a.ContractName) {
			continue
		}
		if ignoreMocks && strings.HasSuffix(a.ContractName, "Mock") {
			continue
		}
		out = append(out, Size{Contract: a.ContractName, Bytes: codeSize(a.DeployedBytecode)})
	}
	return out
}

func codeSize(code string) int {
	return len(strings.TrimPrefix(code, "0x")) / 2
}

// Run prints the size table and, with --checkMaxSize, fails on oversized
// contracts.
func (p *Plugin) Run(ctx context.Context, env *plugins.Env, flags plugins.Flags, args []string) error {
	list, err := env.Artifacts.ReadAll()
	if err != nil {
		return err
	}
	only := append(flags.StringSlice(contractsFlag.Name), args...)
	sizes := Measure(list, only, flags.Bool(ignoreMocksFlag.Name))
	inBytes := flags.Bool(sizeInBytesFlag.Name)

	table := tablewriter.NewWriter(env.Out)
	table.SetHeader([]string{"Contract", "Size"})
	table.SetAutoFormatHeaders(false)
	for _, s := range sizes {
		table.Append([]string{s.Contract, formatSize(s.Bytes, inBytes)})
	}
	table.Render()

	if !flags.IsSet(checkMaxSizeName) {
		return nil
	}
	limit := flags.Int(checkMaxSizeName) * kib
	var tooLarge []string
	for _, s := range sizes {
		if s.Bytes > limit {
			tooLarge = append(tooLarge, fmt.Sprintf("%s (%s)", s.Contract, formatSize(s.Bytes, inBytes)))
		}
	}
	if len(tooLarge) > 0 {
		return fmt.Errorf("%w of %d KiB: %s", ErrContractTooLarge, limit/kib, strings.Join(tooLarge, ", "))
	}
	return nil
}

// BeforeDeploy refuses contracts the network would reject.
func (p *Plugin) BeforeDeploy(ctx context.Context, a *artifacts.Artifact) error {
	size := codeSize(a.DeployedBytecode)
	if p.Limit > 0 && size > p.Limit {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrContractTooLarge, a.ContractName, size, p.Limit)
	}
	if p.Limit > 0 && size > p.Limit*9/10 {
		log.Warn("Contract is close to the size limit", "contract", a.ContractName, "size", size, "limit", p.Limit)
	}
	return nil
}

func formatSize(n int, inBytes bool) string {
	if inBytes {
		return fmt.Sprintf("%d bytes", n)
	}
	return fmt.Sprintf("%.2f KiB", float64(n)/kib)
}
