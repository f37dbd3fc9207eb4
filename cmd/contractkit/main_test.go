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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/contractkit/accounts/hdwallet"
	"github.com/sunyihoo/contractkit/artifacts"
	"github.com/sunyihoo/contractkit/config"
	"github.com/sunyihoo/contractkit/deploy"
	"github.com/sunyihoo/contractkit/params"
	"github.com/sunyihoo/contractkit/plugins"
	"github.com/sunyihoo/contractkit/plugins/contractsize"
	"github.com/sunyihoo/contractkit/provider"
)

const (
	testMnemonic  = "test test test test test test test test test test test junk"
	answerCode    = "0x600a600c600039600a6000f3602a60005260206000f3"
	answerRuntime = "0x602a60005260206000f3"
)

// runApp runs the command line with args and returns what was printed.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"contractkit", "--envfile", filepath.Join(t.TempDir(), "none.env")}, args...))
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func answerArtifact(name string) *artifacts.Artifact {
	return &artifacts.Artifact{
		ContractName:     name,
		ABI:              json.RawMessage(`[]`),
		Bytecode:         answerCode,
		DeployedBytecode: answerRuntime,
	}
}

// autoCommit mines a block after every submitted transaction.
type autoCommit struct {
	simulated.Client
	sim *simulated.Backend
}

func (b *autoCommit) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := b.Client.SendTransaction(ctx, tx); err != nil {
		return err
	}
	b.sim.Commit()
	return nil
}

// simulatedProvider returns a provider factory backed by one in-memory chain.
func simulatedProvider(t *testing.T) config.ProviderFunc {
	t.Helper()
	w, err := hdwallet.NewWallet(testMnemonic, hdwallet.Options{NumberOfAddresses: 2})
	require.NoError(t, err)
	alloc := types.GenesisAlloc{}
	for _, addr := range w.Addresses() {
		alloc[addr] = types.Account{Balance: new(big.Int).Mul(big.NewInt(100), big.NewInt(params.Ether))}
	}
	sim := simulated.NewBackend(alloc)
	t.Cleanup(func() { sim.Close() })
	backend := &autoCommit{Client: sim.Client(), sim: sim}
	return func() (provider.Provider, error) {
		return provider.NewHDWalletProviderWithBackend(w, backend), nil
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runApp(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: ")
	assert.Contains(t, out, "Go Version: "+runtime.Version())
}

func TestDumpConfig(t *testing.T) {
	dir := t.TempDir()
	envfile := writeFile(t, dir, ".env", "MNEMONIC=\"secret words never printed\"\nETHERSCAN_API_KEY=SECRETKEY\n")
	for _, key := range []string{config.EnvMnemonic, config.EnvEtherscanAPIKey} {
		if _, ok := os.LookupEnv(key); ok {
			t.Skipf("%s is set in the environment", key)
		}
	}

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	require.NoError(t, app.Run([]string{"contractkit", "--envfile", envfile, "dumpconfig"}))
	assert.Contains(t, out.String(), "ropsten")
	assert.Contains(t, out.String(), `Version = "0.8.15"`)
	assert.NotContains(t, out.String(), "secret words")
	assert.NotContains(t, out.String(), "SECRETKEY")

	out.Reset()
	require.NoError(t, app.Run([]string{"contractkit", "--envfile", envfile, "dumpconfig", "--show-secrets"}))
	assert.Contains(t, out.String(), "secret words never printed")
}

func TestNetworksCommand(t *testing.T) {
	out, err := runApp(t, "networks")
	require.NoError(t, err)
	assert.Contains(t, out, "development")
	assert.Contains(t, out, "http://127.0.0.1:7545")
	assert.Contains(t, out, "ropsten")
	assert.Contains(t, out, "5500000")
}

func TestCheckNetworks(t *testing.T) {
	newProvider := simulatedProvider(t)
	cfg := config.Defaults(config.MapLookup(nil))
	cfg.Networks = map[string]config.NetworkConfig{
		"a-dev":     {NetworkID: config.AnyNetwork, ProviderFunc: newProvider},
		"b-wrong":   {NetworkID: config.NetworkIDOf(params.RopstenNetworkID), ProviderFunc: newProvider},
		"c-nocreds": {URL: "https://ropsten.infura.io/v3/key", NetworkID: config.NetworkIDOf(params.RopstenNetworkID)},
	}

	results := checkNetworks(context.Background(), cfg)
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, params.DevChainID, results[0].ID)

	var mismatch *deploy.NetworkMismatchError
	assert.ErrorAs(t, results[1].Err, &mismatch)
	assert.Error(t, results[2].Err)

	var out bytes.Buffer
	err := printNetworks(&out, cfg, results)
	assert.ErrorContains(t, err, "2 of 3 networks failed")
	assert.Contains(t, out.String(), fmt.Sprintf("ok (id %d)", params.DevChainID))
}

func TestPrintAccounts(t *testing.T) {
	n := config.NetworkConfig{Name: "dev", ProviderFunc: simulatedProvider(t)}

	var out bytes.Buffer
	require.NoError(t, printAccounts(context.Background(), &out, n, true))
	assert.Contains(t, out.String(), "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	assert.Contains(t, out.String(), "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	assert.Contains(t, out.String(), "100")
}

func TestRunMigrations(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults(config.MapLookup(nil))
	cfg.BuildDirectory = filepath.Join(dir, "build")
	cfg.Migrations = []config.MigrationStep{{Contract: "First"}, {Contract: "Second"}}
	store := artifacts.NewStore(cfg.BuildDirectory)
	require.NoError(t, store.Write(context.Background(), answerArtifact("First"), answerArtifact("Second")))

	network := config.NetworkConfig{Name: "dev", NetworkID: config.AnyNetwork, TimeoutBlocks: 5, ProviderFunc: simulatedProvider(t)}
	opts := migrateOptions{DataDir: filepath.Join(dir, "data"), Poll: 10 * time.Millisecond}
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, runMigrations(ctx, cfg, network, opts, &out))
	assert.Contains(t, out.String(), "Deploying to 'dev'")
	assert.Contains(t, out.String(), "2 deployed, 0 skipped")

	a, err := store.Read("Second")
	require.NoError(t, err)
	_, ok := a.Deployment(params.DevChainID)
	assert.True(t, ok)

	out.Reset()
	require.NoError(t, runMigrations(ctx, cfg, network, opts, &out))
	assert.Contains(t, out.String(), "0 deployed, 2 skipped")

	out.Reset()
	opts.DryRun, opts.Reset = true, true
	require.NoError(t, runMigrations(ctx, cfg, network, opts, &out))
	assert.Contains(t, out.String(), "2 pending migrations")
}

func TestRunMigrationsSizeHook(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults(config.MapLookup(nil))
	cfg.BuildDirectory = filepath.Join(dir, "build")
	cfg.Migrations = []config.MigrationStep{{Contract: "Huge"}}
	huge := answerArtifact("Huge")
	huge.DeployedBytecode = "0x" + strings.Repeat("00", params.MaxCodeSize+1)
	require.NoError(t, artifacts.NewStore(cfg.BuildDirectory).Write(context.Background(), huge))

	network := config.NetworkConfig{Name: "dev", NetworkID: config.AnyNetwork, ProviderFunc: simulatedProvider(t)}
	err := runMigrations(context.Background(), cfg, network, migrateOptions{DataDir: filepath.Join(dir, "data")}, new(bytes.Buffer))
	assert.ErrorIs(t, err, contractsize.ErrContractTooLarge)

	// Without the plugin the hook is not installed.
	cfg.Plugins = []string{config.PluginVerify}
	err = runMigrations(context.Background(), cfg, network, migrateOptions{DataDir: filepath.Join(dir, "data"), Poll: 10 * time.Millisecond}, new(bytes.Buffer))
	assert.NoError(t, err)
}

func TestRunContractSize(t *testing.T) {
	dir := t.TempDir()
	build := filepath.Join(dir, "build")
	require.NoError(t, artifacts.NewStore(build).Write(context.Background(), answerArtifact("Answer")))
	cfgFile := writeFile(t, dir, "contractkit.toml", fmt.Sprintf("BuildDirectory = %q\n", build))

	out, err := runApp(t, "--config", cfgFile, "run", "contract-size", "--sizeInBytes")
	require.NoError(t, err)
	assert.Contains(t, out, "Answer")
	assert.Contains(t, out, "10")

	out, err = runApp(t, "--config", cfgFile, "run", "truffle-contract-size", "--checkMaxSize=0")
	assert.ErrorIs(t, err, contractsize.ErrContractTooLarge)
	assert.Contains(t, out, "Answer")

	_, err = runApp(t, "--config", cfgFile, "run", "contract-size", "--checkMaxSize=x")
	assert.Error(t, err)
}

func TestRunContractSizeDefaultLimit(t *testing.T) {
	dir := t.TempDir()
	build := filepath.Join(dir, "build")
	store := artifacts.NewStore(build)
	require.NoError(t, store.Write(context.Background(), answerArtifact("Answer")))
	cfgFile := writeFile(t, dir, "contractkit.toml", fmt.Sprintf("BuildDirectory = %q\n", build))

	// A bare flag checks against the EIP-170 limit.
	out, err := runApp(t, "--config", cfgFile, "run", "contract-size", "--checkMaxSize")
	require.NoError(t, err)
	assert.Contains(t, out, "Answer")

	huge := answerArtifact("Huge")
	huge.DeployedBytecode = "0x" + strings.Repeat("00", params.MaxCodeSize+1)
	require.NoError(t, store.Write(context.Background(), huge))

	out, err = runApp(t, "--config", cfgFile, "run", "contract-size", "--checkMaxSize")
	assert.ErrorIs(t, err, contractsize.ErrContractTooLarge)
	assert.Contains(t, err.Error(), "24 KiB")
	assert.Contains(t, err.Error(), "Huge")
	assert.Contains(t, out, "Answer")

	// Flag state does not leak into the next run.
	_, err = runApp(t, "--config", cfgFile, "run", "contract-size", "Answer")
	assert.NoError(t, err)
}

func TestRunPluginNotEnabled(t *testing.T) {
	dir := t.TempDir()
	cfgFile := writeFile(t, dir, "contractkit.toml", "Plugins = [\"truffle-plugin-verify\"]\n")

	_, err := runApp(t, "--config", cfgFile, "run", "contract-size")
	assert.ErrorIs(t, err, plugins.ErrNotEnabled)
}

const fakeSolcOutput = `{
  "contracts": {
    "contracts/Answer.sol": {
      "Answer": {
        "abi": [],
        "metadata": "{\"compiler\":{\"version\":\"0.8.15+commit.e14f2714\"}}",
        "evm": {
          "bytecode": {"object": "600a600c600039600a6000f3602a60005260206000f3"},
          "deployedBytecode": {"object": "602a60005260206000f3"}
        }
      }
    }
  }
}`

func TestCompileCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake solc needs a POSIX shell")
	}
	dir := t.TempDir()
	writeFile(t, dir, "output.json", fakeSolcOutput)
	solc := writeFile(t, dir, "solc", `#!/bin/sh
if [ "$1" = "--version" ]; then
  printf 'solc, the solidity compiler commandline interface\nVersion: 0.8.15+commit.e14f2714.Linux.g++\n'
  exit 0
fi
cat > /dev/null
cat "$(dirname "$0")/output.json"
`)
	require.NoError(t, os.Chmod(solc, 0o755))
	writeFile(t, dir, "contracts/Answer.sol", "contract Answer {}")
	cfgFile := writeFile(t, dir, "contractkit.toml", fmt.Sprintf(`ContractsDirectory = %q
BuildDirectory = %q

[Compilers.Solc]
Version = "0.8.15"
Path = %q
`, filepath.Join(dir, "contracts"), filepath.Join(dir, "build"), solc))

	out, err := runApp(t, "--config", cfgFile, "compile")
	require.NoError(t, err)
	assert.Contains(t, out, "> Compiled contracts/Answer.sol:Answer")
	assert.Contains(t, out, "v0.8.15+commit.e14f2714")

	a, err := artifacts.NewStore(filepath.Join(dir, "build")).Read("Answer")
	require.NoError(t, err)
	assert.Equal(t, answerRuntime, a.DeployedBytecode)
	assert.Equal(t, "contracts/Answer.sol", a.SourcePath)
	assert.Equal(t, "0.8.15+commit.e14f2714", a.Compiler.Version)

	// A pinned version the binary does not satisfy is refused.
	writeFile(t, dir, "contractkit.toml", fmt.Sprintf(`[Compilers.Solc]
Version = "0.7.6"
Path = %q
`, solc))
	_, err = runApp(t, "--config", cfgFile, "compile")
	assert.Error(t, err)
}
