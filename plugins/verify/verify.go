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

// Package verify publishes contract sources to Etherscan compatible block
// explorers so the deployed bytecode can be matched against them.
//
// 流程：从产物 metadata 重建 standard-json 输入 -> 从部署交易中截取构造参数
// -> 调用 verifysourcecode 提交 -> 轮询 checkverifystatus 直到通过或失败。
package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/sunyihoo/contractkit/artifacts"
	"github.com/sunyihoo/contractkit/config"
	"github.com/sunyihoo/contractkit/deploy"
	"github.com/sunyihoo/contractkit/params"
	"github.com/sunyihoo/contractkit/plugins"
	"github.com/sunyihoo/contractkit/provider"
	"github.com/urfave/cli/v2"
)

var (
	// ErrMissingAPIKey is returned when verifying without an explorer API key.
	ErrMissingAPIKey = errors.New("etherscan API key is not configured")

	// ErrUnsupportedChain is returned for chains without a known explorer.
	ErrUnsupportedChain = errors.New("no block explorer known for chain")

	// ErrNotDeployed is returned when no address is known for a contract.
	ErrNotDeployed = errors.New("contract has no recorded deployment on this network")

	// ErrMissingSource is returned when a source listed in the metadata is
	// not available.
	ErrMissingSource = errors.New("source file not found")
)

var (
	forceConstructorArgsFlag = &cli.StringFlag{
		Name:  "forceConstructorArgs",
		Usage: "ABI encoded constructor arguments to submit instead of the recorded ones (hex)",
	}
	apiURLFlag = &cli.StringFlag{
		Name:  "apiUrl",
		Usage: "Explorer API endpoint, overrides the one known for the chain",
	}
)

// Plugin implements plugins.Plugin.
type Plugin struct {
	// ClientConfig seeds the explorer client; APIURL and APIKey are filled
	// per run.
	ClientConfig ClientConfig
	// SourceRoot resolves source paths that no artifact carries. It defaults
	// to the parent of the contracts directory.
	SourceRoot string
}

// New returns the plugin with default client settings.
func New() plugins.Plugin { return &Plugin{} }

func (p *Plugin) Name() string    { return config.PluginVerify }
func (p *Plugin) Command() string { return "verify" }
func (p *Plugin) Usage() string   { return "Verify deployed contracts on Etherscan: verify Contract[@address]..." }

func (p *Plugin) Flags() []cli.Flag {
	return []cli.Flag{forceConstructorArgsFlag, apiURLFlag}
}

// Run verifies every contract named in args. An explicit address can be
// given as Name@0x...; otherwise the recorded deployment is used.
func (p *Plugin) Run(ctx context.Context, env *plugins.Env, flags plugins.Flags, args []string) error {
	if len(args) == 0 {
		return errors.New("no contracts given, usage: verify Contract[@address]...")
	}
	apiKey := env.Config.APIKeys.Etherscan
	if apiKey == "" {
		return ErrMissingAPIKey
	}
	if env.Provider == nil {
		return errors.New("verify needs a network")
	}
	prov, err := env.Provider()
	if err != nil {
		return err
	}
	defer prov.Close()
	backend, err := prov.Backend(ctx)
	if err != nil {
		return err
	}
	id, err := backend.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain id: %w", err)
	}
	chainID := id.Uint64()
	networkID, err := deploy.ReadNetworkID(ctx, backend)
	if err != nil {
		return fmt.Errorf("network id: %w", err)
	}

	apiURL := flags.String(apiURLFlag.Name)
	if apiURL == "" {
		explorer, ok := params.EtherscanAPIs[chainID]
		if !ok {
			return fmt.Errorf("%w %d", ErrUnsupportedChain, chainID)
		}
		apiURL = explorer.API
	}
	cfg := p.ClientConfig
	cfg.APIURL, cfg.APIKey = apiURL, apiKey
	client, err := NewClient(cfg)
	if err != nil {
		return err
	}
	all, err := env.Artifacts.ReadAll()
	if err != nil {
		return err
	}
	sources := make(map[string]string, len(all))
	for _, a := range all {
		if a.SourcePath != "" {
			sources[a.SourcePath] = a.Source
		}
	}

	root := p.SourceRoot
	if root == "" {
		root = filepath.Dir(filepath.Clean(env.Config.ContractsDirectory))
	}
	job := &verifier{
		client:    client,
		backend:   backend,
		chainID:   chainID,
		networkID: networkID,
		sources:   sources,
		root:      root,
		artifacts: env.Artifacts,
		forceArgs: flags.String(forceConstructorArgsFlag.Name),
	}
	var failed []string
	for _, arg := range args {
		name, address := splitTarget(arg)
		if err := job.verify(ctx, name, address); err != nil {
			log.Error("Verification failed", "contract", name, "err", err)
			fmt.Fprintf(env.Out, "Failed to verify %s: %v\n", name, err)
			failed = append(failed, name)
			continue
		}
		fmt.Fprintf(env.Out, "Pass - Verified: %s\n", name)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %s", ErrVerificationFailed, strings.Join(failed, ", "))
	}
	return nil
}

func splitTarget(arg string) (string, string) {
	if i := strings.IndexByte(arg, '@'); i >= 0 {
		return arg[:i], arg[i+1:]
	}
	return arg, ""
}

// verifier carries the per-run state shared by all contracts.
type verifier struct {
	client    *Client
	backend   provider.Backend
	chainID   uint64
	networkID uint64
	sources   map[string]string
	root      string
	artifacts *artifacts.Store
	forceArgs string
}

func (v *verifier) verify(ctx context.Context, name, address string) error {
	a, err := v.artifacts.Read(name)
	if err != nil {
		return err
	}
	var (
		addr common.Address
		tx   common.Hash
	)
	if address != "" {
		if !common.IsHexAddress(address) {
			return fmt.Errorf("invalid address %q", address)
		}
		addr = common.HexToAddress(address)
	} else {
		// Migrations record under the network id, which differs from the
		// chain id on Ganache style nodes (5777 vs 1337).
		dep, ok := a.Deployment(v.networkID)
		if !ok {
			dep, ok = a.Deployment(v.chainID)
		}
		if !ok {
			return fmt.Errorf("%w (network %d)", ErrNotDeployed, v.networkID)
		}
		addr, tx = dep.Address, dep.TransactionHash
	}

	input, target, err := StandardInput(a, v.lookupSource)
	if err != nil {
		return err
	}
	args := strings.TrimPrefix(v.forceArgs, "0x")
	if args == "" && tx != (common.Hash{}) {
		if args, err = v.constructorArgs(ctx, a, tx); err != nil {
			return err
		}
	}
	guid, already, err := v.client.Submit(ctx, &Submission{
		Address:         addr,
		ContractName:    target,
		CompilerVersion: "v" + strings.TrimPrefix(a.Compiler.Version, "v"),
		StandardInput:   input,
		ConstructorArgs: args,
	})
	if err != nil {
		return err
	}
	if already {
		log.Info("Contract source code already verified", "contract", name, "address", addr)
		return nil
	}
	log.Info("Submitted contract for verification", "contract", name, "address", addr, "guid", guid)
	return v.client.Wait(ctx, guid)
}

func (v *verifier) lookupSource(path string) (string, error) {
	if src, ok := v.sources[path]; ok {
		return src, nil
	}
	data, err := os.ReadFile(filepath.Join(v.root, filepath.FromSlash(path)))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMissingSource, path)
	}
	return string(data), nil
}

// constructorArgs recovers the ABI encoded constructor arguments from the
// creation transaction: whatever follows the creation bytecode.
func (v *verifier) constructorArgs(ctx context.Context, a *artifacts.Artifact, hash common.Hash) (string, error) {
	tx, _, err := v.backend.TransactionByHash(ctx, hash)
	if err != nil {
		return "", fmt.Errorf("creation transaction %s: %w", hash.Hex(), err)
	}
	code, err := a.CreationCode()
	if err != nil {
		return "", err
	}
	data := tx.Data()
	if !bytes.HasPrefix(data, code) {
		return "", fmt.Errorf("creation transaction %s does not match the artifact bytecode", hash.Hex())
	}
	return strings.TrimPrefix(hexutil.Encode(data[len(code):]), "0x"), nil
}

// metadata is the part of solc's metadata JSON needed to rebuild the input.
type metadata struct {
	Language string                     `json:"language"`
	Settings map[string]json.RawMessage `json:"settings"`
	Sources  map[string]json.RawMessage `json:"sources"`
}

// StandardInput rebuilds the solc standard-json input an artifact was
// compiled from. It returns the encoded input and the "path:Name" target.
func StandardInput(a *artifacts.Artifact, source func(path string) (string, error)) ([]byte, string, error) {
	if a.Metadata == "" {
		return nil, "", fmt.Errorf("%s: artifact has no metadata", a.ContractName)
	}
	var meta metadata
	if err := json.Unmarshal([]byte(a.Metadata), &meta); err != nil {
		return nil, "", fmt.Errorf("%s: metadata: %w", a.ContractName, err)
	}
	target := a.SourcePath + ":" + a.ContractName
	if raw, ok := meta.Settings["compilationTarget"]; ok {
		var ct map[string]string
		if err := json.Unmarshal(raw, &ct); err == nil {
			for path, name := range ct {
				target = path + ":" + name
			}
		}
		delete(meta.Settings, "compilationTarget")
	}
	settings := make(map[string]interface{}, len(meta.Settings)+1)
	for k, v := range meta.Settings {
		settings[k] = v
	}
	settings["outputSelection"] = map[string]map[string][]string{"*": {"*": {"*"}}}

	sources := make(map[string]map[string]string, len(meta.Sources))
	for path := range meta.Sources {
		content, err := source(path)
		if err != nil {
			return nil, "", err
		}
		sources[path] = map[string]string{"content": content}
	}
	language := meta.Language
	if language == "" {
		language = "Solidity"
	}
	out, err := json.Marshal(map[string]interface{}{
		"language": language,
		"sources":  sources,
		"settings": settings,
	})
	return out, target, err
}
