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

// Package artifacts persists compiled contracts as JSON files in the build
// directory, one file per contract.
//
// 产物格式与 Truffle 的 build/contracts/*.json 兼容，部署信息写入 networks 字段。
package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sunyihoo/contractkit/common/compiler"
)

const schemaVersion = "3.4.16"

var (
	// ErrNotFound is returned when no artifact exists for a contract name.
	ErrNotFound = errors.New("artifact not found")

	// ErrNoBytecode is returned when deploying an abstract contract or interface.
	ErrNoBytecode = errors.New("artifact has no bytecode")
)

// Compiler names the compiler that produced an artifact.
type Compiler struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// NetworkDeployment is the address a contract was deployed at on a network.
type NetworkDeployment struct {
	Address         common.Address `json:"address"`
	TransactionHash common.Hash    `json:"transactionHash"`
}

// Artifact is a compiled contract as stored on disk.
type Artifact struct {
	ContractName      string                       `json:"contractName"`
	ABI               json.RawMessage              `json:"abi"`
	Metadata          string                       `json:"metadata"`
	Bytecode          string                       `json:"bytecode"`
	DeployedBytecode  string                       `json:"deployedBytecode"`
	SourceMap         string                       `json:"sourceMap"`
	DeployedSourceMap string                       `json:"deployedSourceMap"`
	Source            string                       `json:"source"`
	SourcePath        string                       `json:"sourcePath"`
	Compiler          Compiler                     `json:"compiler"`
	Networks          map[string]NetworkDeployment `json:"networks"`
	SchemaVersion     string                       `json:"schemaVersion"`
	UpdatedAt         time.Time                    `json:"updatedAt"`
}

// FromContract converts a compilation result keyed "path:Name".
func FromContract(key string, c *compiler.Contract) (*Artifact, error) {
	source, name := compiler.SplitName(key)
	abiJSON, err := json.Marshal(c.Info.AbiDefinition)
	if err != nil {
		return nil, fmt.Errorf("%s: abi: %w", key, err)
	}
	srcMap, _ := c.Info.SrcMap.(string)
	return &Artifact{
		ContractName:      name,
		ABI:               abiJSON,
		Metadata:          c.Info.Metadata,
		Bytecode:          c.Code,
		DeployedBytecode:  c.RuntimeCode,
		SourceMap:         srcMap,
		DeployedSourceMap: c.Info.SrcMapRuntime,
		Source:            c.Info.Source,
		SourcePath:        source,
		Compiler:          Compiler{Name: "solc", Version: strings.TrimPrefix(c.Info.CompilerVersion, "v")},
		Networks:          make(map[string]NetworkDeployment),
		SchemaVersion:     schemaVersion,
	}, nil
}

// ParsedABI decodes the contract interface.
func (a *Artifact) ParsedABI() (abi.ABI, error) {
	if len(a.ABI) == 0 || string(a.ABI) == "null" {
		return abi.ABI{}, nil
	}
	return abi.JSON(strings.NewReader(string(a.ABI)))
}

// CreationCode returns the decoded constructor bytecode.
func (a *Artifact) CreationCode() ([]byte, error) {
	return decodeCode(a.Bytecode)
}

// RuntimeCode returns the decoded deployed bytecode.
func (a *Artifact) RuntimeCode() ([]byte, error) {
	return decodeCode(a.DeployedBytecode)
}

func decodeCode(code string) ([]byte, error) {
	if code == "" || code == "0x" {
		return nil, ErrNoBytecode
	}
	if !strings.HasPrefix(code, "0x") {
		code = "0x" + code
	}
	if strings.Contains(code, "__") {
		return nil, errors.New("bytecode contains unlinked library placeholders")
	}
	return hexutil.Decode(code)
}

// Deployment returns the recorded deployment on networkID.
func (a *Artifact) Deployment(networkID uint64) (NetworkDeployment, bool) {
	d, ok := a.Networks[strconv.FormatUint(networkID, 10)]
	return d, ok
}

// SetDeployment records a deployment on networkID.
func (a *Artifact) SetDeployment(networkID uint64, d NetworkDeployment) {
	if a.Networks == nil {
		a.Networks = make(map[string]NetworkDeployment)
	}
	a.Networks[strconv.FormatUint(networkID, 10)] = d
}

func fileName(dir, name string) string {
	return filepath.Join(dir, name+".json")
}

func readFile(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	a := new(Artifact)
	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

func sortedNames(entries []os.DirEntry) []string {
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names
}
