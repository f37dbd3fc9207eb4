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

package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/log"
)

// Settings are the compiler options that influence the emitted bytecode.
type Settings struct {
	OptimizerEnabled bool
	OptimizerRuns    int
	EVMVersion       string
}

// StandardInput is the solc --standard-json request document.
type StandardInput struct {
	Language string                    `json:"language"`
	Sources  map[string]StandardSource `json:"sources"`
	Settings StandardSettings          `json:"settings"`
}

// StandardSource is a single source unit given by content.
type StandardSource struct {
	Content string `json:"content"`
}

// StandardSettings is the "settings" object of a standard-JSON request.
type StandardSettings struct {
	Optimizer       StandardOptimizer              `json:"optimizer"`
	EVMVersion      string                         `json:"evmVersion,omitempty"`
	OutputSelection map[string]map[string][]string `json:"outputSelection"`
}

// StandardOptimizer mirrors the optimizer hint.
type StandardOptimizer struct {
	Enabled bool `json:"enabled"`
	Runs    int  `json:"runs"`
}

var outputSelection = []string{
	"abi",
	"metadata",
	"devdoc",
	"userdoc",
	"evm.bytecode.object",
	"evm.bytecode.sourceMap",
	"evm.deployedBytecode.object",
	"evm.deployedBytecode.sourceMap",
	"evm.methodIdentifiers",
}

// NewStandardInput assembles a standard-JSON request for sources, keyed by
// source path.
func NewStandardInput(sources map[string]string, settings Settings) *StandardInput {
	in := &StandardInput{
		Language: "Solidity",
		Sources:  make(map[string]StandardSource, len(sources)),
		Settings: StandardSettings{
			Optimizer: StandardOptimizer{
				Enabled: settings.OptimizerEnabled,
				Runs:    settings.OptimizerRuns,
			},
			EVMVersion: settings.EVMVersion,
			OutputSelection: map[string]map[string][]string{
				"*": {"*": append([]string(nil), outputSelection...)},
			},
		},
	}
	for path, content := range sources {
		in.Sources[path] = StandardSource{Content: content}
	}
	return in
}

// Diagnostic is a single compiler message.
type Diagnostic struct {
	Severity         string `json:"severity"`
	Type             string `json:"type"`
	Component        string `json:"component"`
	Message          string `json:"message"`
	FormattedMessage string `json:"formattedMessage"`
}

func (d Diagnostic) String() string {
	if d.FormattedMessage != "" {
		return strings.TrimSpace(d.FormattedMessage)
	}
	return fmt.Sprintf("%s: %s", d.Type, d.Message)
}

// Errors is returned when solc reports error severity diagnostics.
type Errors []Diagnostic

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, d := range e {
		msgs[i] = d.String()
	}
	return fmt.Sprintf("solc: %d error(s)\n%s", len(e), strings.Join(msgs, "\n"))
}

type standardOutput struct {
	Errors    []Diagnostic                                `json:"errors"`
	Contracts map[string]map[string]standardOutputContract `json:"contracts"`
}

type standardOutputContract struct {
	ABI      json.RawMessage `json:"abi"`
	Metadata string          `json:"metadata"`
	DevDoc   json.RawMessage `json:"devdoc"`
	UserDoc  json.RawMessage `json:"userdoc"`
	EVM      struct {
		Bytecode          standardBytecode  `json:"bytecode"`
		DeployedBytecode  standardBytecode  `json:"deployedBytecode"`
		MethodIdentifiers map[string]string `json:"methodIdentifiers"`
	} `json:"evm"`
}

type standardBytecode struct {
	Object    string `json:"object"`
	SourceMap string `json:"sourceMap"`
}

// CompileStandard runs solc in standard-JSON mode and returns the compiled
// contracts keyed "path:Name". Warnings are logged, errors are returned as
// Errors.
func CompileStandard(ctx context.Context, solc *Solidity, input *StandardInput) (map[string]*Contract, error) {
	request, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, solc.Path, "--standard-json")
	cmd.Stdin = bytes.NewReader(request)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("solc: %v\n%s", err, stderr.Bytes())
	}
	return ParseStandardOutput(stdout.Bytes(), input, solc)
}

// ParseStandardOutput decodes a standard-JSON result document.
func ParseStandardOutput(output []byte, input *StandardInput, solc *Solidity) (map[string]*Contract, error) {
	var out standardOutput
	if err := json.Unmarshal(output, &out); err != nil {
		return nil, fmt.Errorf("solc: invalid standard-json output: %v", err)
	}
	var errs Errors
	for _, d := range out.Errors {
		if d.Severity == "error" {
			errs = append(errs, d)
			continue
		}
		log.Warn("Solidity compiler diagnostic", "type", d.Type, "msg", d.Message)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	options, _ := json.Marshal(input.Settings)

	contracts := make(map[string]*Contract)
	for source, units := range out.Contracts {
		for name, c := range units {
			contracts[source+":"+name] = &Contract{
				Code:        hexPrefix(c.EVM.Bytecode.Object),
				RuntimeCode: hexPrefix(c.EVM.DeployedBytecode.Object),
				Hashes:      c.EVM.MethodIdentifiers,
				Info: ContractInfo{
					Source:          input.Sources[source].Content,
					Language:        input.Language,
					LanguageVersion: solc.Version.String(),
					CompilerVersion: solc.LongVersion(),
					CompilerOptions: string(options),
					SrcMap:          c.EVM.Bytecode.SourceMap,
					SrcMapRuntime:   c.EVM.DeployedBytecode.SourceMap,
					AbiDefinition:   c.ABI,
					UserDoc:         c.UserDoc,
					DeveloperDoc:    c.DevDoc,
					Metadata:        c.Metadata,
				},
			}
		}
	}
	return contracts, nil
}

func hexPrefix(code string) string {
	if code == "" || strings.HasPrefix(code, "0x") {
		return code
	}
	return "0x" + code
}

// CollectSources reads every .sol file below dir. Keys are slash separated
// paths relative to dir's parent, e.g. "contracts/Token.sol".
func CollectSources(dir string) (map[string]string, error) {
	base := filepath.Dir(filepath.Clean(dir))
	sources := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".sol" {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		sources[filepath.ToSlash(rel)] = string(content)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sources, nil
}

// Names returns the sorted keys of a compilation result.
func Names(contracts map[string]*Contract) []string {
	names := make([]string, 0, len(contracts))
	for name := range contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
