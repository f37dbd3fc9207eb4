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

package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/contractkit/artifacts"
	"github.com/sunyihoo/contractkit/config"
	"github.com/sunyihoo/contractkit/params"
	"github.com/sunyihoo/contractkit/plugins"
	"github.com/sunyihoo/contractkit/provider"
)

const (
	ropstenAPI   = "https://api-ropsten.etherscan.io/api"
	creationCode = "0x600a600c600039600a6000f3602a60005260206000f3"
	ctorArgs     = "000000000000000000000000000000000000000000000000000000000000002a"
	testMetadata = `{"compiler":{"version":"0.8.15+commit.e14f2714"},"language":"Solidity","settings":{"compilationTarget":{"contracts/Answer.sol":"Answer"},"evmVersion":"london","libraries":{},"optimizer":{"enabled":true,"runs":200},"remappings":[]},"sources":{"contracts/Answer.sol":{"keccak256":"0x01"},"contracts/Base.sol":{"keccak256":"0x02"}}}`
)

var (
	testAddress = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	testTxHash  = common.HexToHash("0x1234")
)

type stubBackend struct {
	provider.Backend
	chainID uint64
	tx      *types.Transaction
}

func (b *stubBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).SetUint64(b.chainID), nil
}

func (b *stubBackend) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	return b.tx, false, nil
}

type stubProvider struct {
	provider.Provider
	backend *stubBackend
}

func (p *stubProvider) Backend(ctx context.Context) (provider.Backend, error) { return p.backend, nil }
func (p *stubProvider) Close() {}

type testFlags map[string]string

func (f testFlags) Bool(name string) bool { return false }
func (f testFlags) Int(name string) int { return 0 }
func (f testFlags) String(name string) string { return f[name] }
func (f testFlags) StringSlice(name string) []string { return nil }
func (f testFlags) IsSet(name string) bool {
	_, ok := f[name]
	return ok
}

func testArtifact() *artifacts.Artifact {
	a := &artifacts.Artifact{
		ContractName: "Answer",
		SourcePath:   "contracts/Answer.sol",
		Source:       "contract Answer is Base {}",
		Bytecode:     creationCode,
		Metadata:     testMetadata,
		Compiler:     artifacts.Compiler{Name: "solc", Version: "0.8.15+commit.e14f2714"},
	}
	a.SetDeployment(params.RopstenNetworkID, artifacts.NetworkDeployment{Address: testAddress, TransactionHash: testTxHash})
	return a
}

func newTestEnv(t *testing.T, chainID uint64, apiKey string) (*plugins.Env, *bytes.Buffer) {
	t.Helper()
	store := artifacts.NewStore(t.TempDir())
	base := &artifacts.Artifact{ContractName: "Base", SourcePath: "contracts/Base.sol", Source: "contract Base {}", Bytecode: "0x00"}
	require.NoError(t, store.Write(context.Background(), testArtifact(), base))

	data := append(common.FromHex(creationCode), common.FromHex(ctorArgs)...)
	backend := &stubBackend{chainID: chainID, tx: types.NewTx(&types.LegacyTx{Data: data})}

	out := new(bytes.Buffer)
	return &plugins.Env{
		Config:    config.Defaults(config.MapLookup(map[string]string{config.EnvEtherscanAPIKey: apiKey})),
		Artifacts: store,
		Out:       out,
		Provider: func() (provider.Provider, error) {
			return &stubProvider{backend: backend}, nil
		},
	}, out
}

func newTestPlugin(mock *httpmock.MockTransport) *Plugin {
	return &Plugin{
		SourceRoot: ".",
		ClientConfig: ClientConfig{
			RequestsPerSecond: 1000,
			RetryWait:         time.Millisecond,
			PollInterval:      time.Millisecond,
			Transport:         mock,
		},
	}
}

func jsonResponder(body string) httpmock.Responder {
	return httpmock.NewStringResponder(http.StatusOK, body)
}

func TestVerify(t *testing.T) {
	mock := httpmock.NewMockTransport()
	var (
		mu        sync.Mutex
		submitted map[string][]string
	)
	mock.RegisterResponder(http.MethodPost, ropstenAPI, func(req *http.Request) (*http.Response, error) {
		if err := req.ParseForm(); err != nil {
			return nil, err
		}
		mu.Lock()
		submitted = req.PostForm
		mu.Unlock()
		return httpmock.NewStringResponse(http.StatusOK, `{"status":"1","message":"OK","result":"guid-1"}`), nil
	})
	polls := 0
	mock.RegisterResponder(http.MethodGet, ropstenAPI, func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		polls++
		n := polls
		mu.Unlock()
		if n <= 2 {
			return httpmock.NewStringResponse(http.StatusOK, `{"status":"0","message":"NOTOK","result":"Pending in queue"}`), nil
		}
		return httpmock.NewStringResponse(http.StatusOK, `{"status":"1","message":"OK","result":"Pass - Verified"}`), nil
	})

	env, out := newTestEnv(t, params.RopstenNetworkID, "KEY")
	err := newTestPlugin(mock).Run(context.Background(), env, testFlags{}, []string{"Answer"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Pass - Verified: Answer")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "KEY", submitted["apikey"][0])
	assert.Equal(t, "verifysourcecode", submitted["action"][0])
	assert.Equal(t, testAddress.Hex(), submitted["contractaddress"][0])
	assert.Equal(t, "contracts/Answer.sol:Answer", submitted["contractname"][0])
	assert.Equal(t, "v0.8.15+commit.e14f2714", submitted["compilerversion"][0])
	assert.Equal(t, "solidity-standard-json-input", submitted["codeformat"][0])
	assert.Equal(t, ctorArgs, submitted["constructorArguements"][0])

	var input struct {
		Language string                       `json:"language"`
		Sources  map[string]map[string]string `json:"sources"`
		Settings map[string]json.RawMessage   `json:"settings"`
	}
	require.NoError(t, json.Unmarshal([]byte(submitted["sourceCode"][0]), &input))
	assert.Equal(t, "Solidity", input.Language)
	assert.Equal(t, "contract Base {}", input.Sources["contracts/Base.sol"]["content"])
	assert.Equal(t, "contract Answer is Base {}", input.Sources["contracts/Answer.sol"]["content"])
	assert.NotContains(t, input.Settings, "compilationTarget")
	assert.JSONEq(t, `{"enabled":true,"runs":200}`, string(input.Settings["optimizer"]))

	info := mock.GetCallCountInfo()
	assert.Equal(t, 1, info["POST "+ropstenAPI])
	assert.Equal(t, 3, info["GET "+ropstenAPI])
	assert.Equal(t, 3, polls)
}

func TestVerifyAlreadyVerified(t *testing.T) {
	mock := httpmock.NewMockTransport()
	mock.RegisterResponder(http.MethodPost, ropstenAPI,
		jsonResponder(`{"status":"0","message":"NOTOK","result":"Contract source code already verified"}`))

	env, _ := newTestEnv(t, params.RopstenNetworkID, "KEY")
	require.NoError(t, newTestPlugin(mock).Run(context.Background(), env, testFlags{}, []string{"Answer"}))
	assert.Equal(t, 1, mock.GetTotalCallCount())
}

func TestVerifyRejected(t *testing.T) {
	mock := httpmock.NewMockTransport()
	mock.RegisterResponder(http.MethodPost, ropstenAPI, jsonResponder(`{"status":"1","message":"OK","result":"guid-2"}`))
	mock.RegisterResponder(http.MethodGet, ropstenAPI,
		jsonResponder(`{"status":"0","message":"NOTOK","result":"Fail - Unable to verify"}`))

	env, out := newTestEnv(t, params.RopstenNetworkID, "KEY")
	err := newTestPlugin(mock).Run(context.Background(), env, testFlags{}, []string{"Answer"})
	assert.ErrorIs(t, err, ErrVerificationFailed)
	assert.Contains(t, out.String(), "Fail - Unable to verify")
}

func TestVerifyRetriesServerErrors(t *testing.T) {
	mock := httpmock.NewMockTransport()
	mock.RegisterResponder(http.MethodPost, ropstenAPI,
		httpmock.NewStringResponder(http.StatusBadGateway, "bad gateway").Once().
			Then(jsonResponder(`{"status":"0","message":"NOTOK","result":"Contract source code already verified"}`)))

	env, _ := newTestEnv(t, params.RopstenNetworkID, "KEY")
	require.NoError(t, newTestPlugin(mock).Run(context.Background(), env, testFlags{}, []string{"Answer"}))
	assert.Equal(t, 2, mock.GetTotalCallCount())
}

func TestVerifyForcedArgsAndAddress(t *testing.T) {
	mock := httpmock.NewMockTransport()
	var got map[string][]string
	mock.RegisterResponder(http.MethodPost, "https://explorer.example/api", func(req *http.Request) (*http.Response, error) {
		require.NoError(t, req.ParseForm())
		got = req.PostForm
		return httpmock.NewStringResponse(http.StatusOK, `{"status":"0","message":"NOTOK","result":"Contract source code already verified"}`), nil
	})

	env, _ := newTestEnv(t, params.DevChainID, "KEY")
	flags := testFlags{"forceConstructorArgs": "0xabcd", "apiUrl": "https://explorer.example/api"}
	other := "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	require.NoError(t, newTestPlugin(mock).Run(context.Background(), env, flags, []string{"Answer@" + other}))
	assert.Equal(t, "abcd", got["constructorArguements"][0])
	assert.Equal(t, common.HexToAddress(other).Hex(), got["contractaddress"][0])
}

// ganacheBackend reports a network id that differs from its chain id.
type ganacheBackend struct {
	*stubBackend
	networkID uint64
}

func (b *ganacheBackend) NetworkID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).SetUint64(b.networkID), nil
}

func TestVerifyUsesNetworkID(t *testing.T) {
	mock := httpmock.NewMockTransport()
	var got map[string][]string
	mock.RegisterResponder(http.MethodPost, "https://explorer.example/api", func(req *http.Request) (*http.Response, error) {
		require.NoError(t, req.ParseForm())
		got = req.PostForm
		return httpmock.NewStringResponse(http.StatusOK, `{"status":"0","message":"NOTOK","result":"Contract source code already verified"}`), nil
	})

	env, _ := newTestEnv(t, params.DevChainID, "KEY")
	prov, err := env.Provider()
	require.NoError(t, err)
	backend := &ganacheBackend{stubBackend: prov.(*stubProvider).backend, networkID: params.GanacheNetworkID}
	env.Provider = func() (provider.Provider, error) {
		return &ganacheProvider{backend: backend}, nil
	}
	migrated := common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0")
	err = env.Artifacts.Update(context.Background(), "Answer", func(a *artifacts.Artifact) error {
		a.SetDeployment(params.GanacheNetworkID, artifacts.NetworkDeployment{Address: migrated, TransactionHash: testTxHash})
		return nil
	})
	require.NoError(t, err)

	flags := testFlags{"apiUrl": "https://explorer.example/api"}
	require.NoError(t, newTestPlugin(mock).Run(context.Background(), env, flags, []string{"Answer"}))
	assert.Equal(t, migrated.Hex(), got["contractaddress"][0])
	assert.Equal(t, ctorArgs, got["constructorArguements"][0])
}

type ganacheProvider struct {
	provider.Provider
	backend *ganacheBackend
}

func (p *ganacheProvider) Backend(ctx context.Context) (provider.Backend, error) { return p.backend, nil }
func (p *ganacheProvider) Close() {}

func TestVerifyErrors(t *testing.T) {
	mock := httpmock.NewMockTransport()
	p := newTestPlugin(mock)
	ctx := context.Background()

	env, _ := newTestEnv(t, params.RopstenNetworkID, "")
	assert.ErrorIs(t, p.Run(ctx, env, testFlags{}, []string{"Answer"}), ErrMissingAPIKey)

	env, _ = newTestEnv(t, params.DevChainID, "KEY")
	assert.ErrorIs(t, p.Run(ctx, env, testFlags{}, []string{"Answer"}), ErrUnsupportedChain)

	env, out := newTestEnv(t, params.RopstenNetworkID, "KEY")
	assert.ErrorIs(t, p.Run(ctx, env, testFlags{}, []string{"Base"}), ErrVerificationFailed)
	assert.Contains(t, out.String(), ErrNotDeployed.Error())

	assert.Error(t, p.Run(ctx, env, testFlags{}, nil))
	assert.Zero(t, mock.GetTotalCallCount())
}

func TestStandardInputMissingSource(t *testing.T) {
	a := testArtifact()
	_, _, err := StandardInput(a, func(path string) (string, error) {
		if path == "contracts/Answer.sol" {
			return "contract Answer {}", nil
		}
		return "", ErrMissingSource
	})
	assert.ErrorIs(t, err, ErrMissingSource)

	a.Metadata = ""
	_, _, err = StandardInput(a, nil)
	assert.Error(t, err)
}
