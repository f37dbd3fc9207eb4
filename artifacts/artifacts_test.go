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

package artifacts

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/contractkit/common/compiler"
)

const storeABI = `[{"inputs":[{"internalType":"uint256","name":"v","type":"uint256"}],"stateMutability":"nonpayable","type":"constructor"},{"inputs":[],"name":"get","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`

func testContract() *compiler.Contract {
	return &compiler.Contract{
		Code:        "0x6080604052",
		RuntimeCode: "0x60806040",
		Info: compiler.ContractInfo{
			Source:          "contract Store {}",
			CompilerVersion: "v0.8.15+commit.e14f2714",
			SrcMap:          "1:2:3",
			SrcMapRuntime:   "4:5:6",
			AbiDefinition:   json.RawMessage(storeABI),
			Metadata:        "{}",
		},
	}
}

func TestFromContract(t *testing.T) {
	a, err := FromContract("contracts/Store.sol:Store", testContract())
	require.NoError(t, err)
	assert.Equal(t, "Store", a.ContractName)
	assert.Equal(t, "contracts/Store.sol", a.SourcePath)
	assert.Equal(t, Compiler{Name: "solc", Version: "0.8.15+commit.e14f2714"}, a.Compiler)
	assert.Equal(t, "1:2:3", a.SourceMap)
	assert.JSONEq(t, storeABI, string(a.ABI))

	parsed, err := a.ParsedABI()
	require.NoError(t, err)
	assert.Len(t, parsed.Constructor.Inputs, 1)
	assert.Contains(t, parsed.Methods, "get")

	code, err := a.CreationCode()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x80, 0x60, 0x40, 0x52}, code)
}

func TestCreationCodeErrors(t *testing.T) {
	_, err := (&Artifact{Bytecode: "0x"}).CreationCode()
	assert.ErrorIs(t, err, ErrNoBytecode)
	_, err = (&Artifact{Bytecode: "0x6080__$abc$__"}).CreationCode()
	assert.Error(t, err)
	code, err := (&Artifact{DeployedBytecode: "6001"}).RuntimeCode()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x01}, code)
}

func TestStoreWriteRead(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "build", "contracts"))
	fixed := time.Date(2022, 7, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	names, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	store, err := FromContract("contracts/Store.sol:Store", testContract())
	require.NoError(t, err)
	token, err := FromContract("contracts/Token.sol:Token", testContract())
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, token, store))

	names, err = s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"Store", "Token"}, names)

	got, err := s.Read("Store")
	require.NoError(t, err)
	assert.Equal(t, fixed, got.UpdatedAt)
	assert.Equal(t, store.Bytecode, got.Bytecode)

	_, err = s.Read("Missing")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Token", all[1].ContractName)
}

func TestStoreKeepsDeployments(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()

	a, _ := FromContract("contracts/Store.sol:Store", testContract())
	require.NoError(t, s.Write(ctx, a))

	dep := NetworkDeployment{Address: common.HexToAddress("0x01"), TransactionHash: common.HexToHash("0x02")}
	require.NoError(t, s.Update(ctx, "Store", func(a *Artifact) error {
		a.SetDeployment(3, dep)
		return nil
	}))

	// Recompiling identical bytecode keeps the recorded address.
	again, _ := FromContract("contracts/Store.sol:Store", testContract())
	require.NoError(t, s.Write(ctx, again))
	got, err := s.Read("Store")
	require.NoError(t, err)
	d, ok := got.Deployment(3)
	require.True(t, ok)
	assert.Equal(t, dep, d)

	// Changed bytecode drops it.
	changed := testContract()
	changed.Code = "0x6001"
	fresh, _ := FromContract("contracts/Store.sol:Store", changed)
	require.NoError(t, s.Write(ctx, fresh))
	got, err = s.Read("Store")
	require.NoError(t, err)
	_, ok = got.Deployment(3)
	assert.False(t, ok)
}

func TestStoreLocked(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	other := flock.New(filepath.Join(dir, "LOCK"))
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer other.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	a, _ := FromContract("contracts/Store.sol:Store", testContract())
	assert.ErrorIs(t, s.Write(ctx, a), ErrLocked)
}
