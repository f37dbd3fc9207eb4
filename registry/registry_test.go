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

package registry

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDeployment(network uint64, contract string, step int) *Deployment {
	return &Deployment{
		RunID:     NewRunID(),
		Network:   network,
		Contract:  contract,
		Step:      step,
		Address:   common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		TxHash:    common.HexToHash("0xabcdef"),
		Block:     12,
		GasUsed:   21000,
		Cost:      (*hexutil.Big)(big.NewInt(42000)),
		Timestamp: time.Date(2022, 7, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPutGet(t *testing.T) {
	r := NewMemory()
	defer r.Close()

	d := testDeployment(3, "Token", 1)
	require.NoError(t, r.Put(d))

	got, err := r.Get(3, "Token")
	require.NoError(t, err)
	assert.Equal(t, d.RunID, got.RunID)
	assert.Equal(t, d.Address, got.Address)
	assert.Equal(t, big.NewInt(42000), got.CostWei())
	assert.True(t, d.Timestamp.Equal(got.Timestamp))

	_, err = r.Get(1, "Token")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Get(3, "Tok")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeploymentsPerNetwork(t *testing.T) {
	r := NewMemory()
	defer r.Close()

	require.NoError(t, r.Put(testDeployment(3, "Token", 2)))
	require.NoError(t, r.Put(testDeployment(3, "Crowdsale", 3)))
	require.NoError(t, r.Put(testDeployment(1337, "Token", 1)))

	list, err := r.Deployments(3)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Crowdsale", list[0].Contract)
	assert.Equal(t, "Token", list[1].Contract)

	list, err = r.Deployments(5)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestProgress(t *testing.T) {
	r := NewMemory()
	defer r.Close()

	_, ok, err := r.LastCompleted(3)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.SetCompleted(3, 2))
	step, ok, err := r.LastCompleted(3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, step)

	_, ok, _ = r.LastCompleted(1337)
	assert.False(t, ok)
}

func TestReset(t *testing.T) {
	r := NewMemory()
	defer r.Close()

	require.NoError(t, r.Put(testDeployment(3, "Token", 1)))
	require.NoError(t, r.SetCompleted(3, 1))
	require.NoError(t, r.Put(testDeployment(1337, "Token", 1)))
	require.NoError(t, r.SetCompleted(1337, 1))

	require.NoError(t, r.Reset(3))

	list, err := r.Deployments(3)
	require.NoError(t, err)
	assert.Empty(t, list)
	_, ok, _ := r.LastCompleted(3)
	assert.False(t, ok)

	// Other networks are untouched.
	_, err = r.Get(1337, "Token")
	assert.NoError(t, err)
	_, ok, _ = r.LastCompleted(1337)
	assert.True(t, ok)
}

func TestOpenReopen(t *testing.T) {
	dir := t.TempDir()
	r, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, r.Put(testDeployment(3, "Token", 1)))
	require.NoError(t, r.Close())

	r, err = Open(dir)
	require.NoError(t, err)
	defer r.Close()
	_, err = r.Get(3, "Token")
	assert.NoError(t, err)
}
