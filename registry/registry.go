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

// Package registry records deployments and migration progress per network
// in a LevelDB database under the data directory.
//
// 类似 Truffle 的 Migrations 合约：记录每个网络上最后完成的迁移步骤，
// 以及每个合约的部署地址、交易哈希与花费，只是存放在本地而不是链上。
package registry

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// ErrNotFound is returned when no deployment is recorded for a contract.
var ErrNotFound = errors.New("deployment not found")

var (
	deploymentPrefix = []byte("d") // deploymentPrefix + network (uint64 big endian) + contract name -> Deployment
	progressPrefix   = []byte("m") // progressPrefix + network (uint64 big endian) -> last completed step (uint64 big endian)
)

// Deployment is a single recorded contract deployment.
type Deployment struct {
	RunID     uuid.UUID      `json:"runId"`
	Network   uint64         `json:"network"`
	Contract  string         `json:"contract"`
	Step      int            `json:"step"`
	Address   common.Address `json:"address"`
	TxHash    common.Hash    `json:"transactionHash"`
	Block     uint64         `json:"block"`
	GasUsed   uint64         `json:"gasUsed"`
	Cost      *hexutil.Big   `json:"cost"`
	Timestamp time.Time      `json:"timestamp"`
}

// CostWei returns the cost as a big integer.
func (d *Deployment) CostWei() *big.Int {
	if d.Cost == nil {
		return new(big.Int)
	}
	return d.Cost.ToInt()
}

// Registry is a LevelDB backed deployment log.
type Registry struct {
	db  *leveldb.DB
	log log.Logger
}

// Open opens or creates the registry at dir, recovering a corrupted
// database if needed.
func Open(dir string) (*Registry, error) {
	options := &opt.Options{
		Filter:                 filter.NewBloomFilter(10),
		DisableSeeksCompaction: true,
	}
	db, err := leveldb.OpenFile(dir, options)
	if _, corrupted := err.(*lerrors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(dir, nil)
	}
	if err != nil {
		return nil, err
	}
	r := &Registry{db: db, log: log.New("registry", dir)}
	r.log.Debug("Opened deployment registry")
	return r, nil
}

// NewMemory returns a registry that lives in memory only.
func NewMemory() *Registry {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		panic(err) // memory storage cannot fail to open
	}
	return &Registry{db: db, log: log.New("registry", "memory")}
}

// Close releases the database.
func (r *Registry) Close() error {
	return r.db.Close()
}

// NewRunID returns an identifier grouping the deployments of one migrate run.
func NewRunID() uuid.UUID {
	return uuid.New()
}

func networkKey(prefix []byte, network uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], network)
	return key
}

func deploymentKey(network uint64, contract string) []byte {
	return append(networkKey(deploymentPrefix, network), contract...)
}

// Put records a deployment, replacing an earlier one of the same contract.
func (r *Registry) Put(d *Deployment) error {
	blob, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return r.db.Put(deploymentKey(d.Network, d.Contract), blob, nil)
}

// Get returns the recorded deployment of contract on network.
func (r *Registry) Get(network uint64, contract string) (*Deployment, error) {
	blob, err := r.db.Get(deploymentKey(network, contract), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d := new(Deployment)
	if err := json.Unmarshal(blob, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Deployments returns every deployment on network, ordered by contract name.
func (r *Registry) Deployments(network uint64) ([]*Deployment, error) {
	it := r.db.NewIterator(util.BytesPrefix(networkKey(deploymentPrefix, network)), nil)
	defer it.Release()

	var out []*Deployment
	for it.Next() {
		d := new(Deployment)
		if err := json.Unmarshal(it.Value(), d); err != nil {
			r.log.Warn("Skipping corrupt deployment record", "key", hexutil.Encode(it.Key()), "err", err)
			continue
		}
		out = append(out, d)
	}
	return out, it.Error()
}

// LastCompleted returns the highest migration step completed on network.
// The boolean is false when no step has completed yet.
func (r *Registry) LastCompleted(network uint64) (int, bool, error) {
	blob, err := r.db.Get(networkKey(progressPrefix, network), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if len(blob) != 8 {
		return 0, false, errors.New("corrupt migration progress record")
	}
	return int(binary.BigEndian.Uint64(blob)), true, nil
}

// SetCompleted records step as the last completed migration on network.
func (r *Registry) SetCompleted(network uint64, step int) error {
	var blob [8]byte
	binary.BigEndian.PutUint64(blob[:], uint64(step))
	return r.db.Put(networkKey(progressPrefix, network), blob[:], nil)
}

// Reset forgets all deployments and progress of network.
func (r *Registry) Reset(network uint64) error {
	batch := new(leveldb.Batch)
	batch.Delete(networkKey(progressPrefix, network))

	it := r.db.NewIterator(util.BytesPrefix(networkKey(deploymentPrefix, network)), nil)
	for it.Next() {
		batch.Delete(append([]byte(nil), it.Key()...))
	}
	it.Release()
	if err := it.Error(); err != nil {
		return err
	}
	r.log.Info("Resetting migration history", "network", network, "records", batch.Len())
	return r.db.Write(batch, nil)
}
