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

package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/sunyihoo/contractkit/artifacts"
	"github.com/sunyihoo/contractkit/config"
	"github.com/sunyihoo/contractkit/registry"
)

// Hook inspects an artifact before it is deployed and may veto the
// deployment by returning an error.
type Hook interface {
	BeforeDeploy(ctx context.Context, a *artifacts.Artifact) error
}

// Runner executes migration steps in order against one network, skipping
// the steps already recorded as completed.
type Runner struct {
	Deployer  *Deployer
	Artifacts *artifacts.Store
	Registry  *registry.Registry
	NetworkID uint64 // id the node reported during the network check
	Hooks     []Hook

	now func() time.Time
}

// Result summarises a migrate run.
type Result struct {
	RunID    uuid.UUID
	Deployed []*Deployment
	Skipped  int
}

// Run deploys steps. Steps are numbered from one; with reset the recorded
// progress of the network is discarded first.
// 与 Truffle 的 Migrations 合约一致：只执行编号大于 last_completed_migration 的步骤。
func (r *Runner) Run(ctx context.Context, steps []config.MigrationStep, reset bool) (*Result, error) {
	if reset {
		if err := r.Registry.Reset(r.NetworkID); err != nil {
			return nil, err
		}
	}
	last, done, err := r.Registry.LastCompleted(r.NetworkID)
	if err != nil {
		return nil, err
	}
	now := r.now
	if now == nil {
		now = time.Now
	}
	res := &Result{RunID: registry.NewRunID()}
	logger := log.New("network", r.Deployer.Network.Name, "run", res.RunID)

	for i, step := range steps {
		number := i + 1
		if done && number <= last {
			logger.Debug("Skipping completed migration", "step", number, "contract", step.Contract)
			res.Skipped++
			continue
		}
		a, err := r.Artifacts.Read(step.Contract)
		if err != nil {
			return res, fmt.Errorf("migration %d: %w", number, err)
		}
		for _, hook := range r.Hooks {
			if err := hook.BeforeDeploy(ctx, a); err != nil {
				return res, fmt.Errorf("migration %d: %w", number, err)
			}
		}
		d, err := r.Deployer.Deploy(ctx, a, step.Args)
		if err != nil {
			return res, fmt.Errorf("migration %d: %w", number, err)
		}
		res.Deployed = append(res.Deployed, d)

		record := &registry.Deployment{
			RunID:     res.RunID,
			Network:   r.NetworkID,
			Contract:  d.Contract,
			Step:      number,
			Address:   d.Address,
			TxHash:    d.TxHash,
			Block:     d.Block,
			GasUsed:   d.GasUsed,
			Cost:      (*hexutil.Big)(d.Cost.ToBig()),
			Timestamp: now().UTC(),
		}
		if err := r.Registry.Put(record); err != nil {
			return res, err
		}
		err = r.Artifacts.Update(ctx, step.Contract, func(a *artifacts.Artifact) error {
			a.SetDeployment(r.NetworkID, artifacts.NetworkDeployment{Address: d.Address, TransactionHash: d.TxHash})
			return nil
		})
		if err != nil {
			return res, err
		}
		if err := r.Registry.SetCompleted(r.NetworkID, number); err != nil {
			return res, err
		}
		logger.Info("Migration completed", "step", number, "contract", d.Contract, "address", d.Address)
	}
	return res, nil
}
