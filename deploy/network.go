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
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/log"
	"github.com/sunyihoo/contractkit/config"
	"github.com/sunyihoo/contractkit/provider"
)

// networkIDReader is implemented by backends that expose net_version.
type networkIDReader interface {
	NetworkID(ctx context.Context) (*big.Int, error)
}

// CheckNetwork reads the network id of backend within the network's check
// timeout and verifies it against the descriptor. It returns the id the node
// reported.
// 在 networkCheckTimeout 内读取节点的网络 ID；"*" 接受任意网络。
func CheckNetwork(ctx context.Context, backend provider.Backend, network config.NetworkConfig) (uint64, error) {
	timeout := network.CheckTimeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	id, err := ReadNetworkID(ctx, backend)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("network %q: no response within %v: %w", network.Name, timeout, err)
		}
		return 0, fmt.Errorf("network %q: %w", network.Name, err)
	}
	if !network.NetworkID.Matches(id) {
		return id, &NetworkMismatchError{Network: network.Name, Want: network.NetworkID, Got: id}
	}
	log.Debug("Network check passed", "network", network.Name, "id", id)
	return id, nil
}

// ReadNetworkID returns the net_version of backend, or its chain id when the
// backend has no network id. Artifacts record deployments under this id.
func ReadNetworkID(ctx context.Context, backend provider.Backend) (uint64, error) {
	if r, ok := backend.(networkIDReader); ok {
		id, err := r.NetworkID(ctx)
		if err == nil {
			return id.Uint64(), nil
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		log.Debug("net_version failed, falling back to chain id", "err", err)
	}
	id, err := backend.ChainID(ctx)
	if err != nil {
		return 0, err
	}
	return id.Uint64(), nil
}
