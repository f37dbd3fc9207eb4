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
	"errors"
	"fmt"

	"github.com/sunyihoo/contractkit/config"
)

var (
	// ErrTimeoutBlocks is returned when a transaction is not mined within the
	// configured number of blocks.
	ErrTimeoutBlocks = errors.New("transaction was not mined within the block timeout")

	// ErrDeployReverted is returned when a creation transaction fails on chain.
	ErrDeployReverted = errors.New("contract creation reverted")

	// ErrNoCode is returned when no code is found at the created address.
	ErrNoCode = errors.New("no code at contract address")

	// ErrBadArgument is returned when a constructor argument cannot be
	// converted to its ABI type.
	ErrBadArgument = errors.New("invalid constructor argument")
)

// NetworkMismatchError is returned when the node reports a different
// network id than the descriptor requires.
type NetworkMismatchError struct {
	Network string
	Want    config.NetworkID
	Got     uint64
}

func (e *NetworkMismatchError) Error() string {
	return fmt.Sprintf("network %q: node reports network id %d, configuration requires %s", e.Network, e.Got, e.Want)
}
