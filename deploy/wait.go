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
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/sunyihoo/contractkit/provider"
)

// WaitForReceipt polls for the receipt of hash. It gives up with
// ErrTimeoutBlocks once timeoutBlocks blocks were produced since the call
// started without the transaction being mined. A failed receipt is returned
// together with ErrDeployReverted.
func WaitForReceipt(ctx context.Context, backend provider.Backend, hash common.Hash, timeoutBlocks uint64, poll time.Duration) (*types.Receipt, error) {
	start, err := backend.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("block number: %w", err)
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	logger := log.New("hash", hash)
	for {
		receipt, err := backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, fmt.Errorf("%w: tx %s", ErrDeployReverted, hash.Hex())
			}
			return receipt, nil
		}
		// If the transaction is not found, it means it's not mined yet.
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			logger.Trace("Receipt retrieval failed", "err", err)
		} else {
			logger.Trace("Transaction not yet mined")
		}
		if timeoutBlocks > 0 {
			head, err := backend.BlockNumber(ctx)
			if err == nil && head >= start+timeoutBlocks {
				return nil, fmt.Errorf("%w: %d blocks since %d", ErrTimeoutBlocks, head-start, start)
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
