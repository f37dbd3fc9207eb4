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

package accounts

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnknownAccount is returned for any requested operation for which no backend
// provides the specified account.
// ErrUnknownAccount 在没有任何后端提供指定账户的情况下返回。
var ErrUnknownAccount = errors.New("unknown account")

// ErrInvalidSeedLen is returned when a seed is outside the 128-512 bit range
// BIP-32 allows.
var ErrInvalidSeedLen = errors.New("seed length must be between 128 and 512 bits")

// ErrUnusableSeed is returned when a seed maps to an invalid master key. The
// probability is below 1 in 2^127.
var ErrUnusableSeed = errors.New("unusable seed")

// ErrInvalidChild is returned when a derivation step lands on an invalid key.
var ErrInvalidChild = errors.New("invalid child key")

// ErrMissingMnemonic is returned when a wallet is requested without a seed phrase.
// ErrMissingMnemonic 在未提供助记词的情况下请求钱包时返回。
var ErrMissingMnemonic = errors.New("mnemonic is empty")

// ErrInvalidMnemonic is returned when a seed phrase fails BIP-39 validation.
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// UnknownAccountError carries the address a signing request was made for.
type UnknownAccountError struct {
	Address common.Address
}

// Error implements the standard error interface.
func (err *UnknownAccountError) Error() string {
	return fmt.Sprintf("unknown account %s", err.Address.Hex())
}

// Unwrap lets errors.Is match ErrUnknownAccount.
func (err *UnknownAccountError) Unwrap() error {
	return ErrUnknownAccount
}
