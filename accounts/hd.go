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
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
)

// 分层确定性钱包 ：
// 分层确定性钱包（HD Wallet）通过种子生成多个私钥，助记词（BIP-39）只需备份一次即可恢复全部账户。
// 派生路径标准化 ：
// BIP-32 和 BIP-44 提供了标准化的派生路径格式，m/44'/60'/0'/0/i 是以太坊钱包（MetaMask、Truffle、Hardhat）通用的账户路径。

// HardenedOffset is added to a path component to request hardened derivation.
const HardenedOffset = 0x80000000

// DefaultRootDerivationPath is the root path to which account indexes are
// appended. As such, the first account will be at m/44'/60'/0'/0/0, the second
// at m/44'/60'/0'/0/1, etc.
// DefaultRootDerivationPath 是账户索引附加到的根路径。
var DefaultRootDerivationPath = DerivationPath{HardenedOffset + 44, HardenedOffset + 60, HardenedOffset + 0, 0}

// DerivationPath represents the computer friendly version of a hierarchical
// deterministic wallet account derivation path.
//
// The BIP-32 spec https://github.com/bitcoin/bips/blob/master/bip-0032.mediawiki
// defines derivation paths to be of the form:
//
//	m / purpose' / coin_type' / account' / change / address_index
//
// BIP-44 assigns purpose 44' and SLIP-44 assigns coin_type 60' to Ethereum.
// DerivationPath 表示分层确定性钱包账户派生路径的计算机友好版本。
type DerivationPath []uint32

// ParseDerivationPath converts a user specified derivation path string to the
// internal binary representation.
//
// Full derivation paths need to start with the `m/` prefix, relative derivation
// paths (which will get appended to the default root path) must not have prefixes
// in front of the first element. Whitespace is ignored. A single trailing slash
// is tolerated, so "m/44'/60'/0'/0/" parses like "m/44'/60'/0'/0".
// ParseDerivationPath 将用户指定的派生路径字符串转换为内部二进制表示形式。
func ParseDerivationPath(path string) (DerivationPath, error) {
	var result DerivationPath

	path = strings.TrimSpace(path)
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	// Handle absolute or relative paths
	components := strings.Split(path, "/")
	switch {
	case path == "":
		return nil, errors.New("empty derivation path")

	case strings.TrimSpace(components[0]) == "":
		return nil, errors.New("ambiguous path: use 'm/' prefix for absolute paths, or no leading '/' for relative ones")

	case strings.TrimSpace(components[0]) == "m":
		components = components[1:]

	default:
		result = append(result, DefaultRootDerivationPath...)
	}
	// All remaining components are relative, append one by one
	if len(components) == 0 {
		return nil, errors.New("empty derivation path") // Empty relative paths
	}
	for _, component := range components {
		// Ignore any user added whitespace
		component = strings.TrimSpace(component)
		var value uint32

		// Handle hardened paths
		if strings.HasSuffix(component, "'") {
			value = HardenedOffset
			component = strings.TrimSpace(strings.TrimSuffix(component, "'"))
		}
		// Handle the non hardened component
		bigval, ok := new(big.Int).SetString(component, 0)
		if !ok {
			return nil, fmt.Errorf("invalid component: %s", component)
		}
		max := math.MaxUint32 - value
		if bigval.Sign() < 0 || bigval.Cmp(big.NewInt(int64(max))) > 0 {
			if value == 0 {
				return nil, fmt.Errorf("component %v out of allowed range [0, %d]", bigval, max)
			}
			return nil, fmt.Errorf("component %v out of allowed hardened range [0, %d]", bigval, max)
		}
		value += uint32(bigval.Uint64())

		// Append and repeat
		result = append(result, value)
	}
	return result, nil
}

// String implements the stringer interface, converting a binary derivation path
// to its canonical representation.
// String 实现了 stringer 接口，将二进制派生路径转换为其规范表示形式。
func (path DerivationPath) String() string {
	result := "m"
	for _, component := range path {
		var hardened bool
		if component >= HardenedOffset {
			component -= HardenedOffset
			hardened = true
		}
		result = fmt.Sprintf("%s/%d", result, component)
		if hardened {
			result += "'"
		}
	}
	return result
}

// Child returns a copy of the path with index appended.
func (path DerivationPath) Child(index uint32) DerivationPath {
	child := make(DerivationPath, len(path), len(path)+1)
	copy(child, path)
	return append(child, index)
}

// MarshalJSON turns a derivation path into its json-serialized string
func (path DerivationPath) MarshalJSON() ([]byte, error) {
	return json.Marshal(path.String())
}

// UnmarshalJSON a json-serialized string back into a derivation path
func (path *DerivationPath) UnmarshalJSON(b []byte) error {
	var dp string
	var err error
	if err = json.Unmarshal(b, &dp); err != nil {
		return err
	}
	*path, err = ParseDerivationPath(dp)
	return err
}

// MarshalText implements encoding.TextMarshaler so paths can live in TOML.
func (path DerivationPath) MarshalText() ([]byte, error) {
	return []byte(path.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (path *DerivationPath) UnmarshalText(b []byte) error {
	p, err := ParseDerivationPath(string(b))
	if err != nil {
		return err
	}
	*path = p
	return nil
}

// DefaultIterator creates a BIP-32 path iterator, which progresses by increasing the last component:
// i.e. m/44'/60'/0'/0/0, m/44'/60'/0'/0/1, m/44'/60'/0'/0/2, ... m/44'/60'/0'/0/N.
// DefaultIterator 创建一个 BIP-32 路径迭代器，通过递增最后一个组件来推进。
func DefaultIterator(base DerivationPath) func() DerivationPath {
	path := make(DerivationPath, len(base))
	copy(path[:], base[:])
	// Set it back by one, so the first call gives the first result
	path[len(path)-1]--
	return func() DerivationPath {
		path[len(path)-1]++
		return path
	}
}

// DeriveKey walks path from the master node of seed and returns the private
// key at its end. An index that lands on an invalid key fails with
// ErrInvalidChild; BIP-32 leaves it to the caller to skip to the next one.
// DeriveKey 从种子的主节点沿路径派生，返回路径末端的私钥。
func DeriveKey(seed []byte, path DerivationPath) (*ecdsa.PrivateKey, error) {
	if len(seed) < 16 || len(seed) > 64 {
		return nil, ErrInvalidSeedLen
	}
	node, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnusableSeed, err)
	}
	for _, index := range path {
		if node, err = node.NewChildKey(index); err != nil {
			return nil, fmt.Errorf("%w: index %d: %v", ErrInvalidChild, index, err)
		}
	}
	return crypto.ToECDSA(node.Key)
}
