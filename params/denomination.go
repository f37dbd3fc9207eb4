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

package params

import (
	"math/big"

	"github.com/holiman/uint256"
)

// These are the multipliers for ether denominations.
// Example: To get the wei value of an amount in 'gwei', use
//
//	new(big.Int).Mul(value, big.NewInt(params.GWei))
//
// 这些是以太币单位的乘数。
const (
	Wei   = 1    // Wei 是以太坊的最小单位，值为 1
	GWei  = 1e9  // GWei 是 10亿 Wei
	Ether = 1e18 // Ether 是 10^18 Wei
)

// FormatEther renders a wei amount as a decimal ether string with up to 18
// fractional digits, trailing zeros trimmed.
// FormatEther 将 wei 数量格式化为以太币的十进制字符串。
func FormatEther(wei *uint256.Int) string {
	if wei == nil {
		return "0"
	}
	r := new(big.Rat).SetFrac(wei.ToBig(), big.NewInt(Ether))
	s := r.FloatString(18)
	for len(s) > 1 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}

// FormatGwei renders a wei amount in gwei with up to 9 fractional digits.
func FormatGwei(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	r := new(big.Rat).SetFrac(wei, big.NewInt(GWei))
	s := r.FloatString(9)
	for len(s) > 1 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
