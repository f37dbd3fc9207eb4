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
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ConvertArgs turns textual constructor arguments into the Go values the ABI
// encoder expects. Arrays are written as "[a,b,c]".
// 迁移步骤中的参数以字符串形式给出，这里按 ABI 类型转换为编码器需要的 Go 类型。
func ConvertArgs(inputs abi.Arguments, args []string) ([]interface{}, error) {
	if len(inputs) != len(args) {
		return nil, fmt.Errorf("%w: constructor takes %d arguments, have %d", ErrBadArgument, len(inputs), len(args))
	}
	out := make([]interface{}, len(args))
	for i, input := range inputs {
		v, err := convertArg(input.Type, strings.TrimSpace(args[i]))
		if err != nil {
			name := input.Name
			if name == "" {
				name = strconv.Itoa(i)
			}
			return nil, fmt.Errorf("%w %s (%s): %v", ErrBadArgument, name, input.Type.String(), err)
		}
		out[i] = v.Interface()
	}
	return out, nil
}

func convertArg(typ abi.Type, arg string) (reflect.Value, error) {
	switch typ.T {
	case abi.AddressTy:
		if !common.IsHexAddress(arg) {
			return reflect.Value{}, fmt.Errorf("%q is not an address", arg)
		}
		return reflect.ValueOf(common.HexToAddress(arg)), nil

	case abi.BoolTy:
		b, err := strconv.ParseBool(arg)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b), nil

	case abi.StringTy:
		return reflect.ValueOf(arg), nil

	case abi.IntTy, abi.UintTy:
		return convertInt(typ, arg)

	case abi.BytesTy:
		b, err := hexutil.Decode(arg)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b), nil

	case abi.FixedBytesTy:
		b, err := hexutil.Decode(arg)
		if err != nil {
			return reflect.Value{}, err
		}
		if len(b) != typ.Size {
			return reflect.Value{}, fmt.Errorf("want %d bytes, have %d", typ.Size, len(b))
		}
		v := reflect.New(typ.GetType()).Elem()
		reflect.Copy(v, reflect.ValueOf(b))
		return v, nil

	case abi.SliceTy, abi.ArrayTy:
		elems := splitArray(arg)
		if typ.T == abi.ArrayTy && len(elems) != typ.Size {
			return reflect.Value{}, fmt.Errorf("want %d elements, have %d", typ.Size, len(elems))
		}
		var v reflect.Value
		if typ.T == abi.SliceTy {
			v = reflect.MakeSlice(typ.GetType(), len(elems), len(elems))
		} else {
			v = reflect.New(typ.GetType()).Elem()
		}
		for i, e := range elems {
			ev, err := convertArg(*typ.Elem, e)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %v", i, err)
			}
			v.Index(i).Set(ev)
		}
		return v, nil
	}
	return reflect.Value{}, fmt.Errorf("unsupported type %s", typ.String())
}

func convertInt(typ abi.Type, arg string) (reflect.Value, error) {
	n, ok := new(big.Int).SetString(arg, 0)
	if !ok {
		return reflect.Value{}, fmt.Errorf("%q is not an integer", arg)
	}
	if typ.T == abi.UintTy {
		if n.Sign() < 0 || n.BitLen() > typ.Size {
			return reflect.Value{}, fmt.Errorf("%s out of range", arg)
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(typ.Size-1))
		if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
			return reflect.Value{}, fmt.Errorf("%s out of range", arg)
		}
	}
	rt := typ.GetType()
	switch rt.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := reflect.New(rt).Elem()
		v.SetUint(n.Uint64())
		return v, nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := reflect.New(rt).Elem()
		v.SetInt(n.Int64())
		return v, nil
	}
	return reflect.ValueOf(n), nil
}

// splitArray splits "[a, b]" into its trimmed elements. Nested arrays are not
// supported.
func splitArray(arg string) []string {
	arg = strings.TrimSpace(arg)
	arg = strings.TrimSuffix(strings.TrimPrefix(arg, "["), "]")
	if strings.TrimSpace(arg) == "" {
		return nil
	}
	parts := strings.Split(arg, ",")
	for i := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(parts[i]), `"`)
	}
	return parts
}
