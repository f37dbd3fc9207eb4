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

package flags

import (
	"errors"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/sunyihoo/contractkit/params"
	"github.com/urfave/cli/v2"
)

// PathString is a flag.Value that expands the parsed value to a clean path,
// resolving a leading tilde and embedded environment variables.
type PathString string

func (s *PathString) String() string {
	return string(*s)
}

func (s *PathString) Set(value string) error {
	*s = PathString(expandPath(value))
	return nil
}

var (
	_ cli.Flag              = (*PathFlag)(nil)
	_ cli.RequiredFlag      = (*PathFlag)(nil)
	_ cli.VisibleFlag       = (*PathFlag)(nil)
	_ cli.DocGenerationFlag = (*PathFlag)(nil)
	_ cli.CategorizableFlag = (*PathFlag)(nil)
)

// PathFlag is a cli.Flag for file and directory locations, e.g.
// ~/project/build -> /home/username/project/build.
type PathFlag struct {
	Name string

	Category    string
	DefaultText string
	Usage       string

	Required   bool
	Hidden     bool
	HasBeenSet bool

	Value PathString

	Aliases []string
	EnvVars []string
}

// For cli.Flag:
func (f *PathFlag) Names() []string { return append([]string{f.Name}, f.Aliases...) }
func (f *PathFlag) IsSet() bool     { return f.HasBeenSet }
func (f *PathFlag) String() string  { return cli.FlagStringer(f) }

// Apply picks the value up from the environment, if present, and registers
// the flag for parsing.
func (f *PathFlag) Apply(set *flag.FlagSet) error {
	// Parse into a copy so the declared default survives repeated runs.
	value := f.Value
	for _, envVar := range f.EnvVars {
		envVar = strings.TrimSpace(envVar)
		if env, found := syscall.Getenv(envVar); found {
			value.Set(env)
			f.HasBeenSet = true
			break
		}
	}
	eachName(f, func(name string) {
		set.Var(&value, name, f.Usage)
	})
	return nil
}

func (f *PathFlag) IsRequired() bool    { return f.Required }
func (f *PathFlag) IsVisible() bool     { return !f.Hidden }
func (f *PathFlag) GetCategory() string { return f.Category }

// For cli.DocGenerationFlag:
func (f *PathFlag) TakesValue() bool     { return true }
func (f *PathFlag) GetUsage() string     { return f.Usage }
func (f *PathFlag) GetValue() string     { return f.Value.String() }
func (f *PathFlag) GetEnvVars() []string { return f.EnvVars }
func (f *PathFlag) GetDefaultText() string {
	if f.DefaultText != "" {
		return f.DefaultText
	}
	return f.GetValue()
}

var (
	_ cli.Flag              = (*WeiFlag)(nil)
	_ cli.RequiredFlag      = (*WeiFlag)(nil)
	_ cli.VisibleFlag       = (*WeiFlag)(nil)
	_ cli.DocGenerationFlag = (*WeiFlag)(nil)
	_ cli.CategorizableFlag = (*WeiFlag)(nil)
)

// WeiFlag is a command line flag for an amount of ether. Values are integers
// in decimal or hexadecimal syntax, optionally followed by a unit
// ("wei", "gwei" or "ether"); decimals are allowed with a unit, e.g. "1.5gwei".
// 未带单位时按 wei 解释。
type WeiFlag struct {
	Name string

	Category    string
	DefaultText string
	Usage       string

	Required   bool
	Hidden     bool
	HasBeenSet bool

	Value        *big.Int
	defaultValue *big.Int

	Aliases []string
	EnvVars []string
}

func (f *WeiFlag) Names() []string { return append([]string{f.Name}, f.Aliases...) }
func (f *WeiFlag) IsSet() bool     { return f.HasBeenSet }
func (f *WeiFlag) String() string  { return cli.FlagStringer(f) }

func (f *WeiFlag) Apply(set *flag.FlagSet) error {
	if f.Value != nil {
		f.defaultValue = new(big.Int).Set(f.Value)
	}
	// Parse into a fresh integer so the declared default is never modified.
	value := new(big.Int)
	if f.Value != nil {
		value.Set(f.Value)
	}
	for _, envVar := range f.EnvVars {
		envVar = strings.TrimSpace(envVar)
		if env, found := syscall.Getenv(envVar); found {
			if err := (*weiValue)(value).Set(env); err != nil {
				return fmt.Errorf("could not parse %q from environment variable %q for flag %s: %v", env, envVar, f.Name, err)
			}
			f.HasBeenSet = true
			break
		}
	}
	eachName(f, func(name string) {
		set.Var((*weiValue)(value), name, f.Usage)
	})
	return nil
}

func (f *WeiFlag) IsRequired() bool    { return f.Required }
func (f *WeiFlag) IsVisible() bool     { return !f.Hidden }
func (f *WeiFlag) GetCategory() string { return f.Category }

func (f *WeiFlag) TakesValue() bool     { return true }
func (f *WeiFlag) GetUsage() string     { return f.Usage }
func (f *WeiFlag) GetValue() string     { return (*weiValue)(f.Value).String() }
func (f *WeiFlag) GetEnvVars() []string { return f.EnvVars }
func (f *WeiFlag) GetDefaultText() string {
	if f.DefaultText != "" {
		return f.DefaultText
	}
	if f.defaultValue == nil {
		return ""
	}
	return f.defaultValue.String()
}

// weiValue turns *big.Int into a flag.Value.
type weiValue big.Int

func (b *weiValue) String() string {
	if b == nil {
		return ""
	}
	return (*big.Int)(b).String()
}

func (b *weiValue) Set(s string) error {
	v, err := ParseWei(s)
	if err != nil {
		return err
	}
	*b = (weiValue)(*v)
	return nil
}

var units = []struct {
	suffix string
	wei    int64
}{
	// 先匹配较长的后缀，"gwei" 也以 "wei" 结尾。
	{"gwei", params.GWei},
	{"ether", params.Ether},
	{"wei", params.Wei},
}

// ParseWei parses an amount of ether into wei.
func ParseWei(s string) (*big.Int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, u := range units {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}
		num := strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
		r, ok := new(big.Rat).SetString(num)
		if !ok || r.Sign() < 0 {
			return nil, fmt.Errorf("invalid amount %q", s)
		}
		r.Mul(r, new(big.Rat).SetInt64(u.wei))
		if !r.IsInt() {
			return nil, fmt.Errorf("amount %q is not a whole number of wei", s)
		}
		return new(big.Int).Set(r.Num()), nil
	}
	v, ok := math.ParseBig256(s)
	if !ok {
		return nil, errors.New("invalid integer syntax")
	}
	return v, nil
}

// GlobalWei returns the value of a WeiFlag, nil when the flag is unknown.
func GlobalWei(ctx *cli.Context, name string) *big.Int {
	val := ctx.Generic(name)
	if val == nil {
		return nil
	}
	return (*big.Int)(val.(*weiValue))
}

// expandPath replaces a leading tilde with the home directory, expands
// environment variables and cleans the result. ~someuser/tmp is not
// expanded.
func expandPath(p string) string {
	// Named pipes are not file paths on windows, ignore
	if strings.HasPrefix(p, `\\.\pipe`) {
		return p
	}
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, "~\\") {
		if home := HomeDir(); home != "" {
			p = home + p[1:]
		}
	}
	return filepath.Clean(os.ExpandEnv(p))
}

func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func eachName(f cli.Flag, fn func(string)) {
	for _, name := range f.Names() {
		name = strings.Trim(name, " ")
		fn(name)
	}
}
