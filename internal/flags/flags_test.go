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
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestParseWei(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"1000", "1000"},
		{"0x10", "16"},
		{"20gwei", "20000000000"},
		{"1.5 gwei", "1500000000"},
		{"2 GWEI", "2000000000"},
		{"0.1ether", "100000000000000000"},
		{"7wei", "7"},
	}
	for _, tt := range tests {
		v, err := ParseWei(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, v.String(), tt.in)
	}
	for _, in := range []string{"abc", "-1gwei", "0.5wei", "1.2.3gwei"} {
		_, err := ParseWei(in)
		assert.Error(t, err, in)
	}
}

func TestExpandPath(t *testing.T) {
	home := HomeDir()
	t.Setenv("CONTRACTKIT_TEST_DIR", "/tmp/ck")
	assert.Equal(t, filepath.Join(home, "project"), expandPath("~/project"))
	assert.Equal(t, filepath.Clean("/tmp/ck/build"), expandPath("$CONTRACTKIT_TEST_DIR/build"))
	assert.Equal(t, filepath.Clean("/a/c"), expandPath("/a/b/../c"))
}

func TestFlagsInApp(t *testing.T) {
	var (
		dirFlag   = &PathFlag{Name: "datadir", Value: "default"}
		priceFlag = &WeiFlag{Name: "gasprice", Value: big.NewInt(1)}
		gotDir    string
		gotPrice  *big.Int
	)
	app := &cli.App{
		Name:   "test",
		Flags:  []cli.Flag{dirFlag, priceFlag},
		Writer: os.Stderr,
		Action: func(ctx *cli.Context) error {
			gotDir = ctx.String(dirFlag.Name)
			gotPrice = GlobalWei(ctx, priceFlag.Name)
			return nil
		},
	}
	require.NoError(t, app.Run([]string{"test", "--datadir", "/x/y/../z", "--gasprice", "3gwei"}))
	assert.Equal(t, filepath.Clean("/x/z"), gotDir)
	assert.Equal(t, "3000000000", gotPrice.String())
	assert.Equal(t, "1", priceFlag.GetDefaultText())
}
