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

package plugins_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/contractkit/config"
	"github.com/sunyihoo/contractkit/plugins"
	"github.com/sunyihoo/contractkit/plugins/contractsize"
	"github.com/sunyihoo/contractkit/plugins/verify"
	"github.com/urfave/cli/v2"
)

type nopPlugin struct{ name string }

func (p nopPlugin) Name() string      { return p.name }
func (p nopPlugin) Command() string   { return "nop" }
func (p nopPlugin) Usage() string     { return "" }
func (p nopPlugin) Flags() []cli.Flag { return nil }
func (p nopPlugin) Run(context.Context, *plugins.Env, plugins.Flags, []string) error {
	return nil
}

func newRegistry(t *testing.T) *plugins.Registry {
	t.Helper()
	r := plugins.NewRegistry()
	require.NoError(t, r.Register(verify.New))
	require.NoError(t, r.Register(contractsize.New))
	return r
}

func TestRegistryLoadDefaults(t *testing.T) {
	r := newRegistry(t)
	assert.Equal(t, []string{config.PluginContractSize, config.PluginVerify}, r.Names())

	loaded, err := r.Load(config.DefaultPlugins)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, config.PluginVerify, loaded[0].Name())
	assert.Equal(t, config.PluginContractSize, loaded[1].Name())

	p, err := plugins.Find(loaded, "verify")
	require.NoError(t, err)
	assert.Equal(t, config.PluginVerify, p.Name())

	p, err = plugins.Find(loaded, config.PluginContractSize)
	require.NoError(t, err)
	assert.Equal(t, config.PluginContractSize, p.Name())
}

func TestRegistryErrors(t *testing.T) {
	r := newRegistry(t)

	err := r.Register(verify.New)
	assert.ErrorIs(t, err, plugins.ErrDuplicatePlugin)

	_, err = r.Load([]string{"truffle-plugin-unknown"})
	assert.ErrorIs(t, err, plugins.ErrUnknownPlugin)

	_, err = r.Load([]string{config.PluginVerify, config.PluginVerify})
	assert.ErrorIs(t, err, plugins.ErrDuplicatePlugin)

	loaded, err := r.Load([]string{config.PluginVerify})
	require.NoError(t, err)
	_, err = plugins.Find(loaded, "contract-size")
	assert.ErrorIs(t, err, plugins.ErrNotEnabled)
}

func TestRegistryLoadEmpty(t *testing.T) {
	r := plugins.NewRegistry()
	require.NoError(t, r.Register(func() plugins.Plugin { return nopPlugin{name: "nop"} }))

	loaded, err := r.Load(nil)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	loaded, err = r.Load([]string{"nop"})
	require.NoError(t, err)
	assert.NoError(t, loaded[0].Run(context.Background(), nil, nil, nil))
}
