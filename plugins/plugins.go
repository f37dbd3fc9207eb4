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

// Package plugins hosts the commands a project enables through its plugin
// list, such as contract size reports and source verification.
package plugins

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sunyihoo/contractkit/artifacts"
	"github.com/sunyihoo/contractkit/config"
	"github.com/sunyihoo/contractkit/provider"
	"github.com/urfave/cli/v2"
)

var (
	// ErrUnknownPlugin is returned for identifiers no plugin is registered under.
	ErrUnknownPlugin = errors.New("unknown plugin")

	// ErrDuplicatePlugin is returned when a plugin is listed or registered twice.
	ErrDuplicatePlugin = errors.New("duplicate plugin")

	// ErrNotEnabled is returned when running a plugin the project does not list.
	ErrNotEnabled = errors.New("plugin not enabled in configuration")
)

// Flags gives a plugin access to its parsed command line options.
// *cli.Context satisfies it.
type Flags interface {
	Bool(name string) bool
	Int(name string) int
	String(name string) string
	StringSlice(name string) []string
	IsSet(name string) bool
}

// Env is what a plugin run can see of the project.
type Env struct {
	Config    *config.Config
	Network   config.NetworkConfig
	Artifacts *artifacts.Store
	Out       io.Writer

	// Provider opens the network connection on demand. It is nil when the
	// command runs without a network.
	Provider func() (provider.Provider, error)
}

// Plugin is a command contributed to the toolchain.
type Plugin interface {
	// Name is the identifier used in the configuration's plugin list.
	Name() string
	// Command is the short name used with `run`.
	Command() string
	Usage() string
	Flags() []cli.Flag
	Run(ctx context.Context, env *Env, flags Flags, args []string) error
}

// Factory creates a plugin instance.
type Factory func() Plugin

// Registry maps plugin identifiers to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a plugin under its identifier.
func (r *Registry) Register(f Factory) error {
	name := f().Name()
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, name)
	}
	r.factories[name] = f
	return nil
}

// Names returns the registered identifiers, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load instantiates the plugins listed in names, keeping their order.
// Unknown and repeated identifiers are rejected.
// 按配置顺序加载插件；未知或重复的插件名直接报错。
func (r *Registry) Load(names []string) ([]Plugin, error) {
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make([]Plugin, 0, len(names))
	for _, name := range names {
		if !seen.Add(name) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlugin, name)
		}
		f, ok := r.factories[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s (known: %v)", ErrUnknownPlugin, name, r.Names())
		}
		out = append(out, f())
	}
	return out, nil
}

// Find returns the loaded plugin answering to cmd, by command or identifier.
func Find(loaded []Plugin, cmd string) (Plugin, error) {
	for _, p := range loaded {
		if p.Command() == cmd || p.Name() == cmd {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotEnabled, cmd)
}
