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

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"unicode"

	"github.com/ethereum/go-ethereum/log"
	"github.com/naoina/toml"
	"github.com/sunyihoo/contractkit/provider"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		id := fmt.Sprintf("%s.%s", rt.String(), field)
		if deprecatedConfigFields[id] {
			log.Warn(fmt.Sprintf("Config field '%s' is deprecated and won't have any effect.", id))
			return nil
		}
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://pkg.go.dev/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// deprecatedConfigFields are accepted and ignored. The legacy spelling of the
// check timeout is kept readable for old project files.
var deprecatedConfigFields = map[string]bool{
	"config.NetworkConfig.NetworkCheckTimeoutnetworkCheckTimeout": true,
}

// LoadFile decodes the TOML file at path on top of cfg. Keys absent from the
// file keep their current value, but a [Networks] table replaces the whole
// network map. ${VAR} references are resolved only in credentials the file
// itself supplies.
// 注意：TOML 中出现的 [Networks.*] 表会整体替换默认网络集合。
func LoadFile(path string, cfg *Config, lookup LookupFunc) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	table, err := toml.Parse(data)
	if err == nil {
		err = tomlSettings.UnmarshalTable(table, cfg)
	}
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(path + ", " + err.Error())
	}
	if err != nil {
		return err
	}
	// Decode a second time into an empty record to learn which credentials
	// came from the file. Values read from the environment are left alone.
	quiet := tomlSettings
	quiet.MissingField = func(reflect.Type, string) error { return nil }
	var file Config
	if err := quiet.UnmarshalTable(table, &file); err != nil {
		return err
	}
	cfg.expandEnv(&file, lookup)
	return nil
}

// Load builds the configuration: defaults read through lookup, then the
// optional TOML file at path.
func Load(path string, lookup LookupFunc) (*Config, error) {
	if lookup == nil {
		lookup = OSLookup
	}
	cfg := Defaults(lookup)
	if path != "" {
		if err := LoadFile(path, cfg, lookup); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// expandEnv resolves ${VAR} references in the credential fields that file
// sets, writing the result into c.
func (c *Config) expandEnv(file *Config, lookup LookupFunc) {
	if lookup == nil {
		lookup = OSLookup
	}
	for name, f := range file.Networks {
		n, ok := c.Networks[name]
		if !ok {
			continue
		}
		if f.URL != "" {
			n.URL = expand(f.URL, lookup)
		}
		if f.Mnemonic != "" {
			n.Mnemonic = expand(f.Mnemonic, lookup)
		}
		if f.Host != "" {
			n.Host = expand(f.Host, lookup)
		}
		c.Networks[name] = n
	}
	if file.APIKeys.Etherscan != "" {
		c.APIKeys.Etherscan = expand(file.APIKeys.Etherscan, lookup)
	}
}

// Redacted returns a deep copy with secrets masked, suitable for printing.
func (c *Config) Redacted() *Config {
	out := *c
	out.Networks = make(map[string]NetworkConfig, len(c.Networks))
	for name, n := range c.Networks {
		if n.Mnemonic != "" {
			n.Mnemonic = redactedValue
		}
		if n.URL != "" {
			n.URL = provider.RedactURL(n.URL)
		}
		out.Networks[name] = n
	}
	if out.APIKeys.Etherscan != "" {
		out.APIKeys.Etherscan = redactedValue
	}
	out.Plugins = append([]string(nil), c.Plugins...)
	out.Migrations = append([]MigrationStep(nil), c.Migrations...)
	return &out
}

const redactedValue = "<redacted>"

// Dump writes the configuration as TOML. Secrets are masked unless
// showSecrets is set.
func Dump(w io.Writer, c *Config, showSecrets bool) error {
	if !showSecrets {
		c = c.Redacted()
	}
	out, err := tomlSettings.Marshal(c)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
