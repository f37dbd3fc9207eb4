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
	"io/fs"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/joho/godotenv"
)

// LookupFunc resolves an environment variable. It mirrors os.LookupEnv so
// tests can substitute a map.
type LookupFunc func(key string) (string, bool)

// OSLookup reads the process environment.
func OSLookup(key string) (string, bool) { return os.LookupEnv(key) }

// MapLookup serves values from m.
func MapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// LoadDotEnv reads KEY=VALUE pairs from path and returns a lookup that
// prefers the real environment and falls back to the file. A missing file is
// not an error.
// 读取 .env 文件；真实环境变量优先于文件中的值。
func LoadDotEnv(path string, base LookupFunc) (LookupFunc, error) {
	if base == nil {
		base = OSLookup
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return base, nil
		}
		return nil, err
	}
	log.Debug("Loaded environment file", "path", path, "keys", len(values))
	return func(key string) (string, bool) {
		if v, ok := base(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}, nil
}

// expand substitutes ${VAR} and $VAR references in s through lookup. Unset
// variables become empty strings.
func expand(s string, lookup LookupFunc) string {
	return os.Expand(s, func(key string) string {
		v, _ := lookup(key)
		return v
	})
}
