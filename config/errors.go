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

import "errors"

var (
	// ErrUnknownNetwork is returned when a network name is not configured.
	ErrUnknownNetwork = errors.New("unknown network")

	// ErrNoProvider is returned when a descriptor has neither a host nor a
	// signing provider.
	ErrNoProvider = errors.New("network has no host or provider")

	// ErrInvalidConfig wraps every other validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
)
