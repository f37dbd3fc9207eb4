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

package provider

import (
	"net/url"
	"strings"
)

// RedactURL hides credentials embedded in an endpoint. Infura style project ids
// live in the last path segment, userinfo carries basic auth.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "<redacted>"
	}
	u.User = nil
	if i := strings.LastIndex(u.Path, "/"); i >= 0 && len(u.Path)-i > 1 {
		u.Path = u.Path[:i+1] + "***"
	}
	u.RawQuery = ""
	return u.String()
}
