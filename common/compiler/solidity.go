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

package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/blang/semver"
)

var (
	versionRegexp = regexp.MustCompile(`Version: ([0-9]+\.[0-9]+\.[0-9]+)(?:-[0-9A-Za-z.]+)?(?:\+commit\.([0-9a-f]+))?`)

	// ErrCompilerVersion is returned when the installed solc does not satisfy
	// the configured pin.
	ErrCompilerVersion = errors.New("solc version mismatch")
)

// Solidity contains information about the solidity compiler.
type Solidity struct {
	Path    string
	Version semver.Version
	Commit  string // short commit hash, empty for builds without one
}

// LongVersion returns the "v0.8.15+commit.e14f2714" form block explorers
// expect.
func (s *Solidity) LongVersion() string {
	v := "v" + s.Version.String()
	if s.Commit != "" {
		v += "+commit." + s.Commit
	}
	return v
}

func (s *Solidity) String() string {
	return fmt.Sprintf("solc %s (%s)", s.LongVersion(), s.Path)
}

// SolidityVersion runs solc and parses its version output.
func SolidityVersion(ctx context.Context, solc string) (*Solidity, error) {
	if solc == "" {
		solc = "solc"
	}
	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, solc, "--version")
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s --version: %w (%s)", solc, err, strings.TrimSpace(stderr.String()))
	}
	return parseVersion(solc, out.String())
}

func parseVersion(path, output string) (*Solidity, error) {
	matches := versionRegexp.FindStringSubmatch(output)
	if matches == nil {
		return nil, fmt.Errorf("can't parse solc version %q", strings.TrimSpace(output))
	}
	v, err := semver.Parse(matches[1])
	if err != nil {
		return nil, err
	}
	return &Solidity{Path: path, Version: v, Commit: matches[2]}, nil
}

// CheckVersion reports whether got satisfies pinned. pinned is either an
// exact version ("0.8.15") or a range expression (">=0.8.0 <0.9.0", "0.8.x").
// 版本固定：精确版本直接比较主/次/补丁号，否则按范围表达式匹配。
func CheckVersion(pinned string, got semver.Version) error {
	pinned = strings.TrimPrefix(strings.TrimSpace(pinned), "v")
	if pinned == "" {
		return nil
	}
	got.Pre, got.Build = nil, nil
	if want, err := semver.Parse(pinned); err == nil {
		want.Pre, want.Build = nil, nil
		if !want.Equals(got) {
			return fmt.Errorf("%w: want %s, have %s", ErrCompilerVersion, want, got)
		}
		return nil
	}
	match, err := semver.ParseRange(pinned)
	if err != nil {
		return fmt.Errorf("invalid solc version constraint %q: %v", pinned, err)
	}
	if !match(got) {
		return fmt.Errorf("%w: %s does not satisfy %q", ErrCompilerVersion, got, pinned)
	}
	return nil
}
