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

package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the build directory.
var ErrLocked = errors.New("build directory is locked by another process")

// lockTimeout bounds how long a writer waits for the directory lock.
const lockTimeout = 10 * time.Second

// Store reads and writes artifacts in a build directory. Writers serialise on
// a LOCK file so concurrent compile and migrate runs cannot interleave.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore returns a store rooted at dir. The directory is created on the
// first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the build directory.
func (s *Store) Dir() string { return s.dir }

// lock takes the directory lock, waiting up to lockTimeout.
func (s *Store) lock(ctx context.Context) (*flock.Flock, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	l := flock.New(filepath.Join(s.dir, "LOCK"))
	locked, err := l.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrLocked
		}
		return nil, err
	}
	if !locked {
		return nil, ErrLocked
	}
	return l, nil
}

// Write stores the given artifacts. An existing artifact keeps its recorded
// network deployments unless the bytecode changed.
func (s *Store) Write(ctx context.Context, list ...*Artifact) error {
	l, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer l.Unlock()

	for _, a := range list {
		path := fileName(s.dir, a.ContractName)
		if old, err := readFile(path); err == nil && old.Bytecode == a.Bytecode && len(a.Networks) == 0 {
			a.Networks = old.Networks
		}
		if err := s.writeFile(path, a); err != nil {
			return err
		}
		log.Debug("Wrote artifact", "contract", a.ContractName, "path", path)
	}
	return nil
}

// Update applies fn to a stored artifact under the directory lock.
func (s *Store) Update(ctx context.Context, name string, fn func(*Artifact) error) error {
	l, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer l.Unlock()

	a, err := s.Read(name)
	if err != nil {
		return err
	}
	if err := fn(a); err != nil {
		return err
	}
	return s.writeFile(fileName(s.dir, name), a)
}

func (s *Store) writeFile(path string, a *Artifact) error {
	a.UpdatedAt = s.now().UTC()
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Read loads the artifact of a contract.
func (s *Store) Read(name string) (*Artifact, error) {
	a, err := readFile(fileName(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return a, err
}

// List returns the stored contract names, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sortedNames(entries), nil
}

// ReadAll loads every stored artifact in name order.
func (s *Store) ReadAll() ([]*Artifact, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}
	out := make([]*Artifact, 0, len(names))
	for _, name := range names {
		a, err := s.Read(name)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
