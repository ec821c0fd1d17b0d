// Copyright 2026 cloudygreybeard
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package adapter holds the importers and exporters linked into the
// binary. Adapters register from init functions; every list it returns is
// sorted by name so that imports run in a stable order.
package adapter

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/cloudygreybeard/xbel/pkg/input"
	"github.com/cloudygreybeard/xbel/pkg/output"
)

type named interface{ Name() string }

// set is a name-keyed adapter table safe for concurrent use. Registering
// a name twice replaces the first adapter.
type set[T named] struct {
	mu sync.RWMutex
	m  map[string]T
}

func (s *set[T]) add(a T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = make(map[string]T)
	}
	s.m[a.Name()] = a
}

func (s *set[T]) get(name string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.m[name]
	return a, ok
}

// list returns the adapters accepted by keep, sorted by name.
func (s *set[T]) list(keep func(T) bool) []T {
	s.mu.RLock()
	out := make([]T, 0, len(s.m))
	for _, a := range s.m {
		if keep == nil || keep(a) {
			out = append(out, a)
		}
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b T) int { return strings.Compare(a.Name(), b.Name()) })
	return out
}

func (s *set[T]) names() []string {
	all := s.list(nil)
	names := make([]string, len(all))
	for i, a := range all {
		names[i] = a.Name()
	}
	return names
}

var (
	inputs  set[input.Adapter]
	outputs set[output.Adapter]
)

// RegisterInput registers an importer.
func RegisterInput(a input.Adapter) { inputs.add(a) }

// RegisterOutput registers an exporter.
func RegisterOutput(a output.Adapter) { outputs.add(a) }

func GetInput(name string) (input.Adapter, bool) { return inputs.get(name) }

func GetOutput(name string) (output.Adapter, bool) { return outputs.get(name) }

// ListInputs returns the importer names.
func ListInputs() []string { return inputs.names() }

// ListOutputs returns the exporter names.
func ListOutputs() []string { return outputs.names() }

func AllInputs() []input.Adapter { return inputs.list(nil) }

func AllOutputs() []output.Adapter { return outputs.list(nil) }

// AvailableInputs returns the importers that can read right now.
func AvailableInputs() []input.Adapter {
	return inputs.list(input.Adapter.Available)
}

// OutputForFile returns the exporter claiming the extension of path,
// compared case-insensitively.
func OutputForFile(path string) (output.Adapter, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil, false
	}
	found := outputs.list(func(a output.Adapter) bool {
		return slices.Contains(a.Extensions(), ext)
	})
	if len(found) == 0 {
		return nil, false
	}
	return found[0], true
}
