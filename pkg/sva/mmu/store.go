// Copyright 2026 The vghost Authors.
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

package mmu

import (
	"slices"
	"sync"
)

// numStripes is the number of descriptor lock stripes. Must be a power of
// two.
const numStripes = 64

// Store holds one Descriptor per frame of managed memory.
//
// Descriptors are protected by striped locks keyed by frame number. Any
// operation that touches more than one descriptor takes the stripes in
// ascending order.
type Store struct {
	stripes [numStripes]sync.Mutex

	// descs is indexed by frame number. Its length never changes.
	descs []Descriptor
}

// NewStore returns a store managing frames [0, frames), all unused.
func NewStore(frames uint64) *Store {
	return &Store{descs: make([]Descriptor, frames)}
}

// Frames returns the number of managed frames.
func (s *Store) Frames() uint64 {
	return uint64(len(s.descs))
}

// check raises a Violation if f is not managed.
func (s *Store) check(op string, f Frame) {
	if uint64(f) >= uint64(len(s.descs)) {
		violate(op, f, PageUnused, "outside managed memory (%d frames)", len(s.descs))
	}
}

// Get returns a snapshot of the descriptor for f.
func (s *Store) Get(f Frame) Descriptor {
	s.check("lookup", f)
	mu := &s.stripes[stripe(f)]
	mu.Lock()
	defer mu.Unlock()
	return s.descs[f]
}

// Lookup returns a snapshot of the descriptor of the frame a PTE-shaped
// value refers to. Flag bits are ignored.
func (s *Store) Lookup(mapping PTE) Descriptor {
	return s.Get(mapping.Frame())
}

// ForEach calls fn with a snapshot of every active descriptor, in frame
// order. fn must not call back into the store.
func (s *Store) ForEach(fn func(f Frame, d Descriptor)) {
	for i := range s.descs {
		f := Frame(i)
		mu := &s.stripes[stripe(f)]
		mu.Lock()
		d := s.descs[i]
		mu.Unlock()
		if d.IsActive() {
			fn(f, d)
		}
	}
}

// Summary returns the number of frames in each active role.
func (s *Store) Summary() map[PageType]int {
	m := make(map[PageType]int)
	s.ForEach(func(_ Frame, d Descriptor) {
		m[d.Type]++
	})
	return m
}

func stripe(f Frame) int {
	return int(uint64(f) & (numStripes - 1))
}

// lockFrames locks the stripes of all given frames and returns a function
// that releases them.
func (s *Store) lockFrames(frames ...Frame) func() {
	idx := make([]int, 0, len(frames))
	for _, f := range frames {
		idx = append(idx, stripe(f))
	}
	slices.Sort(idx)
	idx = slices.Compact(idx)
	for _, i := range idx {
		s.stripes[i].Lock()
	}
	return func() {
		for j := len(idx) - 1; j >= 0; j-- {
			s.stripes[idx[j]].Unlock()
		}
	}
}

// txn stages descriptor changes made under lockFrames. Nothing is visible
// until commit.
type txn struct {
	s      *Store
	frames []Frame
	descs  []*Descriptor
}

func (s *Store) begin() *txn {
	return &txn{s: s}
}

// get returns the working copy of f's descriptor.
//
// Preconditions: f's stripe is locked.
func (t *txn) get(f Frame) *Descriptor {
	for i := range t.frames {
		if t.frames[i] == f {
			return t.descs[i]
		}
	}
	d := t.s.descs[f]
	t.frames = append(t.frames, f)
	t.descs = append(t.descs, &d)
	return &d
}

func (t *txn) commit() {
	for i, f := range t.frames {
		t.s.descs[f] = *t.descs[i]
	}
}
