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

// Package physmem provides simulated physical memory for the MMU.
//
// Memory is one anonymous private mapping. Frame n occupies bytes
// [n*PageSize, (n+1)*PageSize) of it, and is addressed by the MMU through the
// bookkeeping alias, see mmu.PhysToBookkeeping.
package physmem

import (
	"fmt"

	"golang.org/x/sys/unix"
	"vghost.dev/vghost/pkg/abi/sva"
	"vghost.dev/vghost/pkg/hostarch"
	"vghost.dev/vghost/pkg/sva/mmu"
)

// Memory is a fixed number of zero-filled frames.
//
// Memory implements mmu.Memory.
type Memory struct {
	mem    []byte
	frames uint64
}

var _ mmu.Memory = (*Memory)(nil)

// New maps frames frames of zeroed memory.
func New(frames uint64) (*Memory, error) {
	if frames == 0 {
		return nil, fmt.Errorf("physical memory must have at least one frame")
	}
	if frames > sva.DirectMapSize/sva.PageSize {
		return nil, fmt.Errorf("%d frames exceed the bookkeeping alias", frames)
	}
	b, err := unix.Mmap(-1, 0, int(frames*sva.PageSize),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_NORESERVE)
	if err != nil {
		return nil, fmt.Errorf("failed to map %d frames: %w", frames, err)
	}
	return &Memory{mem: b, frames: frames}, nil
}

// Release unmaps the memory. m must not be used afterwards.
func (m *Memory) Release() error {
	if m.mem == nil {
		return nil
	}
	err := unix.Munmap(m.mem)
	m.mem = nil
	return err
}

// Frames implements mmu.Memory.Frames.
func (m *Memory) Frames() uint64 {
	return m.frames
}

// Frame returns the contents of frame f.
func (m *Memory) Frame(f mmu.Frame) []byte {
	if uint64(f) >= m.frames {
		panic(fmt.Sprintf("frame %#x out of range [0, %#x)", uint64(f), m.frames))
	}
	off := f.Address()
	return m.mem[off : off+sva.PageSize : off+sva.PageSize]
}

// offset returns the byte offset of the word at bookkeeping address addr.
func (m *Memory) offset(addr hostarch.Addr) uint64 {
	phys, ok := mmu.BookkeepingToPhys(addr)
	if !ok {
		panic(fmt.Sprintf("%v is not a bookkeeping address", addr))
	}
	if phys%8 != 0 || phys+8 > uint64(len(m.mem)) {
		panic(fmt.Sprintf("physical address %#x out of range or misaligned", phys))
	}
	return phys
}
