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
	"sync/atomic"

	"vghost.dev/vghost/pkg/abi/sva"
	"vghost.dev/vghost/pkg/hostarch"
)

// Memory is physical memory as seen through the bookkeeping alias.
//
// Addresses passed to Load64 and Store64 are bookkeeping virtual addresses,
// see PhysToBookkeeping. Both operations are atomic with respect to each
// other.
type Memory interface {
	// Frames returns the number of frames of physical memory.
	Frames() uint64

	// Load64 reads the 64-bit word at addr.
	Load64(addr hostarch.Addr) uint64

	// Store64 writes the 64-bit word at addr.
	Store64(addr hostarch.Addr, val uint64)
}

// ControlRegisters gives access to the page-table base register.
type ControlRegisters interface {
	CR3() uint64
	SetCR3(val uint64)
}

// VirtualCPU is a ControlRegisters for a simulated machine.
type VirtualCPU struct {
	cr3 atomic.Uint64
}

// CR3 implements ControlRegisters.CR3.
func (c *VirtualCPU) CR3() uint64 {
	return c.cr3.Load()
}

// SetCR3 implements ControlRegisters.SetCR3.
func (c *VirtualCPU) SetCR3(val uint64) {
	c.cr3.Store(val)
}

// PhysToBookkeeping returns the bookkeeping alias of physical address phys.
func PhysToBookkeeping(phys uint64) (hostarch.Addr, bool) {
	if phys >= sva.DirectMapSize {
		return 0, false
	}
	return hostarch.Addr(sva.DirectMapBase + phys), true
}

// BookkeepingToPhys is the inverse of PhysToBookkeeping.
func BookkeepingToPhys(v hostarch.Addr) (uint64, bool) {
	if uint64(v) < sva.DirectMapBase || uint64(v) >= sva.DirectMapBase+sva.DirectMapSize {
		return 0, false
	}
	return uint64(v) - sva.DirectMapBase, true
}

// CurrentRootTable returns the physical address of the active root table.
func CurrentRootTable(cr ControlRegisters) uint64 {
	return cr.CR3() & sva.AddrMask
}

// tableIndex returns the index of v's entry in a table at the given level.
func tableIndex(v hostarch.Addr, level int) int {
	shift := sva.PageShift + sva.TableIndexBits*(level-1)
	return int(uint64(v)>>shift) & (sva.EntriesPerTable - 1)
}

const (
	hugeOffsetMask  = 1<<21 - 1
	gigaOffsetMask  = 1<<30 - 1
	frameOffsetMask = sva.PageSize - 1
)

// VirtualToPhysical walks the active hierarchy and returns the physical
// address v maps to. It returns false if any level is absent.
func (m *MMU) VirtualToPhysical(v hostarch.Addr) (uint64, bool) {
	table := FrameOf(CurrentRootTable(m.regs))
	for level := 4; level >= 1; level-- {
		if uint64(table) >= m.mem.Frames() {
			return 0, false
		}
		e := m.loadEntry(table, tableIndex(v, level))
		if !e.Valid() {
			return 0, false
		}
		switch {
		case level == 3 && e.IsSuper():
			return uint64(e)&sva.AddrMask1G | uint64(v)&gigaOffsetMask, true
		case level == 2 && e.IsSuper():
			return uint64(e)&sva.AddrMask2M | uint64(v)&hugeOffsetMask, true
		case level == 1:
			return e.Address() | uint64(v)&frameOffsetMask, true
		}
		table = e.Frame()
	}
	panic("unreachable")
}

// CurrentRootTable returns the physical address of the active root table.
func (m *MMU) CurrentRootTable() uint64 {
	return CurrentRootTable(m.regs)
}

// entryAddr returns the bookkeeping address of an entry.
func entryAddr(table Frame, index int) hostarch.Addr {
	a, ok := PhysToBookkeeping(table.Address() + uint64(index)*8)
	if !ok {
		panic("table frame outside the bookkeeping alias")
	}
	return a
}

func (m *MMU) loadEntry(table Frame, index int) PTE {
	return PTE(m.mem.Load64(entryAddr(table, index)))
}

func (m *MMU) storeEntry(table Frame, index int, e PTE) {
	m.mem.Store64(entryAddr(table, index), uint64(e))
}

// isEmpty returns true iff the table holds no valid entries.
func (m *MMU) isEmpty(table Frame) bool {
	for i := 0; i < sva.EntriesPerTable; i++ {
		if m.loadEntry(table, i).Valid() {
			return false
		}
	}
	return true
}
