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

	"vghost.dev/vghost/pkg/abi/sva"
	"vghost.dev/vghost/pkg/hostarch"
	"vghost.dev/vghost/pkg/log"
)

// IsSecureMemVA returns true iff addr lies strictly inside the secure region.
// Both boundary addresses are outside it.
func IsSecureMemVA(addr hostarch.Addr) bool {
	return uint64(addr) > sva.SecMemStart && uint64(addr) < sva.SecMemEnd
}

// SecureRange returns the secure region as an address range. Note that the
// start address itself is not secure, see IsSecureMemVA.
func SecureRange() hostarch.AddrRange {
	return hostarch.AddrRange{
		Start: hostarch.Addr(sva.SecMemStart),
		End:   hostarch.Addr(sva.SecMemEnd),
	}
}

// secureTableEntry is the entry used for intermediate tables of the secure
// hierarchy.
const secureTableEntry = sva.PTEValid | sva.PTEWritable | sva.PTEUser

// MapSecurePage maps frame f at va in the active hierarchy as secure memory.
// Missing intermediate tables are taken from alloc; they become part of the
// secure hierarchy and the kernel can no longer update or reference them.
//
// va must be a page-aligned secure address that is not mapped yet, and f
// must be unused.
func (m *MMU) MapSecurePage(va hostarch.Addr, f Frame, alloc func() Frame) {
	const op = "map secure page"
	if !IsSecureMemVA(va) || !va.IsPageAligned() {
		violate(op, f, PageUnused, "%v is not a secure page address", va)
	}

	m.secureMu.Lock()
	defer m.secureMu.Unlock()

	// Find the deepest existing table on the path to va. Nothing is claimed
	// or written until the whole request has been checked.
	table := FrameOf(m.CurrentRootTable())
	m.store.check(op, table)
	level := 4
	for ; level > 1; level-- {
		e := m.loadEntry(table, tableIndex(va, level))
		if !e.Valid() {
			break
		}
		if d := m.store.Get(e.Frame()); !d.Secure() || d.Type != TableType(level-1) {
			violate(op, e.Frame(), d.Type, "secure hierarchy references a non-secure table")
		}
		table = e.Frame()
	}
	if level == 1 && m.loadEntry(table, tableIndex(va, 1)).Valid() {
		violate(op, f, PageSecureMem, "%v is already mapped", va)
	}
	m.store.check(op, f)
	if d := m.store.Get(f); d.IsActive() {
		violate(op, f, d.Type, "frame already in use")
	}

	// fresh[i] becomes the table at level-1-i.
	fresh := make([]Frame, 0, level-1)
	for l := level; l > 1; l-- {
		child := alloc()
		m.store.check(op, child)
		if child == f || slices.Contains(fresh, child) {
			violate(op, child, m.store.Get(child).Type, "frame allocated twice for %v", va)
		}
		fresh = append(fresh, child)
	}

	claimed := 0
	defer func() {
		if r := recover(); r != nil {
			for _, c := range fresh[:claimed] {
				m.release(op, c, 0)
			}
			panic(r)
		}
	}()
	for i, child := range fresh {
		m.claim(op, child, TableType(level-1-i), true)
		claimed = i + 1
	}
	m.claim(op, f, PageSecureMem, true)

	// Secure tables are written under secureMu alone: the kernel can neither
	// update SecMemIndex nor any table below it. Entries go in bottom-up so
	// the path only becomes reachable once complete.
	leafTable := table
	if len(fresh) > 0 {
		leafTable = fresh[len(fresh)-1]
	}
	m.storeEntry(leafTable, tableIndex(va, 1), MakePTE(f, hostarch.ReadWrite, true))
	for i := len(fresh) - 1; i >= 0; i-- {
		parent := table
		if i > 0 {
			parent = fresh[i-1]
		}
		m.storeEntry(parent, tableIndex(va, level-i), PTE(fresh[i].Address())|secureTableEntry)
	}
	log.Debugf("Mapped secure page %v -> %#x", va, uint64(f))
}

// UnmapSecurePage removes the secure mapping at va and returns the frame it
// mapped, now unused. Intermediate tables left empty are released.
func (m *MMU) UnmapSecurePage(va hostarch.Addr) Frame {
	const op = "unmap secure page"
	if !IsSecureMemVA(va) || !va.IsPageAligned() {
		violate(op, 0, PageUnused, "%v is not a secure page address", va)
	}

	m.secureMu.Lock()
	defer m.secureMu.Unlock()

	// tables[level] is the table at the given level on the path to va.
	var tables [5]Frame
	tables[4] = FrameOf(m.CurrentRootTable())
	m.store.check(op, tables[4])
	for level := 4; level > 1; level-- {
		e := m.loadEntry(tables[level], tableIndex(va, level))
		if !e.Valid() {
			violate(op, tables[level], TableType(level), "%v is not mapped", va)
		}
		tables[level-1] = e.Frame()
	}
	leaf := m.loadEntry(tables[1], tableIndex(va, 1))
	if !leaf.Valid() {
		violate(op, tables[1], PageL1, "%v is not mapped", va)
	}
	f := leaf.Frame()
	if d := m.store.Get(f); !d.IsSecureMemPage() {
		violate(op, f, d.Type, "not a secure memory frame")
	}

	m.storeEntry(tables[1], tableIndex(va, 1), 0)
	m.release(op, f, 0)
	for level := 1; level < 4; level++ {
		if !m.isEmpty(tables[level]) {
			break
		}
		m.storeEntry(tables[level+1], tableIndex(va, level+1), 0)
		m.release(op, tables[level], 0)
	}
	log.Debugf("Unmapped secure page %v -> %#x", va, uint64(f))
	return f
}

// release drops one reference to f under its lock.
func (m *MMU) release(op string, f Frame, tableLevel int) {
	unlock := m.store.lockFrames(f)
	defer unlock()
	tx := m.store.begin()
	m.dropReference(op, tx, f, tableLevel)
	tx.commit()
}
