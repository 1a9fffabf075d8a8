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

// Package mmu tracks the role of every physical frame in the page-table
// hierarchy and mediates every change to that hierarchy.
//
// The kernel never writes a page-table entry itself. It asks the MMU to
// install or remove one, and the MMU checks the request against the frame
// descriptors before touching memory. A request that would give a frame two
// incompatible roles, expose secure memory, or let hardware write a table
// page raises a *Violation.
//
// Lock order:
//
//	MMU.secureMu (sole lock for the secure hierarchy's entries)
//	  Store.stripes (ascending)
package mmu

import (
	"sync"

	"vghost.dev/vghost/pkg/abi/sva"
	"vghost.dev/vghost/pkg/log"
)

// MMU applies page-table updates against a descriptor Store.
type MMU struct {
	mem   Memory
	regs  ControlRegisters
	store *Store

	// secureMu serializes changes to the secure region's hierarchy.
	secureMu sync.Mutex
}

// New returns an MMU managing all of mem, with every frame unused.
func New(mem Memory, regs ControlRegisters) *MMU {
	return &MMU{
		mem:   mem,
		regs:  regs,
		store: NewStore(mem.Frames()),
	}
}

// Store returns the descriptor store.
func (m *MMU) Store() *Store {
	return m.store
}

// Entry returns the current value of a page-table entry.
func (m *MMU) Entry(table Frame, index int) PTE {
	m.store.check("read entry", table)
	if index < 0 || index >= sva.EntriesPerTable {
		violate("read entry", table, PageUnused, "index %d out of range", index)
	}
	return m.loadEntry(table, index)
}

// claim moves an unused frame into a role with a single reference.
func (m *MMU) claim(op string, f Frame, t PageType, secure bool) {
	m.store.check(op, f)
	unlock := m.store.lockFrames(f)
	defer unlock()

	tx := m.store.begin()
	d := tx.get(f)
	if d.IsActive() {
		violate(op, f, d.Type, "frame already in use")
	}
	if t.IsTable() && !m.isEmpty(f) {
		violate(op, f, d.Type, "frame promoted to %s contains valid entries", t)
	}
	d.Type = t
	d.secure = secure
	if err := d.addRef(0); err != nil {
		violate(op, f, d.Type, "%v", err)
	}
	tx.commit()
}

// DeclareSystemPage marks an unused frame as owned by the isolation layer.
func (m *MMU) DeclareSystemPage(f Frame) {
	m.claim("declare system page", f, PageSystem, false)
	log.Debugf("Declared system page %#x", uint64(f))
}

// DeclareRoot marks an unused, zero-filled frame as a root table.
func (m *MMU) DeclareRoot(f Frame) {
	m.claim("declare root", f, PageL4, false)
	log.Debugf("Declared root table %#x", uint64(f))
}

// LoadRoot makes f the active root table.
func (m *MMU) LoadRoot(f Frame) {
	const op = "load root"
	d := m.store.Get(f)
	if !d.IsL4() {
		violate(op, f, d.Type, "not a root table")
	}
	m.regs.SetCR3(f.Address())
}

// ReleaseRoot drops the declaration reference of a root table. The table
// must not be active and must hold no valid entries.
func (m *MMU) ReleaseRoot(f Frame) {
	const op = "release root"
	m.store.check(op, f)
	if FrameOf(m.CurrentRootTable()) == f {
		violate(op, f, PageL4, "root table is loaded")
	}
	unlock := m.store.lockFrames(f)
	defer unlock()

	tx := m.store.begin()
	d := tx.get(f)
	if !d.IsL4() {
		violate(op, f, d.Type, "not a root table")
	}
	m.dropReference(op, tx, f, 0)
	tx.commit()
	log.Debugf("Released root table %#x", uint64(f))
}

// UpdateEntry installs pte at index of table, a page-table page at the given
// level (1 for a leaf table, 4 for the root). An invalid pte removes the
// entry.
//
// The previous entry's reference is released and the new entry's reference
// taken atomically with the write. If the change is not permitted, a
// *Violation is raised and the entry is left as it was.
func (m *MMU) UpdateEntry(level int, table Frame, index int, pte PTE) {
	const op = "update entry"
	if level < 1 || level > 4 {
		violate(op, table, PageUnused, "bad table level %d", level)
	}
	if index < 0 || index >= sva.EntriesPerTable {
		violate(op, table, PageUnused, "index %d out of range", index)
	}
	m.store.check(op, table)
	if level == 4 && index == sva.SecMemIndex {
		violate(op, table, PageL4, "root slot %d maps the secure region", index)
	}
	if pte.Valid() {
		m.store.check(op, pte.Frame())
		if level > 1 && pte.IsSuper() {
			violate(op, pte.Frame(), PageUnused, "large page mappings are not supported")
		}
	}
	for !m.tryUpdate(op, level, table, index, pte) {
	}
}

// RemoveEntry clears index of table. See UpdateEntry.
func (m *MMU) RemoveEntry(level int, table Frame, index int) {
	m.UpdateEntry(level, table, index, 0)
}

// tryUpdate performs one attempt of UpdateEntry. It returns false if the
// entry changed before its frames could be locked.
func (m *MMU) tryUpdate(op string, level int, table Frame, index int, pte PTE) bool {
	old := m.loadEntry(table, index)
	frames := []Frame{table}
	if pte.Valid() {
		frames = append(frames, pte.Frame())
	}
	if old.Valid() {
		frames = append(frames, old.Frame())
	}
	unlock := m.store.lockFrames(frames...)
	defer unlock()
	if m.loadEntry(table, index) != old {
		return false
	}

	tx := m.store.begin()
	td := tx.get(table)
	if td.Type != TableType(level) {
		violate(op, table, td.Type, "not an %s table", TableType(level))
	}
	if td.secure {
		violate(op, table, td.Type, "table belongs to the secure region")
	}

	tableLevel := 0
	if level > 1 {
		tableLevel = level - 1
	}
	if pte.Valid() {
		if tableLevel == 0 {
			m.addLeaf(op, tx, pte)
		} else {
			m.addTable(op, tx, pte, tableLevel)
		}
	}
	if old.Valid() {
		m.store.check(op, old.Frame())
		m.dropReference(op, tx, old.Frame(), tableLevel)
	}

	m.storeEntry(table, index, pte)
	tx.commit()
	return true
}

// leafType returns the role a leaf mapping gives an unused frame.
func leafType(pte PTE) PageType {
	switch {
	case pte.CacheDisabled():
		return PageIO
	case pte.Stack():
		return PageStack
	case pte.Writable():
		if pte.User() {
			return PageUserData
		}
		return PageKernelData
	case pte.Executable():
		return PageCode
	case pte.User():
		return PageUserData
	default:
		return PageKernelData
	}
}

// addLeaf takes a reference for a leaf mapping.
func (m *MMU) addLeaf(op string, tx *txn, pte PTE) {
	f := pte.Frame()
	d := tx.get(f)
	role := d.Type
	if !d.IsActive() {
		role = leafType(pte)
	}

	switch {
	case d.secure || role == PageSecureMem:
		violate(op, f, d.Type, "secure memory frame")
	case pte.Writable() && pte.Executable():
		violate(op, f, d.Type, "writable and executable mapping")
	case role == PageCode:
		if pte.Writable() {
			violate(op, f, d.Type, "code frame mapped writable")
		}
	case role.IsTable() || role == PageSystem:
		if pte.Writable() || pte.Executable() {
			violate(op, f, d.Type, "%s frame must be mapped read-only and non-executable", role)
		}
	case role == PageIO:
		if !pte.CacheDisabled() {
			violate(op, f, d.Type, "io frame mapped cacheable")
		}
		if pte.Executable() {
			violate(op, f, d.Type, "io frame mapped executable")
		}
	case role.isWritableData():
		if pte.Executable() {
			violate(op, f, d.Type, "data frame mapped executable")
		}
		if t := leafType(pte); !t.isWritableData() {
			violate(op, f, d.Type, "data frame mapped as %s", t)
		}
	}

	d.Type = role
	if pte.User() {
		d.user = true
	}
	if err := d.addRef(0); err != nil {
		violate(op, f, d.Type, "%v", err)
	}
}

// addTable takes a reference for a non-leaf entry pointing at a table of
// level tableLevel.
func (m *MMU) addTable(op string, tx *txn, pte PTE, tableLevel int) {
	f := pte.Frame()
	d := tx.get(f)
	want := TableType(tableLevel)
	switch {
	case d.secure:
		violate(op, f, d.Type, "table belongs to the secure region")
	case !d.IsActive():
		if !m.isEmpty(f) {
			violate(op, f, d.Type, "frame promoted to %s contains valid entries", want)
		}
		d.Type = want
	case d.Type != want:
		violate(op, f, d.Type, "frame in use as %s cannot be referenced as %s", d.Type, want)
	}
	if err := d.addRef(tableLevel); err != nil {
		violate(op, f, d.Type, "%v", err)
	}
	if tableLevel == 1 {
		if pte.User() {
			d.l1User = true
		} else {
			d.l1Kernel = true
		}
	}
}

// dropReference releases one reference to f. The last reference returns the
// frame to unused.
func (m *MMU) dropReference(op string, tx *txn, f Frame, tableLevel int) {
	d := tx.get(f)
	last, err := d.dropRef(tableLevel)
	if err != nil {
		violate(op, f, d.Type, "%v", err)
	}
	if d.l1Count == 0 {
		d.l1User = false
		d.l1Kernel = false
	}
	if !last {
		return
	}
	if d.Type.IsTable() && !m.isEmpty(f) {
		violate(op, f, d.Type, "%s table still holds valid entries", d.Type)
	}
	*d = Descriptor{}
}
