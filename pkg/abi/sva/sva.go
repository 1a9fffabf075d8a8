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

// Package sva contains the architectural constants shared by the MMU
// invariant tracker and the ghost runtime.
//
// These values are fixed at build time. Nothing in this package is
// configurable at runtime.
package sva

const (
	// PageShift is log2(PageSize).
	PageShift = 12

	// PageSize is the size of the smallest page frame in bytes.
	PageSize = 1 << PageShift

	// EntriesPerTable is the number of entries in one page-table page.
	EntriesPerTable = 512

	// TableIndexBits is the number of virtual address bits consumed by each
	// page-table level.
	TableIndexBits = 9
)

// Secure memory bounds.
//
// The interval is open at both ends: see mmu.IsSecureMemVA.
const (
	SecMemStart = 0xffffff0000000000
	SecMemEnd   = 0xffffff8000000000
)

// SecMemIndex is the root-table (PML4) slot that maps the secure region.
// Kernel updates of this slot are never permitted.
const SecMemIndex = (SecMemStart >> 39) & (EntriesPerTable - 1)

// Bookkeeping alias of physical memory.
//
// The isolation layer reads page-table pages through its own mapping of all
// physical memory, DirectMapBase + physical.
const (
	DirectMapBase = 0xfffffe0000000000
	DirectMapSize = SecMemStart - DirectMapBase
)

// AddrMask selects the frame address bits of a PTE, PDE, etc.
const AddrMask = 0x000ffffffffff000

// Large page address masks.
const (
	AddrMask2M = 0x000fffffffe00000
	AddrMask1G = 0x000fffffc0000000
)

// MMU flags, Intel nomenclature.
const (
	PTEValid        = 0x001 // P
	PTEWritable     = 0x002 // R/W
	PTEUser         = 0x004 // U/S
	PTEWriteThrough = 0x008 // PWT
	PTECacheDisable = 0x010 // PCD
	PTEAccessed     = 0x020 // A
	PTEDirty        = 0x040 // D
	PTEPageSize     = 0x080 // PS
	PTEGlobal       = 0x100 // G
	PTEAvail1       = 0x200
	PTEAvail2       = 0x400
	PTEAvail3       = 0x800
	PTENoExecute    = 1 << 63 // XD
)

// Software interpretations of the available bits.
const (
	// PTEWired marks a wired mapping.
	PTEWired = PTEAvail1

	// PTEManaged marks a managed mapping.
	PTEManaged = PTEAvail2

	// PTEStack marks a leaf mapping of a stack page. Hardware ignores it;
	// the descriptor store uses it to select the Stack role.
	PTEStack = PTEAvail3
)

// AllowTrapVector is the software interrupt that asks the isolation layer to
// permit an asynchronous control transfer target. The target address is
// passed in RDI.
const AllowTrapVector = 0x7d

// SignalTrampoline is the fixed address of the signal delivery trampoline.
const SignalTrampoline = 0x7ffffffff000

// DefaultStackSize is the default size of the traditional memory stack.
const DefaultStackSize = 16384
