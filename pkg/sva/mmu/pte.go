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
	"fmt"
	"strings"

	"vghost.dev/vghost/pkg/abi/sva"
	"vghost.dev/vghost/pkg/hostarch"
)

// Frame is a physical frame number.
type Frame uint64

// FrameOf returns the frame containing physical address phys.
func FrameOf(phys uint64) Frame {
	return Frame(phys >> sva.PageShift)
}

// Address returns the physical address of the first byte of f.
func (f Frame) Address() uint64 {
	return uint64(f) << sva.PageShift
}

// PTE is a page table entry, or any value shaped like one.
type PTE uint64

// MakePTE returns a valid entry referencing f with the given access.
func MakePTE(f Frame, at hostarch.AccessType, user bool) PTE {
	p := PTE(f.Address()) | sva.PTEValid
	if at.Write {
		p |= sva.PTEWritable
	}
	if !at.Execute {
		p |= sva.PTENoExecute
	}
	if user {
		p |= sva.PTEUser
	}
	return p
}

// With returns p with the given flag bits set.
func (p PTE) With(flags uint64) PTE {
	return p | PTE(flags)
}

// Valid returns true iff the present bit is set.
func (p PTE) Valid() bool {
	return p&sva.PTEValid != 0
}

// Address returns the frame address bits of the entry.
func (p PTE) Address() uint64 {
	return uint64(p) & sva.AddrMask
}

// Frame returns the frame referenced by the entry.
func (p PTE) Frame() Frame {
	return FrameOf(p.Address())
}

// Writable returns true iff the entry permits writes.
func (p PTE) Writable() bool {
	return p&sva.PTEWritable != 0
}

// Executable returns true iff the entry permits instruction fetch.
func (p PTE) Executable() bool {
	return p&sva.PTENoExecute == 0
}

// User returns true iff the entry is accessible from user mode.
func (p PTE) User() bool {
	return p&sva.PTEUser != 0
}

// IsSuper returns true iff the entry maps a large page.
func (p PTE) IsSuper() bool {
	return p&sva.PTEPageSize != 0
}

// CacheDisabled returns true iff caching is disabled for the entry.
func (p PTE) CacheDisabled() bool {
	return p&sva.PTECacheDisable != 0
}

// Stack returns true iff the software stack bit is set.
func (p PTE) Stack() bool {
	return p&sva.PTEStack != 0
}

// AccessType returns the access permitted by a leaf entry.
func (p PTE) AccessType() hostarch.AccessType {
	if !p.Valid() {
		return hostarch.NoAccess
	}
	return hostarch.AccessType{
		Read:    true,
		Write:   p.Writable(),
		Execute: p.Executable(),
	}
}

// String implements fmt.Stringer.String.
func (p PTE) String() string {
	if !p.Valid() {
		return fmt.Sprintf("%#x(invalid)", uint64(p))
	}
	var flags []string
	if p.User() {
		flags = append(flags, "user")
	}
	if p.IsSuper() {
		flags = append(flags, "super")
	}
	if p.CacheDisabled() {
		flags = append(flags, "nocache")
	}
	if p.Stack() {
		flags = append(flags, "stack")
	}
	s := fmt.Sprintf("%#x %s", p.Address(), p.AccessType())
	if len(flags) > 0 {
		s += " " + strings.Join(flags, ",")
	}
	return s
}
