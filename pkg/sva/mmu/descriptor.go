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

import "fmt"

// Counter bounds. The counters are checked against these on every update;
// they never wrap.
const (
	MaxMappingCount = 1<<12 - 1
	MaxL1Count      = 1<<5 - 1
	MaxL2Count      = 1<<2 - 1
)

// Descriptor records what the isolation layer knows about one physical
// frame. There is one per frame, indexed by frame number.
//
// The zero value is an unused frame.
type Descriptor struct {
	// Type is the frame's current role.
	Type PageType

	// count is the number of live references to the frame.
	count uint16

	// l1Count is the number of L2 entries referencing the frame as an L1
	// table.
	l1Count uint8

	// l2Count is the number of L3 entries referencing the frame as an L2
	// table.
	l2Count uint8

	// l1User is set when the frame is an L1 table reachable from user mode.
	l1User bool

	// l1Kernel is set when the frame is an L1 table reachable only from
	// supervisor mode.
	l1Kernel bool

	// user is set when the frame is mapped by a user-accessible leaf.
	user bool

	// secure is set for frames that belong to the secure region, either as
	// secure data or as a page-table page created to map it.
	secure bool
}

// Count returns the number of live references to the frame.
func (d Descriptor) Count() int { return int(d.count) }

// L1Count returns the number of references to the frame as an L1 table.
func (d Descriptor) L1Count() int { return int(d.l1Count) }

// L2Count returns the number of references to the frame as an L2 table.
func (d Descriptor) L2Count() int { return int(d.l2Count) }

// L1User returns true if the frame is an L1 table mapped for user mode.
func (d Descriptor) L1User() bool { return d.l1User }

// L1Kernel returns true if the frame is an L1 table mapped for the kernel.
func (d Descriptor) L1Kernel() bool { return d.l1Kernel }

// User returns true if the frame is mapped by a user-accessible leaf.
func (d Descriptor) User() bool { return d.user }

// Secure returns true if the frame is part of the secure region.
func (d Descriptor) Secure() bool { return d.secure }

// IsActive returns true iff the frame currently has a role.
func (d Descriptor) IsActive() bool { return d.Type != PageUnused }

// IsFrame returns true for ordinary data and code frames.
func (d Descriptor) IsFrame() bool {
	return d.Type == PageKernelData || d.Type == PageUserData || d.Type == PageCode
}

// IsL1 returns true for L1 page-table pages.
func (d Descriptor) IsL1() bool { return d.Type == PageL1 }

// IsL2 returns true for L2 page-table pages.
func (d Descriptor) IsL2() bool { return d.Type == PageL2 }

// IsL3 returns true for L3 page-table pages.
func (d Descriptor) IsL3() bool { return d.Type == PageL3 }

// IsL4 returns true for L4 page-table pages.
func (d Descriptor) IsL4() bool { return d.Type == PageL4 }

// IsSystemPage returns true for frames owned by the isolation layer.
func (d Descriptor) IsSystemPage() bool { return d.Type == PageSystem }

// IsSecureMemPage returns true for secure memory frames.
func (d Descriptor) IsSecureMemPage() bool { return d.Type == PageSecureMem }

// IsReadOnly returns true for the roles hardware must never be allowed to
// write through a mapping.
func (d Descriptor) IsReadOnly() bool {
	switch d.Type {
	case PageL1, PageL2, PageL3, PageL4, PageCode, PageSystem:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.String.
func (d Descriptor) String() string {
	s := fmt.Sprintf("%s count=%d", d.Type, d.count)
	if d.l1Count > 0 || d.l2Count > 0 {
		s += fmt.Sprintf(" l1=%d l2=%d", d.l1Count, d.l2Count)
	}
	if d.l1User {
		s += " l1user"
	}
	if d.l1Kernel {
		s += " l1kernel"
	}
	if d.user {
		s += " user"
	}
	if d.secure {
		s += " secure"
	}
	return s
}

// checkedAdd returns v+delta, or false if the result leaves [0, max].
func checkedAdd(v uint16, delta int, max int) (uint16, bool) {
	n := int(v) + delta
	if n < 0 || n > max {
		return v, false
	}
	return uint16(n), true
}

// addRef adds a reference of the given kind. tableLevel is the level of the
// table the frame is referenced as, or zero for a leaf or declaration
// reference.
func (d *Descriptor) addRef(tableLevel int) error {
	c, ok := checkedAdd(d.count, 1, MaxMappingCount)
	if !ok {
		return fmt.Errorf("mapping count overflow (%d)", d.count)
	}
	switch tableLevel {
	case 1:
		l1, ok := checkedAdd(uint16(d.l1Count), 1, MaxL1Count)
		if !ok {
			return fmt.Errorf("l1 count overflow (%d)", d.l1Count)
		}
		d.l1Count = uint8(l1)
	case 2:
		l2, ok := checkedAdd(uint16(d.l2Count), 1, MaxL2Count)
		if !ok {
			return fmt.Errorf("l2 count overflow (%d)", d.l2Count)
		}
		d.l2Count = uint8(l2)
	}
	d.count = c
	return nil
}

// dropRef removes a reference added with the same tableLevel. It reports
// whether the last reference is gone.
func (d *Descriptor) dropRef(tableLevel int) (bool, error) {
	c, ok := checkedAdd(d.count, -1, MaxMappingCount)
	if !ok {
		return false, fmt.Errorf("mapping count underflow")
	}
	switch tableLevel {
	case 1:
		l1, ok := checkedAdd(uint16(d.l1Count), -1, MaxL1Count)
		if !ok {
			return false, fmt.Errorf("l1 count underflow")
		}
		d.l1Count = uint8(l1)
	case 2:
		l2, ok := checkedAdd(uint16(d.l2Count), -1, MaxL2Count)
		if !ok {
			return false, fmt.Errorf("l2 count underflow")
		}
		d.l2Count = uint8(l2)
	}
	d.count = c
	return c == 0, nil
}
