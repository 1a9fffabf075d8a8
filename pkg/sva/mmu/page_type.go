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

// PageType is the role a frame plays. A frame has exactly one at a time.
type PageType uint8

// Frame roles.
const (
	PageUnused PageType = iota
	PageL1
	PageL2
	PageL3
	PageL4
	PageCode
	PageKernelData
	PageUserData
	PageStack
	PageIO
	PageSystem
	PageSecureMem

	numPageTypes
)

var pageTypeNames = [numPageTypes]string{
	PageUnused:     "unused",
	PageL1:         "l1",
	PageL2:         "l2",
	PageL3:         "l3",
	PageL4:         "l4",
	PageCode:       "code",
	PageKernelData: "kdata",
	PageUserData:   "udata",
	PageStack:      "stack",
	PageIO:         "io",
	PageSystem:     "system",
	PageSecureMem:  "secmem",
}

// String implements fmt.Stringer.String.
func (t PageType) String() string {
	if t < numPageTypes {
		return pageTypeNames[t]
	}
	return fmt.Sprintf("PageType(%d)", uint8(t))
}

// ParsePageType is the inverse of PageType.String.
func ParsePageType(s string) (PageType, error) {
	for t, name := range pageTypeNames {
		if name == s {
			return PageType(t), nil
		}
	}
	return PageUnused, fmt.Errorf("unknown page type %q", s)
}

// TableType returns the role of a page-table page at the given level.
//
// Preconditions: 1 <= level <= 4.
func TableType(level int) PageType {
	return PageL1 + PageType(level-1)
}

// IsTable returns true iff t is one of the page-table roles.
func (t PageType) IsTable() bool {
	return t >= PageL1 && t <= PageL4
}

// TableLevel returns the level of a page-table role, or zero.
func (t PageType) TableLevel() int {
	if !t.IsTable() {
		return 0
	}
	return int(t-PageL1) + 1
}

// isWritableData returns true for the roles that may legitimately be mapped
// writable. They form one compatibility class.
func (t PageType) isWritableData() bool {
	return t == PageKernelData || t == PageUserData || t == PageStack
}
