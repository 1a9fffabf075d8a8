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

import "testing"

func TestMappingCountBounds(t *testing.T) {
	var d Descriptor
	for i := 0; i < MaxMappingCount; i++ {
		if err := d.addRef(0); err != nil {
			t.Fatalf("addRef #%d failed: %v", i, err)
		}
	}
	if err := d.addRef(0); err == nil {
		t.Fatalf("addRef past %d succeeded", MaxMappingCount)
	}
	if got := d.Count(); got != MaxMappingCount {
		t.Errorf("Count() = %d after overflow, want %d", got, MaxMappingCount)
	}
}

func TestSubCountBounds(t *testing.T) {
	for _, tc := range []struct {
		level int
		max   int
		get   func(Descriptor) int
	}{
		{1, MaxL1Count, Descriptor.L1Count},
		{2, MaxL2Count, Descriptor.L2Count},
	} {
		var d Descriptor
		for i := 0; i < tc.max; i++ {
			if err := d.addRef(tc.level); err != nil {
				t.Fatalf("level %d: addRef #%d failed: %v", tc.level, i, err)
			}
		}
		if err := d.addRef(tc.level); err == nil {
			t.Errorf("level %d: addRef past %d succeeded", tc.level, tc.max)
		}
		if got := tc.get(d); got != tc.max {
			t.Errorf("level %d: sub-count = %d, want %d", tc.level, got, tc.max)
		}
		if got := d.Count(); got != tc.max {
			t.Errorf("level %d: Count() = %d, want %d", tc.level, got, tc.max)
		}
	}
}

func TestDropRefUnderflow(t *testing.T) {
	var d Descriptor
	if _, err := d.dropRef(0); err == nil {
		t.Errorf("dropRef on an unreferenced frame succeeded")
	}

	d.Type = PageL1
	if err := d.addRef(0); err != nil {
		t.Fatalf("addRef failed: %v", err)
	}
	if _, err := d.dropRef(1); err == nil {
		t.Errorf("dropRef(1) without an L1 reference succeeded")
	}
	last, err := d.dropRef(0)
	if err != nil || !last {
		t.Errorf("dropRef(0) = %t, %v, want true, nil", last, err)
	}
}

func TestTableType(t *testing.T) {
	for level := 1; level <= 4; level++ {
		typ := TableType(level)
		if !typ.IsTable() || typ.TableLevel() != level {
			t.Errorf("TableType(%d) = %v with level %d", level, typ, typ.TableLevel())
		}
	}
	for _, typ := range []PageType{PageUnused, PageCode, PageUserData, PageSystem, PageSecureMem} {
		if typ.IsTable() {
			t.Errorf("%v.IsTable() = true", typ)
		}
	}
}
