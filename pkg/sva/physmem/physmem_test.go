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

package physmem

import (
	"encoding/binary"
	"testing"

	"vghost.dev/vghost/pkg/abi/sva"
	"vghost.dev/vghost/pkg/sva/mmu"
)

func TestLoadStore(t *testing.T) {
	m, err := New(4)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer m.Release()

	if got := m.Frames(); got != 4 {
		t.Errorf("Frames() = %d, want 4", got)
	}
	addr, ok := mmu.PhysToBookkeeping(2*sva.PageSize + 16)
	if !ok {
		t.Fatalf("PhysToBookkeeping failed")
	}
	if got := m.Load64(addr); got != 0 {
		t.Errorf("fresh memory reads %#x, want 0", got)
	}
	m.Store64(addr, 0xdeadbeefcafe)
	if got := m.Load64(addr); got != 0xdeadbeefcafe {
		t.Errorf("Load64 = %#x, want %#x", got, 0xdeadbeefcafe)
	}
	if got := binary.LittleEndian.Uint64(m.Frame(2)[16:]); got != 0xdeadbeefcafe {
		t.Errorf("frame bytes hold %#x, want %#x", got, 0xdeadbeefcafe)
	}
}

func TestBadAddress(t *testing.T) {
	m, err := New(1)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer m.Release()

	for _, phys := range []uint64{sva.PageSize, 4} {
		addr, _ := mmu.PhysToBookkeeping(phys)
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Load64(%#x) did not panic", phys)
				}
			}()
			m.Load64(addr)
		}()
	}
}

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Errorf("New(0) succeeded")
	}
}
