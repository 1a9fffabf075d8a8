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
	"sync/atomic"
	"unsafe"

	"vghost.dev/vghost/pkg/hostarch"
)

func (m *Memory) word(addr hostarch.Addr) *uint64 {
	return (*uint64)(unsafe.Pointer(&m.mem[m.offset(addr)]))
}

// Load64 implements mmu.Memory.Load64.
func (m *Memory) Load64(addr hostarch.Addr) uint64 {
	return atomic.LoadUint64(m.word(addr))
}

// Store64 implements mmu.Memory.Store64.
func (m *Memory) Store64(addr hostarch.Addr, val uint64) {
	atomic.StoreUint64(m.word(addr), val)
}
