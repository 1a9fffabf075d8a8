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

package ghost

import (
	"fmt"

	"golang.org/x/sys/unix"
	"vghost.dev/vghost/pkg/hostarch"
	"vghost.dev/vghost/pkg/log"
	"vghost.dev/vghost/pkg/sva/mmu"
)

// ExhaustedError is the panic value raised when the traditional memory
// stack cannot satisfy an allocation.
type ExhaustedError struct {
	Requested uintptr
	Available uintptr
}

// Error implements error.Error.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("traditional memory exhausted: requested %d bytes, %d available", e.Requested, e.Available)
}

// Stack is the traditional memory stack: a region outside secure memory,
// visible to the kernel, used to stage syscall arguments and results.
//
// Allocation moves the cursor down from the top of the region. Allocations
// are released only by restoring an earlier cursor value, so they are
// strictly LIFO.
//
// Stack is not safe for concurrent use.
type Stack struct {
	mem  []byte
	base hostarch.Addr
	sp   hostarch.Addr
}

// NewStack maps a stack of size bytes.
func NewStack(size int) (*Stack, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid traditional memory size %d", size)
	}
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("failed to map traditional memory: %w", err)
	}
	base := sliceAddr(mem)
	r, ok := base.ToRange(uint64(size))
	if !ok || r.Overlaps(mmu.SecureRange()) {
		unix.Munmap(mem)
		return nil, fmt.Errorf("traditional memory [%v, %v) overlaps secure memory", base, base+hostarch.Addr(size))
	}
	return &Stack{mem: mem, base: base, sp: r.End}, nil
}

// Release unmaps the stack. s must not be used afterwards.
func (s *Stack) Release() error {
	if s.mem == nil {
		return nil
	}
	err := unix.Munmap(s.mem)
	s.mem = nil
	return err
}

// Base returns the lowest address of the stack.
func (s *Stack) Base() hostarch.Addr {
	return s.base
}

// Size returns the size of the stack in bytes.
func (s *Stack) Size() int {
	return len(s.mem)
}

// Range returns the address range of the stack.
func (s *Stack) Range() hostarch.AddrRange {
	return hostarch.AddrRange{Start: s.base, End: s.base + hostarch.Addr(len(s.mem))}
}

// Available returns the number of bytes left below the cursor.
func (s *Stack) Available() int {
	return int(s.sp - s.base)
}

// Mark returns the current cursor.
func (s *Stack) Mark() hostarch.Addr {
	return s.sp
}

// Restore moves the cursor back to a value returned by Mark.
func (s *Stack) Restore(mark hostarch.Addr) {
	if !s.Range().Contains(mark) && mark != s.base+hostarch.Addr(len(s.mem)) {
		panic(fmt.Sprintf("cursor %v outside traditional memory [%v, %v)", mark, s.base, s.base+hostarch.Addr(len(s.mem))))
	}
	s.sp = mark
}

// Allocate reserves n bytes and returns their address. The contents are
// zeroed.
func (s *Stack) Allocate(n int) hostarch.Addr {
	return s.allocate(uintptr(n), 1)
}

func (s *Stack) allocate(n, align uintptr) hostarch.Addr {
	avail := uintptr(s.sp - s.base)
	sp := (s.sp - hostarch.Addr(n)) &^ hostarch.Addr(align-1)
	if n > avail || sp < s.base {
		e := &ExhaustedError{Requested: n, Available: avail}
		log.Warningf("Traditional memory stack: %v", e)
		panic(e)
	}
	s.sp = sp
	clear(s.Bytes(sp, int(n)))
	return sp
}

// AllocateAndCopy copies src into the stack and returns its address. An
// empty src allocates nothing and returns 0.
func (s *Stack) AllocateAndCopy(src []byte) hostarch.Addr {
	if len(src) == 0 {
		return 0
	}
	addr := s.Allocate(len(src))
	copy(s.Bytes(addr, len(src)), src)
	return addr
}

// AllocateAndCopyString copies str and a terminating NUL into the stack and
// returns its address.
func (s *Stack) AllocateAndCopyString(str string) hostarch.Addr {
	addr := s.Allocate(len(str) + 1)
	b := s.Bytes(addr, len(str)+1)
	copy(b, str)
	b[len(str)] = 0
	return addr
}

// Bytes returns the n bytes of the stack at addr.
func (s *Stack) Bytes(addr hostarch.Addr, n int) []byte {
	if addr < s.base || n < 0 || uint64(addr-s.base)+uint64(n) > uint64(len(s.mem)) {
		panic(fmt.Sprintf("[%v, +%d) outside traditional memory", addr, n))
	}
	off := int(addr - s.base)
	return s.mem[off : off+n : off+n]
}

// Contains returns true iff [addr, addr+n) lies inside the stack.
func (s *Stack) Contains(addr hostarch.Addr, n uint64) bool {
	r, ok := addr.ToRange(n)
	return ok && s.Range().IsSupersetOf(r)
}
