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
	"io"

	"golang.org/x/sys/unix"
	"vghost.dev/vghost/pkg/hostarch"
)

// Mediator implements Syscalls for an isolated process. No argument it
// passes to the kernel points into the caller's memory: every pointer input
// is first copied into traditional memory, and every output is copied back
// from there once the call returns.
//
// Each call releases the traditional memory it used before returning, on
// every path.
//
// Mediator is not safe for concurrent use.
type Mediator struct {
	k       Kernel
	stack   *Stack
	allow   *AllowList
	journal *Journal
}

var _ Syscalls = (*Mediator)(nil)

// NewMediator returns a Mediator staging through s. A nil journal discards
// records.
func NewMediator(k Kernel, s *Stack, allow *AllowList, journal *Journal) *Mediator {
	if journal == nil {
		journal = NewJournal(io.Discard)
	}
	return &Mediator{
		k:       k,
		stack:   s,
		allow:   allow,
		journal: journal,
	}
}

// Stack returns the traditional memory stack used for staging.
func (m *Mediator) Stack() *Stack {
	return m.stack
}

func (m *Mediator) syscall(trap uintptr, args ...uintptr) (uintptr, unix.Errno) {
	var a [6]uintptr
	copy(a[:], args)
	return m.k.Syscall6(trap, a[0], a[1], a[2], a[3], a[4], a[5])
}

// result converts a raw return value to the int seen by callers.
func result(r uintptr, errno unix.Errno) int {
	if errno != 0 {
		return -1
	}
	return int(r)
}

// copyOut copies up to len(dst) bytes of traditional memory at src into dst,
// bounded by n. It returns the number of bytes copied.
func (m *Mediator) copyOut(dst []byte, src hostarch.Addr, n int) int {
	n = max(min(n, len(dst)), 0)
	if n == 0 || src == 0 {
		return 0
	}
	return copy(dst, m.stack.Bytes(src, n))
}
