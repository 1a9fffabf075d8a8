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

import "golang.org/x/sys/unix"

// Kernel issues system calls on behalf of the mediation layer. Every pointer
// argument it receives is an address in traditional memory.
type Kernel interface {
	Syscall6(trap, a1, a2, a3, a4, a5, a6 uintptr) (uintptr, unix.Errno)
}

// HostKernel is the Kernel of the host.
type HostKernel struct{}

// Syscall6 implements Kernel.Syscall6.
func (HostKernel) Syscall6(trap, a1, a2, a3, a4, a5, a6 uintptr) (uintptr, unix.Errno) {
	r, _, errno := unix.Syscall6(trap, a1, a2, a3, a4, a5, a6)
	return r, errno
}
