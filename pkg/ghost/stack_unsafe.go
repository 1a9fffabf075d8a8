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
	"unsafe"

	"vghost.dev/vghost/pkg/hostarch"
)

func sliceAddr(b []byte) hostarch.Addr {
	return hostarch.Addr(unsafe.Pointer(unsafe.SliceData(b)))
}

// pointer returns a Go pointer to the stack at addr.
func (s *Stack) pointer(addr hostarch.Addr, n uintptr) unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(s.Bytes(addr, int(n))))
}

// allocValue reserves zeroed, aligned space for a T. It returns 0 without
// allocating if v is nil.
func allocValue[T any](s *Stack, v *T) hostarch.Addr {
	if v == nil {
		return 0
	}
	return s.allocate(unsafe.Sizeof(*v), unsafe.Alignof(*v))
}

// copyInValue reserves space for a T and copies *v into it. It returns 0
// without allocating if v is nil.
func copyInValue[T any](s *Stack, v *T) hostarch.Addr {
	addr := allocValue(s, v)
	if addr != 0 {
		*(*T)(s.pointer(addr, unsafe.Sizeof(*v))) = *v
	}
	return addr
}

// copyOutValue copies the T at addr into *v. It does nothing if either is
// zero.
func copyOutValue[T any](s *Stack, addr hostarch.Addr, v *T) {
	if addr == 0 || v == nil {
		return
	}
	*v = *(*T)(s.pointer(addr, unsafe.Sizeof(*v)))
}
