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
	"golang.org/x/sys/unix"
)

// Accept implements Syscalls.Accept.
//
// The address buffer is bounded by the smaller of *addrlen and len(addr); on
// return *addrlen holds the length the kernel reported.
func (m *Mediator) Accept(fd int, addr []byte, addrlen *uint32) (int, unix.Errno) {
	defer m.stack.Restore(m.stack.Mark())

	var (
		r     uintptr
		errno unix.Errno
	)
	if len(addr) > 0 && addrlen != nil {
		declared := min(*addrlen, uint32(len(addr)))
		addrp := m.stack.Allocate(int(declared))
		lenp := copyInValue(m.stack, &declared)
		r, errno = m.syscall(sysAccept, uintptr(fd), uintptr(addrp), uintptr(lenp))
		if errno == 0 {
			var got uint32
			copyOutValue(m.stack, lenp, &got)
			m.copyOut(addr, addrp, int(min(got, declared)))
			*addrlen = got
		}
	} else {
		r, errno = m.syscall(sysAccept, uintptr(fd), 0, 0)
	}

	ret := result(r, errno)
	m.journal.Record("accept", ret, errno, fd)
	return ret, errno
}

// Connect implements Syscalls.Connect.
func (m *Mediator) Connect(fd int, addr []byte) (int, unix.Errno) {
	defer m.stack.Restore(m.stack.Mark())

	addrp := m.stack.AllocateAndCopy(addr)
	r, errno := m.syscall(sysConnect, uintptr(fd), uintptr(addrp), uintptr(len(addr)))
	ret := result(r, errno)
	m.journal.Record("connect", ret, errno, fd)
	return ret, errno
}

// Bind implements Syscalls.Bind.
func (m *Mediator) Bind(fd int, addr []byte) (int, unix.Errno) {
	defer m.stack.Restore(m.stack.Mark())

	addrp := m.stack.AllocateAndCopy(addr)
	r, errno := m.syscall(sysBind, uintptr(fd), uintptr(addrp), uintptr(len(addr)))
	ret := result(r, errno)
	m.journal.Record("bind", ret, errno, fd)
	return ret, errno
}

// Getsockopt implements Syscalls.Getsockopt.
//
// The value buffer is bounded by the smaller of *vallen and len(val). Only
// the length the kernel reports is copied back, and *vallen is set to it.
func (m *Mediator) Getsockopt(fd, level, name int, val []byte, vallen *uint32) (int, unix.Errno) {
	defer m.stack.Restore(m.stack.Mark())

	var declared uint32
	if vallen != nil {
		declared = min(*vallen, uint32(len(val)))
	}
	valp := m.stack.Allocate(int(declared))
	lenp := copyInValue(m.stack, &declared)
	if vallen == nil {
		lenp = 0
	}
	r, errno := m.syscall(sysGetsockopt, uintptr(fd), uintptr(level), uintptr(name), uintptr(valp), uintptr(lenp))
	if errno == 0 && vallen != nil {
		var got uint32
		copyOutValue(m.stack, lenp, &got)
		m.copyOut(val, valp, int(min(got, declared)))
		*vallen = got
	}

	ret := result(r, errno)
	m.journal.Record("getsockopt", ret, errno, fd, level, name)
	return ret, errno
}

// Getpeereid implements Syscalls.Getpeereid using the peer credentials of a
// connected Unix domain socket.
func (m *Mediator) Getpeereid(fd int, euid, egid *uint32) (int, unix.Errno) {
	defer m.stack.Restore(m.stack.Mark())

	var cred unix.Ucred
	credp := allocValue(m.stack, &cred)
	credLen := uint32(unix.SizeofUcred)
	lenp := copyInValue(m.stack, &credLen)
	r, errno := m.syscall(sysGetsockopt, uintptr(fd), unix.SOL_SOCKET, unix.SO_PEERCRED, uintptr(credp), uintptr(lenp))
	if errno == 0 {
		copyOutValue(m.stack, credp, &cred)
		if euid != nil {
			*euid = cred.Uid
		}
		if egid != nil {
			*egid = cred.Gid
		}
	}

	ret := result(r, errno)
	m.journal.Record("getpeereid", ret, errno, fd)
	return ret, errno
}
