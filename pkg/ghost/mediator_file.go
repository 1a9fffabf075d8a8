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
	"strings"

	"golang.org/x/sys/unix"
	"vghost.dev/vghost/pkg/hostarch"
)

// stagePath copies a path into traditional memory. Paths with an embedded
// NUL cannot be represented and are refused.
func (m *Mediator) stagePath(path string) (hostarch.Addr, unix.Errno) {
	if strings.IndexByte(path, 0) >= 0 {
		return 0, unix.EINVAL
	}
	return m.stack.AllocateAndCopyString(path), 0
}

// Open implements Syscalls.Open.
func (m *Mediator) Open(path string, flags int, mode uint32) (int, unix.Errno) {
	defer m.stack.Restore(m.stack.Mark())

	pathp, errno := m.stagePath(path)
	var r uintptr
	if errno == 0 {
		r, errno = m.syscall(sysOpenat, atFDCWD, uintptr(pathp), uintptr(flags), uintptr(mode))
	}
	ret := result(r, errno)
	m.journal.Record("open", ret, errno, path)
	return ret, errno
}

// Close implements Syscalls.Close. The journal's own descriptor cannot be
// closed.
func (m *Mediator) Close(fd int) (int, unix.Errno) {
	if fd >= 0 && fd == m.journal.Fd() {
		m.journal.Record("close", -1, unix.EBADF, fd)
		return -1, unix.EBADF
	}
	r, errno := m.syscall(sysClose, uintptr(fd))
	ret := result(r, errno)
	m.journal.Record("close", ret, errno, fd)
	return ret, errno
}

// Mkdir implements Syscalls.Mkdir.
func (m *Mediator) Mkdir(path string, mode uint32) (int, unix.Errno) {
	defer m.stack.Restore(m.stack.Mark())

	pathp, errno := m.stagePath(path)
	var r uintptr
	if errno == 0 {
		r, errno = m.syscall(sysMkdirat, atFDCWD, uintptr(pathp), uintptr(mode))
	}
	ret := result(r, errno)
	m.journal.Record("mkdir", ret, errno, path)
	return ret, errno
}

// Readlink implements Syscalls.Readlink. It copies back only the bytes the
// kernel wrote.
func (m *Mediator) Readlink(path string, buf []byte) (int, unix.Errno) {
	defer m.stack.Restore(m.stack.Mark())

	pathp, errno := m.stagePath(path)
	var r uintptr
	if errno == 0 {
		bufp := m.stack.Allocate(len(buf))
		r, errno = m.syscall(sysReadlinkat, atFDCWD, uintptr(pathp), uintptr(bufp), uintptr(len(buf)))
		if errno == 0 {
			m.copyOut(buf, bufp, int(r))
		}
	}
	ret := result(r, errno)
	m.journal.Record("readlink", ret, errno, path)
	return ret, errno
}

// Stat implements Syscalls.Stat.
func (m *Mediator) Stat(path string, st *unix.Stat_t) (int, unix.Errno) {
	defer m.stack.Restore(m.stack.Mark())

	pathp, errno := m.stagePath(path)
	var r uintptr
	if errno == 0 {
		stp := allocValue(m.stack, st)
		r, errno = m.syscall(sysFstatat, atFDCWD, uintptr(pathp), uintptr(stp), 0)
		if errno == 0 {
			copyOutValue(m.stack, stp, st)
		}
	}
	ret := result(r, errno)
	m.journal.Record("stat", ret, errno, path)
	return ret, errno
}

// Fstat implements Syscalls.Fstat.
func (m *Mediator) Fstat(fd int, st *unix.Stat_t) (int, unix.Errno) {
	defer m.stack.Restore(m.stack.Mark())

	stp := allocValue(m.stack, st)
	r, errno := m.syscall(sysFstat, uintptr(fd), uintptr(stp))
	if errno == 0 {
		copyOutValue(m.stack, stp, st)
	}
	ret := result(r, errno)
	m.journal.Record("fstat", ret, errno, fd)
	return ret, errno
}

// Read implements Syscalls.Read. buf is only written on success.
func (m *Mediator) Read(fd int, buf []byte) (int, unix.Errno) {
	defer m.stack.Restore(m.stack.Mark())

	bufp := m.stack.Allocate(len(buf))
	r, errno := m.syscall(sysRead, uintptr(fd), uintptr(bufp), uintptr(len(buf)))
	if errno == 0 {
		m.copyOut(buf, bufp, int(r))
	}
	ret := result(r, errno)
	m.journal.Record("read", ret, errno, fd)
	return ret, errno
}

// Write implements Syscalls.Write.
func (m *Mediator) Write(fd int, buf []byte) (int, unix.Errno) {
	defer m.stack.Restore(m.stack.Mark())

	bufp := m.stack.AllocateAndCopy(buf)
	r, errno := m.syscall(sysWrite, uintptr(fd), uintptr(bufp), uintptr(len(buf)))
	ret := result(r, errno)
	m.journal.Record("write", ret, errno, fd)
	return ret, errno
}
