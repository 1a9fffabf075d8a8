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
	"vghost.dev/vghost/pkg/abi/linux"
)

// Syscalls is the system call surface available to an isolated process.
//
// Return values and errnos are those of the host call. Buffers and structs
// passed in are the caller's own memory; an implementation decides whether
// the kernel sees them directly.
type Syscalls interface {
	Accept(fd int, addr []byte, addrlen *uint32) (int, unix.Errno)
	Connect(fd int, addr []byte) (int, unix.Errno)
	Bind(fd int, addr []byte) (int, unix.Errno)
	Getsockopt(fd, level, name int, val []byte, vallen *uint32) (int, unix.Errno)
	Getpeereid(fd int, euid, egid *uint32) (int, unix.Errno)
	Select(nfd int, r, w, e *unix.FdSet, timeout *unix.Timeval) (int, unix.Errno)
	Pselect(nfd int, r, w, e *unix.FdSet, timeout *unix.Timespec, sigmask *linux.SignalSet) (int, unix.Errno)
	Open(path string, flags int, mode uint32) (int, unix.Errno)
	Close(fd int) (int, unix.Errno)
	Mkdir(path string, mode uint32) (int, unix.Errno)
	Readlink(path string, buf []byte) (int, unix.Errno)
	Stat(path string, st *unix.Stat_t) (int, unix.Errno)
	Fstat(fd int, st *unix.Stat_t) (int, unix.Errno)
	Read(fd int, buf []byte) (int, unix.Errno)
	Write(fd int, buf []byte) (int, unix.Errno)
	ClockGettime(clock int32, ts *unix.Timespec) (int, unix.Errno)

	// Signal installs handler for sig with BSD semantics and returns the
	// previous handler.
	Signal(sig linux.Signal, handler uintptr) (uintptr, unix.Errno)

	Sigaction(sig linux.Signal, act, oact *linux.SigAction) (int, unix.Errno)
}

// Host system calls used by the wrappers.
const (
	sysAccept       = unix.SYS_ACCEPT
	sysConnect      = unix.SYS_CONNECT
	sysBind         = unix.SYS_BIND
	sysGetsockopt   = unix.SYS_GETSOCKOPT
	sysPselect6     = unix.SYS_PSELECT6
	sysOpenat       = unix.SYS_OPENAT
	sysClose        = unix.SYS_CLOSE
	sysMkdirat      = unix.SYS_MKDIRAT
	sysReadlinkat   = unix.SYS_READLINKAT
	sysFstat        = unix.SYS_FSTAT
	sysRead         = unix.SYS_READ
	sysWrite        = unix.SYS_WRITE
	sysClockGettime = unix.SYS_CLOCK_GETTIME
	sysRtSigaction  = unix.SYS_RT_SIGACTION
)

// atFDCWD is AT_FDCWD as a syscall argument.
const atFDCWD = ^uintptr(99) // -100

// sigErr is SIG_ERR.
const sigErr = ^uintptr(0)

// SyscallInfo describes one mediated call.
type SyscallInfo struct {
	// Name is the name of the wrapped operation.
	Name string

	// Number is the host system call the wrapper issues.
	Number uintptr

	// Inputs and Outputs list the pointer arguments staged through
	// traditional memory in each direction.
	Inputs  []string
	Outputs []string
}

// Table lists every mediated call, in the order of the Syscalls interface.
var Table = []SyscallInfo{
	{Name: "accept", Number: sysAccept, Inputs: []string{"addrlen"}, Outputs: []string{"addr", "addrlen"}},
	{Name: "connect", Number: sysConnect, Inputs: []string{"addr"}},
	{Name: "bind", Number: sysBind, Inputs: []string{"addr"}},
	{Name: "getsockopt", Number: sysGetsockopt, Inputs: []string{"optlen"}, Outputs: []string{"optval", "optlen"}},
	{Name: "getpeereid", Number: sysGetsockopt, Outputs: []string{"euid", "egid"}},
	{Name: "select", Number: sysPselect6, Inputs: []string{"readfds", "writefds", "exceptfds", "timeout"}, Outputs: []string{"readfds", "writefds", "exceptfds", "timeout"}},
	{Name: "pselect", Number: sysPselect6, Inputs: []string{"readfds", "writefds", "exceptfds", "timeout", "sigmask"}, Outputs: []string{"readfds", "writefds", "exceptfds"}},
	{Name: "open", Number: sysOpenat, Inputs: []string{"path"}},
	{Name: "close", Number: sysClose},
	{Name: "mkdir", Number: sysMkdirat, Inputs: []string{"path"}},
	{Name: "readlink", Number: sysReadlinkat, Inputs: []string{"path"}, Outputs: []string{"buf"}},
	{Name: "stat", Number: sysFstatat, Inputs: []string{"path"}, Outputs: []string{"sb"}},
	{Name: "fstat", Number: sysFstat, Outputs: []string{"sb"}},
	{Name: "read", Number: sysRead, Outputs: []string{"buf"}},
	{Name: "write", Number: sysWrite, Inputs: []string{"buf"}},
	{Name: "clock_gettime", Number: sysClockGettime, Outputs: []string{"tp"}},
	{Name: "signal", Number: sysRtSigaction},
	{Name: "sigaction", Number: sysRtSigaction, Inputs: []string{"act"}, Outputs: []string{"oact"}},
}

// Lookup returns the table entry for name.
func Lookup(name string) (SyscallInfo, bool) {
	for _, si := range Table {
		if si.Name == name {
			return si, true
		}
	}
	return SyscallInfo{}, false
}
