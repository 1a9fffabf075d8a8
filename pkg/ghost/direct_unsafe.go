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

	"golang.org/x/sys/unix"
	"vghost.dev/vghost/pkg/abi/linux"
)

// Direct implements Syscalls by passing the caller's memory straight to the
// host. It is used when the process is not isolated.
type Direct struct{}

var _ Syscalls = Direct{}

func bufPtr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}

func sys(trap, a1, a2, a3, a4, a5, a6 uintptr) (int, unix.Errno) {
	r, _, errno := unix.Syscall6(trap, a1, a2, a3, a4, a5, a6)
	return result(r, errno), errno
}

// Accept implements Syscalls.Accept.
func (Direct) Accept(fd int, addr []byte, addrlen *uint32) (int, unix.Errno) {
	if len(addr) == 0 || addrlen == nil {
		return sys(sysAccept, uintptr(fd), 0, 0, 0, 0, 0)
	}
	n := min(*addrlen, uint32(len(addr)))
	r, _, errno := unix.Syscall(sysAccept, uintptr(fd), uintptr(bufPtr(addr)), uintptr(unsafe.Pointer(&n)))
	if errno == 0 {
		*addrlen = n
	}
	return result(r, errno), errno
}

// Connect implements Syscalls.Connect.
func (Direct) Connect(fd int, addr []byte) (int, unix.Errno) {
	r, _, errno := unix.Syscall(sysConnect, uintptr(fd), uintptr(bufPtr(addr)), uintptr(len(addr)))
	return result(r, errno), errno
}

// Bind implements Syscalls.Bind.
func (Direct) Bind(fd int, addr []byte) (int, unix.Errno) {
	r, _, errno := unix.Syscall(sysBind, uintptr(fd), uintptr(bufPtr(addr)), uintptr(len(addr)))
	return result(r, errno), errno
}

// Getsockopt implements Syscalls.Getsockopt.
func (Direct) Getsockopt(fd, level, name int, val []byte, vallen *uint32) (int, unix.Errno) {
	var lenp *uint32
	var n uint32
	if vallen != nil {
		n = min(*vallen, uint32(len(val)))
		lenp = &n
	}
	r, _, errno := unix.Syscall6(sysGetsockopt, uintptr(fd), uintptr(level), uintptr(name), uintptr(bufPtr(val)), uintptr(unsafe.Pointer(lenp)), 0)
	if errno == 0 && vallen != nil {
		*vallen = n
	}
	return result(r, errno), errno
}

// Getpeereid implements Syscalls.Getpeereid.
func (Direct) Getpeereid(fd int, euid, egid *uint32) (int, unix.Errno) {
	cred, err := unix.GetsockoptUcred(fd, unix.SOL_SOCKET, unix.SO_PEERCRED)
	if err != nil {
		return -1, err.(unix.Errno)
	}
	if euid != nil {
		*euid = cred.Uid
	}
	if egid != nil {
		*egid = cred.Gid
	}
	return 0, 0
}

// Select implements Syscalls.Select.
func (Direct) Select(nfd int, r, w, e *unix.FdSet, timeout *unix.Timeval) (int, unix.Errno) {
	n, err := unix.Select(nfd, r, w, e, timeout)
	if err != nil {
		return -1, err.(unix.Errno)
	}
	return n, 0
}

// Pselect implements Syscalls.Pselect.
func (Direct) Pselect(nfd int, r, w, e *unix.FdSet, timeout *unix.Timespec, sigmask *linux.SignalSet) (int, unix.Errno) {
	var (
		ts  *unix.Timespec
		arg *sigsetArg
	)
	if timeout != nil {
		t := *timeout
		ts = &t
	}
	if sigmask != nil {
		arg = &sigsetArg{ss: uintptr(unsafe.Pointer(sigmask)), ssLen: linux.SignalSetSize}
	}
	res, _, errno := unix.Syscall6(sysPselect6, uintptr(nfd), uintptr(unsafe.Pointer(r)), uintptr(unsafe.Pointer(w)), uintptr(unsafe.Pointer(e)), uintptr(unsafe.Pointer(ts)), uintptr(unsafe.Pointer(arg)))
	return result(res, errno), errno
}

// Open implements Syscalls.Open.
func (Direct) Open(path string, flags int, mode uint32) (int, unix.Errno) {
	p, err := unix.BytePtrFromString(path)
	if err != nil {
		return -1, unix.EINVAL
	}
	r, _, errno := unix.Syscall6(sysOpenat, atFDCWD, uintptr(unsafe.Pointer(p)), uintptr(flags), uintptr(mode), 0, 0)
	return result(r, errno), errno
}

// Close implements Syscalls.Close.
func (Direct) Close(fd int) (int, unix.Errno) {
	return sys(sysClose, uintptr(fd), 0, 0, 0, 0, 0)
}

// Mkdir implements Syscalls.Mkdir.
func (Direct) Mkdir(path string, mode uint32) (int, unix.Errno) {
	p, err := unix.BytePtrFromString(path)
	if err != nil {
		return -1, unix.EINVAL
	}
	r, _, errno := unix.Syscall(sysMkdirat, atFDCWD, uintptr(unsafe.Pointer(p)), uintptr(mode))
	return result(r, errno), errno
}

// Readlink implements Syscalls.Readlink.
func (Direct) Readlink(path string, buf []byte) (int, unix.Errno) {
	p, err := unix.BytePtrFromString(path)
	if err != nil {
		return -1, unix.EINVAL
	}
	r, _, errno := unix.Syscall6(sysReadlinkat, atFDCWD, uintptr(unsafe.Pointer(p)), uintptr(bufPtr(buf)), uintptr(len(buf)), 0, 0)
	return result(r, errno), errno
}

// Stat implements Syscalls.Stat.
func (Direct) Stat(path string, st *unix.Stat_t) (int, unix.Errno) {
	p, err := unix.BytePtrFromString(path)
	if err != nil {
		return -1, unix.EINVAL
	}
	r, _, errno := unix.Syscall6(sysFstatat, atFDCWD, uintptr(unsafe.Pointer(p)), uintptr(unsafe.Pointer(st)), 0, 0, 0)
	return result(r, errno), errno
}

// Fstat implements Syscalls.Fstat.
func (Direct) Fstat(fd int, st *unix.Stat_t) (int, unix.Errno) {
	r, _, errno := unix.Syscall(sysFstat, uintptr(fd), uintptr(unsafe.Pointer(st)), 0)
	return result(r, errno), errno
}

// Read implements Syscalls.Read.
func (Direct) Read(fd int, buf []byte) (int, unix.Errno) {
	r, _, errno := unix.Syscall(sysRead, uintptr(fd), uintptr(bufPtr(buf)), uintptr(len(buf)))
	return result(r, errno), errno
}

// Write implements Syscalls.Write.
func (Direct) Write(fd int, buf []byte) (int, unix.Errno) {
	r, _, errno := unix.Syscall(sysWrite, uintptr(fd), uintptr(bufPtr(buf)), uintptr(len(buf)))
	return result(r, errno), errno
}

// ClockGettime implements Syscalls.ClockGettime.
func (Direct) ClockGettime(clock int32, ts *unix.Timespec) (int, unix.Errno) {
	r, _, errno := unix.Syscall(sysClockGettime, uintptr(clock), uintptr(unsafe.Pointer(ts)), 0)
	return result(r, errno), errno
}

// Signal implements Syscalls.Signal.
func (Direct) Signal(sig linux.Signal, handler uintptr) (uintptr, unix.Errno) {
	act := linux.SigAction{Handler: uint64(handler), Flags: linux.SA_RESTART}
	var old linux.SigAction
	_, _, errno := unix.RawSyscall6(sysRtSigaction, uintptr(sig), uintptr(unsafe.Pointer(&act)), uintptr(unsafe.Pointer(&old)), linux.SignalSetSize, 0, 0)
	if errno != 0 {
		return sigErr, errno
	}
	return uintptr(old.Handler), 0
}

// Sigaction implements Syscalls.Sigaction.
func (Direct) Sigaction(sig linux.Signal, act, oact *linux.SigAction) (int, unix.Errno) {
	r, _, errno := unix.RawSyscall6(sysRtSigaction, uintptr(sig), uintptr(unsafe.Pointer(act)), uintptr(unsafe.Pointer(oact)), linux.SignalSetSize, 0, 0)
	return result(r, errno), errno
}
