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

// sigsetArg is the sixth argument of pselect6(2).
type sigsetArg struct {
	ss    uintptr
	ssLen uintptr
}

// Select implements Syscalls.Select. On return *timeout holds the time that
// was left, as on Linux.
func (m *Mediator) Select(nfd int, r, w, e *unix.FdSet, timeout *unix.Timeval) (int, unix.Errno) {
	defer m.stack.Restore(m.stack.Mark())

	rp := copyInValue(m.stack, r)
	wp := copyInValue(m.stack, w)
	ep := copyInValue(m.stack, e)
	var ts *unix.Timespec
	if timeout != nil {
		t := unix.NsecToTimespec(unix.TimevalToNsec(*timeout))
		ts = &t
	}
	tsp := copyInValue(m.stack, ts)

	res, errno := m.syscall(sysPselect6, uintptr(nfd), uintptr(rp), uintptr(wp), uintptr(ep), uintptr(tsp), 0)
	if errno == 0 {
		copyOutValue(m.stack, rp, r)
		copyOutValue(m.stack, wp, w)
		copyOutValue(m.stack, ep, e)
		if ts != nil {
			copyOutValue(m.stack, tsp, ts)
			*timeout = unix.NsecToTimeval(unix.TimespecToNsec(*ts))
		}
	}
	ret := result(res, errno)
	m.journal.Record("select", ret, errno, nfd)
	return ret, errno
}

// Pselect implements Syscalls.Pselect. The timeout is not modified.
func (m *Mediator) Pselect(nfd int, r, w, e *unix.FdSet, timeout *unix.Timespec, sigmask *linux.SignalSet) (int, unix.Errno) {
	defer m.stack.Restore(m.stack.Mark())

	rp := copyInValue(m.stack, r)
	wp := copyInValue(m.stack, w)
	ep := copyInValue(m.stack, e)
	tsp := copyInValue(m.stack, timeout)
	var argp uintptr
	if sigmask != nil {
		arg := sigsetArg{
			ss:    uintptr(copyInValue(m.stack, sigmask)),
			ssLen: linux.SignalSetSize,
		}
		argp = uintptr(copyInValue(m.stack, &arg))
	}

	res, errno := m.syscall(sysPselect6, uintptr(nfd), uintptr(rp), uintptr(wp), uintptr(ep), uintptr(tsp), argp)
	if errno == 0 {
		copyOutValue(m.stack, rp, r)
		copyOutValue(m.stack, wp, w)
		copyOutValue(m.stack, ep, e)
	}
	ret := result(res, errno)
	m.journal.Record("pselect", ret, errno, nfd)
	return ret, errno
}

// ClockGettime implements Syscalls.ClockGettime.
func (m *Mediator) ClockGettime(clock int32, ts *unix.Timespec) (int, unix.Errno) {
	defer m.stack.Restore(m.stack.Mark())

	tsp := allocValue(m.stack, ts)
	r, errno := m.syscall(sysClockGettime, uintptr(clock), uintptr(tsp))
	if errno == 0 {
		copyOutValue(m.stack, tsp, ts)
	}
	ret := result(r, errno)
	m.journal.Record("clock_gettime", ret, errno, clock)
	return ret, errno
}
