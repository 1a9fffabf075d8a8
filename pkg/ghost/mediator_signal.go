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
	"vghost.dev/vghost/pkg/abi/linux"
	"vghost.dev/vghost/pkg/log"
)

// allowHandler permits the handler of act, unless it is SIG_DFL or SIG_IGN.
// It must run before the action is installed: the kernel may deliver the
// signal as soon as rt_sigaction returns.
func (m *Mediator) allowHandler(act *linux.SigAction) error {
	h, ok := act.HandlerAddr()
	if !ok {
		return nil
	}
	return m.allow.Allow(uintptr(h))
}

// Signal implements Syscalls.Signal.
func (m *Mediator) Signal(sig linux.Signal, handler uintptr) (uintptr, unix.Errno) {
	defer m.stack.Restore(m.stack.Mark())

	act := linux.SigAction{Handler: uint64(handler), Flags: linux.SA_RESTART}
	if err := m.allowHandler(&act); err != nil {
		log.Warningf("Refusing to install handler for signal %d: %v", sig, err)
		m.journal.Record("signal", -1, unix.EPERM, int(sig), fmt.Sprintf("%#x", handler))
		return sigErr, unix.EPERM
	}

	var old linux.SigAction
	actp := copyInValue(m.stack, &act)
	oactp := allocValue(m.stack, &old)
	_, errno := m.syscall(sysRtSigaction, uintptr(sig), uintptr(actp), uintptr(oactp), linux.SignalSetSize)
	ret := sigErr
	if errno == 0 {
		copyOutValue(m.stack, oactp, &old)
		ret = uintptr(old.Handler)
	}
	m.journal.Record("signal", result(0, errno), errno, int(sig), fmt.Sprintf("%#x", handler))
	return ret, errno
}

// Sigaction implements Syscalls.Sigaction.
func (m *Mediator) Sigaction(sig linux.Signal, act, oact *linux.SigAction) (int, unix.Errno) {
	defer m.stack.Restore(m.stack.Mark())

	if act != nil {
		if err := m.allowHandler(act); err != nil {
			log.Warningf("Refusing to install handler for signal %d: %v", sig, err)
			m.journal.Record("sigaction", -1, unix.EPERM, int(sig))
			return -1, unix.EPERM
		}
	}

	actp := copyInValue(m.stack, act)
	oactp := allocValue(m.stack, oact)
	r, errno := m.syscall(sysRtSigaction, uintptr(sig), uintptr(actp), uintptr(oactp), linux.SignalSetSize)
	if errno == 0 {
		copyOutValue(m.stack, oactp, oact)
	}
	ret := result(r, errno)
	m.journal.Record("sigaction", ret, errno, int(sig))
	return ret, errno
}
