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
	"sync"

	"github.com/google/btree"
	"vghost.dev/vghost/pkg/abi/sva"
	"vghost.dev/vghost/pkg/log"
)

// IsolationLayer is the privileged side of the allow list.
type IsolationLayer interface {
	// AllowAsyncTarget permits the kernel to transfer control to addr on an
	// asynchronous event such as signal delivery.
	AllowAsyncTarget(addr uintptr) error
}

// TrapLayer reaches the isolation layer through its software interrupt.
// Issuing the trap outside an isolated process faults.
type TrapLayer struct{}

// AllowList is the set of addresses the isolated process has asked the
// isolation layer to accept as asynchronous entry points.
type AllowList struct {
	// layer is nil when registrations are only recorded.
	layer IsolationLayer

	mu    sync.Mutex
	addrs *btree.BTreeG[uintptr]
}

// NewAllowList returns an empty allow list. A nil layer records addresses
// without issuing any request.
func NewAllowList(layer IsolationLayer) *AllowList {
	return &AllowList{
		layer: layer,
		addrs: btree.NewG(8, func(a, b uintptr) bool { return a < b }),
	}
}

// Allow asks the isolation layer to permit addr and records it.
func (a *AllowList) Allow(addr uintptr) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.layer != nil {
		if err := a.layer.AllowAsyncTarget(addr); err != nil {
			return fmt.Errorf("allowing async target %#x: %w", addr, err)
		}
	}
	if _, dup := a.addrs.ReplaceOrInsert(addr); !dup {
		log.Debugf("Allowed async target %#x", addr)
	}
	return nil
}

// AllowTrampoline permits the signal delivery trampoline.
func (a *AllowList) AllowTrampoline() error {
	return a.Allow(sva.SignalTrampoline)
}

// Contains returns true iff addr has been allowed.
func (a *AllowList) Contains(addr uintptr) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addrs.Has(addr)
}

// Len returns the number of allowed addresses.
func (a *AllowList) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addrs.Len()
}

// Addrs returns the allowed addresses in ascending order.
func (a *AllowList) Addrs() []uintptr {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]uintptr, 0, a.addrs.Len())
	a.addrs.Ascend(func(addr uintptr) bool {
		out = append(out, addr)
		return true
	})
	return out
}
