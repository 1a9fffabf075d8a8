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

// Package ghost is the runtime of an isolated ("ghost") process.
//
// An isolated process keeps its data in secure memory, which the kernel can
// neither read nor write. To make a system call it stages arguments through
// traditional memory, a small region the kernel can see, so that no pointer
// into secure memory is ever handed to the kernel. The Mediator implements
// this protocol for every system call the process uses.
//
// The process must also tell the isolation layer which of its functions the
// kernel may transfer control to asynchronously, for example signal
// handlers. The AllowList does so.
package ghost

import (
	"errors"
	"fmt"

	"vghost.dev/vghost/pkg/abi/sva"
	"vghost.dev/vghost/pkg/log"
)

// Options configures Init.
type Options struct {
	// Ghosting selects mediation. When false the process makes direct
	// system calls and no traditional memory is set up.
	Ghosting bool

	// Layer receives allow requests. If nil, requests are only recorded.
	// Ignored unless Ghosting is set.
	Layer IsolationLayer

	// StackSize is the size of traditional memory. Zero selects
	// sva.DefaultStackSize.
	StackSize int

	// JournalPath is the journal file pattern. Empty disables the journal.
	JournalPath string

	// Kernel issues the mediated calls. Nil selects HostKernel.
	Kernel Kernel
}

// Runtime is the process-wide ghost state created by Init.
type Runtime struct {
	// Syscalls is the active system call implementation.
	Syscalls Syscalls

	stack   *Stack
	allow   *AllowList
	journal *Journal
}

// Init sets up the ghost runtime and selects the active system call
// implementation. It is called once, at startup.
func Init(opts Options) (*Runtime, error) {
	if !opts.Ghosting {
		allow := NewAllowList(nil)
		if err := allow.AllowTrampoline(); err != nil {
			return nil, err
		}
		log.Infof("Ghosting disabled, using direct system calls")
		return &Runtime{Syscalls: Direct{}, allow: allow}, nil
	}

	size := opts.StackSize
	if size == 0 {
		size = sva.DefaultStackSize
	}
	stack, err := NewStack(size)
	if err != nil {
		return nil, err
	}
	r := &Runtime{
		stack: stack,
		allow: NewAllowList(opts.Layer),
	}
	if err := r.allow.AllowTrampoline(); err != nil {
		r.Close()
		return nil, err
	}
	if opts.JournalPath != "" {
		if r.journal, err = OpenJournal(opts.JournalPath); err != nil {
			r.Close()
			return nil, err
		}
		r.journal.Init(stack.Base(), stack.Size())
	}
	k := opts.Kernel
	if k == nil {
		k = HostKernel{}
	}
	r.Syscalls = NewMediator(k, stack, r.allow, r.journal)
	log.Infof("Ghost runtime: traditional memory %v, %d bytes", stack.Base(), stack.Size())
	return r, nil
}

// Stack returns traditional memory, or nil if ghosting is disabled.
func (r *Runtime) Stack() *Stack {
	return r.stack
}

// AllowList returns the asynchronous entry allow list.
func (r *Runtime) AllowList() *AllowList {
	return r.allow
}

// Close releases the journal and traditional memory.
func (r *Runtime) Close() error {
	var errs []error
	if r.journal != nil {
		if err := r.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing journal: %w", err))
		}
	}
	if r.stack != nil {
		if err := r.stack.Release(); err != nil {
			errs = append(errs, fmt.Errorf("releasing traditional memory: %w", err))
		}
	}
	return errors.Join(errs...)
}
