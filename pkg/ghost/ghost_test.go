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
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sys/unix"
	"vghost.dev/vghost/pkg/abi/sva"
)

func TestAllowList(t *testing.T) {
	var events []string
	a := NewAllowList(&fakeLayer{events: &events})
	for _, addr := range []uintptr{0x3000, 0x1000, 0x2000, 0x1000} {
		if err := a.Allow(addr); err != nil {
			t.Fatalf("Allow(%#x) failed: %v", addr, err)
		}
	}
	if diff := cmp.Diff([]uintptr{0x1000, 0x2000, 0x3000}, a.Addrs()); diff != "" {
		t.Errorf("Addrs() mismatch (-want +got):\n%s", diff)
	}
	if a.Len() != 3 || !a.Contains(0x2000) || a.Contains(0x4000) {
		t.Errorf("allow list = %#x", a.Addrs())
	}
	// Every request reaches the layer, duplicates included.
	if len(events) != 4 {
		t.Errorf("layer saw %d requests, want 4", len(events))
	}
}

func TestAllowListLayerError(t *testing.T) {
	var events []string
	a := NewAllowList(&fakeLayer{events: &events, err: unix.EPERM})
	err := a.Allow(0x1000)
	if !errors.Is(err, unix.EPERM) {
		t.Errorf("Allow() = %v, want EPERM", err)
	}
	if a.Contains(0x1000) {
		t.Errorf("refused address recorded")
	}
}

func TestRecordOnlyAllowList(t *testing.T) {
	a := NewAllowList(nil)
	if err := a.AllowTrampoline(); err != nil {
		t.Fatalf("AllowTrampoline failed: %v", err)
	}
	if !a.Contains(sva.SignalTrampoline) {
		t.Errorf("trampoline not recorded")
	}
}

func TestJournalFormat(t *testing.T) {
	var buf bytes.Buffer
	j := NewJournal(&buf)
	j.Init(0x7f0000000000, 16384)
	j.Record("read", 5, 0, 3)
	j.Record("open", -1, unix.ENOENT, "/missing")
	j.Record("getsockopt", 0, 0, 3, 1, 3)

	want := "#ghostinit: 7f0000000000 4000\n" +
		"#read: 3: 5 0\n" +
		fmt.Sprintf("#open: /missing: -1 %d\n", int(unix.ENOENT)) +
		"#getsockopt: 3 1 3: 0 0\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("journal mismatch (-want +got):\n%s", diff)
	}
	if j.Fd() != -1 {
		t.Errorf("Fd() = %d for an in-memory journal, want -1", j.Fd())
	}
}

func TestJournalFile(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "ghostlog-%PID%")
	path := filepath.Join(dir, fmt.Sprintf("ghostlog-%d", os.Getpid()))
	if err := os.WriteFile(path, []byte("stale contents\n"), 0644); err != nil {
		t.Fatal(err)
	}

	j, err := OpenJournal(pattern)
	if err != nil {
		t.Fatalf("OpenJournal failed: %v", err)
	}
	if _, err := OpenJournal(pattern); err == nil {
		t.Errorf("second OpenJournal of a locked journal succeeded")
	}
	j.Record("close", 0, 0, 4)
	if err := j.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "#close: 4: 0 0\n"; string(got) != want {
		t.Errorf("journal = %q, want %q", got, want)
	}

	// The lock is released on close.
	j, err = OpenJournal(pattern)
	if err != nil {
		t.Fatalf("reopening journal failed: %v", err)
	}
	j.Close()
}

func TestInitDirect(t *testing.T) {
	r, err := Init(Options{})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer r.Close()
	if _, ok := r.Syscalls.(Direct); !ok {
		t.Errorf("Syscalls = %T, want Direct", r.Syscalls)
	}
	if r.Stack() != nil {
		t.Errorf("traditional memory set up without ghosting")
	}
	if !r.AllowList().Contains(sva.SignalTrampoline) {
		t.Errorf("trampoline not recorded")
	}

	var ts unix.Timespec
	if ret, errno := r.Syscalls.ClockGettime(unix.CLOCK_MONOTONIC, &ts); ret != 0 || errno != 0 {
		t.Errorf("ClockGettime = %d, %v", ret, errno)
	}
}

func TestInitGhosting(t *testing.T) {
	var events []string
	journal := filepath.Join(t.TempDir(), "ghostlog")
	r, err := Init(Options{
		Ghosting:    true,
		Layer:       &fakeLayer{events: &events},
		JournalPath: journal,
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	m, ok := r.Syscalls.(*Mediator)
	if !ok {
		t.Fatalf("Syscalls = %T, want *Mediator", r.Syscalls)
	}
	if got := m.Stack().Size(); got != sva.DefaultStackSize {
		t.Errorf("stack size = %d, want %d", got, sva.DefaultStackSize)
	}
	if diff := cmp.Diff([]string{fmt.Sprintf("allow %#x", sva.SignalTrampoline)}, events); diff != "" {
		t.Errorf("layer requests mismatch (-want +got):\n%s", diff)
	}
	base := r.Stack().Base()

	var ts unix.Timespec
	r.Syscalls.ClockGettime(unix.CLOCK_REALTIME, &ts)
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	got, err := os.ReadFile(journal)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(got), "\n"), "\n")
	want := []string{
		fmt.Sprintf("#ghostinit: %x %x", uint64(base), sva.DefaultStackSize),
		fmt.Sprintf("#clock_gettime: %d: 0 0", unix.CLOCK_REALTIME),
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("journal mismatch (-want +got):\n%s", diff)
	}
}

func TestDirectSocketLengths(t *testing.T) {
	addr := make([]byte, 16)
	addrlen := uint32(64)
	if ret, errno := (Direct{}).Accept(-1, addr, &addrlen); ret != -1 || errno != unix.EBADF {
		t.Errorf("Accept(-1) = %d, %v, want -1, EBADF", ret, errno)
	}
	if addrlen != 64 {
		t.Errorf("Accept(-1) changed addrlen to %d, want 64", addrlen)
	}

	val := make([]byte, 8)
	vallen := uint32(64)
	if ret, errno := (Direct{}).Getsockopt(-1, unix.SOL_SOCKET, unix.SO_TYPE, val, &vallen); ret != -1 || errno != unix.EBADF {
		t.Errorf("Getsockopt(-1) = %d, %v, want -1, EBADF", ret, errno)
	}
	if vallen != 64 {
		t.Errorf("Getsockopt(-1) changed vallen to %d, want 64", vallen)
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socket: %v", err)
	}
	defer unix.Close(fd)
	if ret, errno := (Direct{}).Getsockopt(fd, unix.SOL_SOCKET, unix.SO_TYPE, val, &vallen); ret != 0 || errno != 0 {
		t.Fatalf("Getsockopt(SO_TYPE) = %d, %v", ret, errno)
	}
	if vallen != 4 {
		t.Errorf("Getsockopt(SO_TYPE) vallen = %d, want 4", vallen)
	}
	if got := int32(binary.NativeEndian.Uint32(val)); got != unix.SOCK_STREAM {
		t.Errorf("Getsockopt(SO_TYPE) = %d, want %d", got, unix.SOCK_STREAM)
	}
}
