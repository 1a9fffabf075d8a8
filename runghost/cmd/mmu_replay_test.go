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

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"vghost.dev/vghost/pkg/hostarch"
	"vghost.dev/vghost/pkg/sva/mmu"
)

// hierarchy maps 0x8080604000 to frame 5 as writable user data.
const hierarchy = `
frames = 64

[[op]]
op = "declare-root"
frame = 1

[[op]]
op = "load-root"
frame = 1

[[op]]
op = "link"
level = 4
table = 1
index = 1
frame = 2

[[op]]
op = "link"
level = 3
table = 2
index = 2
frame = 3

[[op]]
op = "link"
level = 2
table = 3
index = 3
frame = 4

[[op]]
op = "map"
table = 4
index = 4
frame = 5
access = "rw-"
user = true
`

func runScript(t *testing.T, content string) (map[mmu.PageType]int, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := loadScript(path)
	if err != nil {
		t.Fatalf("loadScript failed: %v", err)
	}
	return s.replay(16)
}

func TestReplayHierarchy(t *testing.T) {
	got, err := runScript(t, hierarchy+`
[[op]]
op = "expect"
frame = 5
type = "udata"
count = 1

[[op]]
op = "expect"
frame = 3
type = "l2"

[[op]]
op = "translate"
va = "0x80_8060_4123"
phys = "0x5123"

[[op]]
op = "translate"
va = "0x1000"
`)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	want := map[mmu.PageType]int{
		mmu.PageL4:       1,
		mmu.PageL3:       1,
		mmu.PageL2:       1,
		mmu.PageL1:       1,
		mmu.PageUserData: 1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestReplayTeardown(t *testing.T) {
	got, err := runScript(t, hierarchy+`
[[op]]
op = "remove"
level = 1
table = 4
index = 4

[[op]]
op = "remove"
level = 2
table = 3
index = 3

[[op]]
op = "remove"
level = 3
table = 2
index = 2

[[op]]
op = "remove"
level = 4
table = 1
index = 1

[[op]]
op = "expect"
frame = 5
type = "unused"
`)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if diff := cmp.Diff(map[mmu.PageType]int{mmu.PageL4: 1}, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaySecure(t *testing.T) {
	const mapped = `
[[op]]
op = "declare-root"
frame = 1

[[op]]
op = "load-root"
frame = 1

[[op]]
op = "map-secure"
va = "0xffffff0000001000"
frame = 10

[[op]]
op = "translate"
va = "0xffffff0000001008"
phys = "0xa008"

[[op]]
op = "expect"
frame = 15
type = "l3"
`
	got, err := runScript(t, mapped)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	want := map[mmu.PageType]int{
		mmu.PageL4:        1,
		mmu.PageL3:        1,
		mmu.PageL2:        1,
		mmu.PageL1:        1,
		mmu.PageSecureMem: 1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	got, err = runScript(t, mapped+`
[[op]]
op = "unmap-secure"
va = "0xffffff0000001000"

[[op]]
op = "translate"
va = "0xffffff0000001000"
`)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if diff := cmp.Diff(map[mmu.PageType]int{mmu.PageL4: 1}, got); diff != "" {
		t.Errorf("summary after unmap mismatch (-want +got):\n%s", diff)
	}
}

func TestReplayViolation(t *testing.T) {
	// A writable mapping of the root table.
	_, err := runScript(t, hierarchy+`
[[op]]
op = "map"
table = 4
index = 5
frame = 1
access = "rw-"
`)
	var v *mmu.Violation
	if !errors.As(err, &v) {
		t.Fatalf("replay = %v, want *mmu.Violation", err)
	}
	if v.Frame != 1 || v.Type != mmu.PageL4 {
		t.Errorf("violation = %+v, want frame 1 of type l4", v)
	}
	if !strings.Contains(err.Error(), "op 6 (map)") {
		t.Errorf("error %q does not name the op", err)
	}
}

func TestReplayErrors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		script string
		err    string
	}{
		{
			name:   "unknown op",
			script: "[[op]]\nop = \"jump\"\n",
			err:    `unknown op "jump"`,
		},
		{
			name:   "bad access",
			script: hierarchy + "[[op]]\nop = \"map\"\ntable = 4\nindex = 6\nframe = 7\naccess = \"rw\"\n",
			err:    `invalid access "rw"`,
		},
		{
			name:   "bad flag",
			script: hierarchy + "[[op]]\nop = \"map\"\ntable = 4\nindex = 6\nframe = 7\nflags = [\"dirty\"]\n",
			err:    `unknown flag "dirty"`,
		},
		{
			name:   "failed expectation",
			script: hierarchy + "[[op]]\nop = \"expect\"\nframe = 5\ntype = \"code\"\n",
			err:    "is udata, want code",
		},
		{
			name:   "failed translation",
			script: hierarchy + "[[op]]\nop = \"translate\"\nva = \"0x8080604000\"\nphys = \"0x6000\"\n",
			err:    "want 0x6000",
		},
		{
			name:   "no frames for secure tables",
			script: "frames = 3\n[[op]]\nop = \"declare-root\"\nframe = 1\n[[op]]\nop = \"load-root\"\nframe = 1\n[[op]]\nop = \"map-secure\"\nva = \"0xffffff0000001000\"\nframe = 2\n",
			err:    errNoFrames.Error(),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runScript(t, tc.script)
			if err == nil || !strings.Contains(err.Error(), tc.err) {
				t.Errorf("replay = %v, want error containing %q", err, tc.err)
			}
		})
	}
}

func TestParseAccess(t *testing.T) {
	for _, at := range []hostarch.AccessType{hostarch.NoAccess, hostarch.Read, hostarch.ReadWrite, hostarch.ReadExecute, hostarch.AnyAccess} {
		got, err := parseAccess(at.String())
		if err != nil {
			t.Errorf("parseAccess(%q) failed: %v", at.String(), err)
			continue
		}
		if got != at {
			t.Errorf("parseAccess(%q) = %v, want %v", at.String(), got, at)
		}
	}
}

func TestFormatSummary(t *testing.T) {
	got := formatSummary("s.toml", 3, map[mmu.PageType]int{mmu.PageUserData: 2, mmu.PageL4: 1})
	want := "s.toml: 3 ops\n  l4      1\n  udata   2\n"
	if got != want {
		t.Errorf("formatSummary() = %q, want %q", got, want)
	}
}
