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

package hostarch

import "testing"

func TestRoundUp(t *testing.T) {
	for _, tc := range []struct {
		in   Addr
		want Addr
		ok   bool
	}{
		{0, 0, true},
		{1, PageSize, true},
		{PageSize, PageSize, true},
		{PageSize + 1, 2 * PageSize, true},
		{^Addr(0), 0, false},
	} {
		got, ok := tc.in.RoundUp()
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("%v.RoundUp() = (%v, %t), want (%v, %t)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestAddrRange(t *testing.T) {
	r, ok := Addr(0x1000).ToRange(0x2000)
	if !ok {
		t.Fatalf("ToRange overflowed")
	}
	if !r.Contains(0x1000) || r.Contains(0x3000) {
		t.Errorf("%+v: bad Contains bounds", r)
	}
	if !r.Overlaps(AddrRange{0x2fff, 0x4000}) {
		t.Errorf("%+v should overlap [0x2fff, 0x4000)", r)
	}
	if r.Overlaps(AddrRange{0x3000, 0x4000}) {
		t.Errorf("%+v should not overlap [0x3000, 0x4000)", r)
	}
	if !r.IsSupersetOf(AddrRange{0x1800, 0x2000}) {
		t.Errorf("%+v should contain [0x1800, 0x2000)", r)
	}
	if _, ok := (^Addr(0)).AddLength(1); ok {
		t.Errorf("AddLength should report overflow")
	}
}

func TestAccessTypeString(t *testing.T) {
	for at, want := range map[AccessType]string{
		NoAccess:    "---",
		Read:        "r--",
		ReadWrite:   "rw-",
		ReadExecute: "r-x",
		AnyAccess:   "rwx",
	} {
		if got := at.String(); got != want {
			t.Errorf("%#v.String() = %q, want %q", at, got, want)
		}
	}
}
