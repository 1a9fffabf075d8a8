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
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sys/unix"
	"vghost.dev/vghost/pkg/ghost"
)

func TestSyscallsOutput(t *testing.T) {
	docs := syscallDocs()
	if len(docs) != len(ghost.Table) {
		t.Fatalf("syscallDocs() returned %d entries, want %d", len(docs), len(ghost.Table))
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := outputJSON(&buf, docs); err != nil {
			t.Fatal(err)
		}
		var got []SyscallDoc
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(docs, got); diff != "" {
			t.Errorf("JSON output mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		if err := outputCSV(&buf, docs); err != nil {
			t.Fatal(err)
		}
		rows, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != len(docs)+1 {
			t.Fatalf("got %d rows, want %d", len(rows), len(docs)+1)
		}
		for i, doc := range docs {
			if rows[i+1][1] != doc.Name {
				t.Errorf("row %d name = %q, want %q", i+1, rows[i+1][1], doc.Name)
			}
		}
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		if err := outputTable(&buf, docs); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		for _, doc := range docs {
			if !strings.Contains(out, doc.Name) {
				t.Errorf("table output is missing %q:\n%s", doc.Name, out)
			}
		}
	})
}

// newRuntime returns a ghost runtime with mediation as selected.
func newRuntime(t *testing.T, ghosting bool, stackSize int) *ghost.Runtime {
	t.Helper()
	rt, err := ghost.Init(ghost.Options{Ghosting: ghosting, StackSize: stackSize})
	if err != nil {
		t.Fatalf("ghost.Init failed: %v", err)
	}
	t.Cleanup(func() { rt.Close() })
	return rt
}

func TestBufferSize(t *testing.T) {
	for _, tc := range []struct {
		name      string
		ghosting  bool
		stackSize int
		want      int
	}{
		{name: "direct", want: 4096},
		{name: "default stack", ghosting: true, want: 4096},
		{name: "small stack", ghosting: true, stackSize: 4096, want: 2048},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := bufferSize(newRuntime(t, tc.ghosting, tc.stackSize)); got != tc.want {
				t.Errorf("bufferSize() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestCat(t *testing.T) {
	dir := t.TempDir()
	var want []byte
	var paths []string
	for i, size := range []int{10000, 0, 37} {
		data := bytes.Repeat([]byte{byte('a' + i)}, size)
		path := filepath.Join(dir, string(rune('a'+i)))
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
		want = append(want, data...)
		paths = append(paths, path)
	}

	for _, ghosting := range []bool{true, false} {
		rt := newRuntime(t, ghosting, 0)
		out, err := os.Create(filepath.Join(t.TempDir(), "out"))
		if err != nil {
			t.Fatal(err)
		}
		if err := catFiles(rt.Syscalls, int(out.Fd()), bufferSize(rt), paths); err != nil {
			t.Fatalf("catFiles(ghosting=%t) failed: %v", ghosting, err)
		}
		out.Close()
		got, err := os.ReadFile(out.Name())
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("catFiles(ghosting=%t) wrote %d bytes, want %d", ghosting, len(got), len(want))
		}
	}
}

func TestCatErrors(t *testing.T) {
	rt := newRuntime(t, true, 0)
	dir := t.TempDir()
	for _, tc := range []struct {
		path string
		want unix.Errno
	}{
		{path: filepath.Join(dir, "missing"), want: unix.ENOENT},
		{path: dir, want: unix.EISDIR},
	} {
		err := catFiles(rt.Syscalls, unix.Stdout, bufferSize(rt), []string{tc.path})
		if !errors.Is(err, tc.want) {
			t.Errorf("catFiles(%q) = %v, want %v", tc.path, err, tc.want)
		}
	}
}

func TestStat(t *testing.T) {
	rt := newRuntime(t, true, 0)
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("hello"), 0640); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(file, link); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := statPaths(rt.Syscalls, &buf, bufferSize(rt), []string{file, link}); err != nil {
		t.Fatalf("statPaths failed: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], file+": mode=0100640 size=5 ") || strings.Contains(lines[0], "->") {
		t.Errorf("file line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], link+": mode=0100640 size=5 ") || !strings.HasSuffix(lines[1], " -> "+file) {
		t.Errorf("link line = %q", lines[1])
	}

	if err := statPaths(rt.Syscalls, &buf, bufferSize(rt), []string{filepath.Join(dir, "missing")}); !errors.Is(err, unix.ENOENT) {
		t.Errorf("statPaths(missing) = %v, want ENOENT", err)
	}
}
