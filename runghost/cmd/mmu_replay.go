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
	"context"
	"errors"
	"flag"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"
	"vghost.dev/vghost/pkg/abi/sva"
	"vghost.dev/vghost/pkg/hostarch"
	"vghost.dev/vghost/pkg/log"
	"vghost.dev/vghost/pkg/sva/mmu"
	"vghost.dev/vghost/pkg/sva/physmem"
	"vghost.dev/vghost/runghost/cmd/util"
	"vghost.dev/vghost/runghost/config"
)

// MMUReplay implements subcommands.Command for the "mmu-replay" command.
type MMUReplay struct{}

// Name implements subcommands.Command.Name.
func (*MMUReplay) Name() string {
	return "mmu-replay"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*MMUReplay) Synopsis() string {
	return "apply scripts of page-table operations to a simulated machine"
}

// Usage implements subcommands.Command.Usage.
func (*MMUReplay) Usage() string {
	return `mmu-replay <script.toml>... - apply page-table operations and print the frame roles.

Each script runs on its own machine of --frames frames, unless the script
sets "frames". A script is a list of [[op]] tables:

  op = "declare-root"    frame
  op = "declare-system"  frame
  op = "load-root"       frame
  op = "release-root"    frame
  op = "link"            level, table, index, frame
  op = "map"             [level], table, index, frame, [access], [user], [flags]
  op = "update"          level, table, index, pte
  op = "remove"          level, table, index
  op = "map-secure"      va, frame
  op = "unmap-secure"    va
  op = "expect"          frame, type, [count]
  op = "translate"       va, [phys]

access is "r--", "rw-", "r-x", etc. flags is a list of "pcd", "pwt",
"stack", "global" and "ps". va, phys and pte are strings so they can hold
any 64-bit value. Tables for secure mappings are taken from the unused
frames at the top of memory. A rejected operation aborts the script.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*MMUReplay) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*MMUReplay) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)

	paths := f.Args()
	reports := make([]string, len(paths))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			s, err := loadScript(path)
			if err != nil {
				return err
			}
			summary, err := s.replay(conf.Frames)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			reports[i] = formatSummary(path, len(s.Ops), summary)
			return nil
		})
	}
	err := g.Wait()
	for _, r := range reports {
		fmt.Print(r)
	}
	if err != nil {
		util.Fatalf("%v", err)
	}
	return subcommands.ExitSuccess
}

// script is a decoded mmu-replay file.
type script struct {
	Frames uint64     `toml:"frames"`
	Ops    []scriptOp `toml:"op"`
}

type scriptOp struct {
	Op     string   `toml:"op"`
	Level  int      `toml:"level"`
	Table  uint64   `toml:"table"`
	Index  int      `toml:"index"`
	Frame  uint64   `toml:"frame"`
	Access string   `toml:"access"`
	User   bool     `toml:"user"`
	Flags  []string `toml:"flags"`
	PTE    string   `toml:"pte"`
	VA     string   `toml:"va"`
	Phys   string   `toml:"phys"`
	Type   string   `toml:"type"`
	Count  *int     `toml:"count"`
}

func loadScript(path string) (*script, error) {
	var s script
	md, err := toml.DecodeFile(path, &s)
	if err != nil {
		return nil, fmt.Errorf("reading script %q: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("script %q: unexpected keys %v", path, undecoded)
	}
	return &s, nil
}

// errNoFrames is raised when no frame is left for a secure table.
var errNoFrames = errors.New("no unused frame left for a secure table")

// replay applies s to a fresh machine and returns the resulting roles.
func (s *script) replay(defaultFrames uint64) (map[mmu.PageType]int, error) {
	frames := s.Frames
	if frames == 0 {
		frames = defaultFrames
	}
	mem, err := physmem.New(frames)
	if err != nil {
		return nil, err
	}
	defer mem.Release()
	m := mmu.New(mem, &mmu.VirtualCPU{})

	for i, op := range s.Ops {
		if err := op.apply(m); err != nil {
			return nil, fmt.Errorf("op %d (%s): %w", i, op.Op, err)
		}
	}
	return m.Store().Summary(), nil
}

// apply runs op against m. Violations are returned as errors.
func (op *scriptOp) apply(m *mmu.MMU) (err error) {
	defer func() {
		r := recover()
		switch r := r.(type) {
		case nil:
		case *mmu.Violation:
			err = r
		case error:
			if !errors.Is(r, errNoFrames) {
				panic(r)
			}
			err = r
		default:
			panic(r)
		}
	}()
	log.Debugf("mmu-replay: %+v", *op)

	f := mmu.Frame(op.Frame)
	switch op.Op {
	case "declare-root":
		m.DeclareRoot(f)
	case "declare-system":
		m.DeclareSystemPage(f)
	case "load-root":
		m.LoadRoot(f)
	case "release-root":
		m.ReleaseRoot(f)
	case "link":
		pte := mmu.PTE(f.Address()).With(sva.PTEValid | sva.PTEWritable | sva.PTEUser)
		m.UpdateEntry(op.Level, mmu.Frame(op.Table), op.Index, pte)
	case "map":
		pte, err := op.leaf()
		if err != nil {
			return err
		}
		level := op.Level
		if level == 0 {
			level = 1
		}
		m.UpdateEntry(level, mmu.Frame(op.Table), op.Index, pte)
	case "update":
		v, err := parseUint64(op.PTE)
		if err != nil {
			return fmt.Errorf("pte: %w", err)
		}
		m.UpdateEntry(op.Level, mmu.Frame(op.Table), op.Index, mmu.PTE(v))
	case "remove":
		m.RemoveEntry(op.Level, mmu.Frame(op.Table), op.Index)
	case "map-secure":
		va, err := parseUint64(op.VA)
		if err != nil {
			return fmt.Errorf("va: %w", err)
		}
		m.MapSecurePage(hostarch.Addr(va), f, secureAllocator(m.Store(), f))
	case "unmap-secure":
		va, err := parseUint64(op.VA)
		if err != nil {
			return fmt.Errorf("va: %w", err)
		}
		m.UnmapSecurePage(hostarch.Addr(va))
	case "expect":
		return op.expect(m.Store())
	case "translate":
		return op.translate(m)
	default:
		return fmt.Errorf("unknown op %q", op.Op)
	}
	return nil
}

// leaf builds the entry of a "map" op.
func (op *scriptOp) leaf() (mmu.PTE, error) {
	at := hostarch.Read
	if op.Access != "" {
		var err error
		if at, err = parseAccess(op.Access); err != nil {
			return 0, err
		}
	}
	pte := mmu.MakePTE(mmu.Frame(op.Frame), at, op.User)
	for _, name := range op.Flags {
		bit, ok := pteFlags[name]
		if !ok {
			return 0, fmt.Errorf("unknown flag %q", name)
		}
		pte = pte.With(bit)
	}
	return pte, nil
}

var pteFlags = map[string]uint64{
	"pcd":    sva.PTECacheDisable,
	"pwt":    sva.PTEWriteThrough,
	"stack":  sva.PTEStack,
	"global": sva.PTEGlobal,
	"ps":     sva.PTEPageSize,
}

// parseAccess is the inverse of hostarch.AccessType.String.
func parseAccess(s string) (hostarch.AccessType, error) {
	if len(s) != 3 ||
		(s[0] != 'r' && s[0] != '-') ||
		(s[1] != 'w' && s[1] != '-') ||
		(s[2] != 'x' && s[2] != '-') {
		return hostarch.NoAccess, fmt.Errorf("invalid access %q", s)
	}
	return hostarch.AccessType{Read: s[0] == 'r', Write: s[1] == 'w', Execute: s[2] == 'x'}, nil
}

func parseUint64(s string) (uint64, error) {
	return strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 0, 64)
}

// secureAllocator returns frames for secure tables, highest unused first.
// leaf is the frame about to be mapped and is never returned.
func secureAllocator(s *mmu.Store, leaf mmu.Frame) func() mmu.Frame {
	return func() mmu.Frame {
		for f := mmu.Frame(s.Frames() - 1); f > 0; f-- {
			if f != leaf && !s.Get(f).IsActive() {
				return f
			}
		}
		panic(errNoFrames)
	}
}

func (op *scriptOp) expect(s *mmu.Store) error {
	want, err := mmu.ParsePageType(op.Type)
	if err != nil {
		return err
	}
	d := s.Get(mmu.Frame(op.Frame))
	if d.Type != want {
		return fmt.Errorf("frame %#x is %v, want %v", op.Frame, d.Type, want)
	}
	if op.Count != nil && d.Count() != *op.Count {
		return fmt.Errorf("frame %#x has %d references, want %d", op.Frame, d.Count(), *op.Count)
	}
	return nil
}

func (op *scriptOp) translate(m *mmu.MMU) error {
	va, err := parseUint64(op.VA)
	if err != nil {
		return fmt.Errorf("va: %w", err)
	}
	got, ok := m.VirtualToPhysical(hostarch.Addr(va))
	if op.Phys == "" {
		if ok {
			return fmt.Errorf("%#x maps to %#x, want unmapped", va, got)
		}
		return nil
	}
	want, err := parseUint64(op.Phys)
	if err != nil {
		return fmt.Errorf("phys: %w", err)
	}
	if !ok || got != want {
		return fmt.Errorf("%#x maps to %#x (mapped %t), want %#x", va, got, ok, want)
	}
	return nil
}

// formatSummary renders the roles left after a script, in role order.
func formatSummary(path string, ops int, summary map[mmu.PageType]int) string {
	types := make([]mmu.PageType, 0, len(summary))
	for t := range summary {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d ops\n", path, ops)
	for _, t := range types {
		fmt.Fprintf(&b, "  %-7s %d\n", t, summary[t])
	}
	return b.String()
}
