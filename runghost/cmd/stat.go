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
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"golang.org/x/sys/unix"
	"vghost.dev/vghost/pkg/ghost"
	"vghost.dev/vghost/runghost/cmd/util"
	"vghost.dev/vghost/runghost/config"
)

// Stat implements subcommands.Command for the "stat" command.
type Stat struct{}

// Name implements subcommands.Command.Name.
func (*Stat) Name() string {
	return "stat"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Stat) Synopsis() string {
	return "print file status through the active system call path"
}

// Usage implements subcommands.Command.Usage.
func (*Stat) Usage() string {
	return `stat <path>... - print file status, and the target of symbolic links.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Stat) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Stat) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)

	rt, err := startGhost(conf)
	if err != nil {
		util.Fatalf("%v", err)
	}
	defer rt.Close()

	if err := statPaths(rt.Syscalls, os.Stdout, bufferSize(rt), f.Args()); err != nil {
		util.Fatalf("%v", err)
	}
	return subcommands.ExitSuccess
}

// statPaths writes one line per path to w.
func statPaths(sc ghost.Syscalls, w io.Writer, bufSize int, paths []string) error {
	link := make([]byte, bufSize)
	for _, path := range paths {
		var st unix.Stat_t
		if _, errno := sc.Stat(path, &st); errno != 0 {
			return fmt.Errorf("stat %q: %w", path, errno)
		}
		line := fmt.Sprintf("%s: mode=%#o size=%d ino=%d nlink=%d uid=%d gid=%d",
			path, st.Mode, st.Size, st.Ino, st.Nlink, st.Uid, st.Gid)

		// EINVAL means path is not a symbolic link.
		n, errno := sc.Readlink(path, link)
		switch errno {
		case 0:
			line += fmt.Sprintf(" -> %s", link[:n])
		case unix.EINVAL:
		default:
			return fmt.Errorf("readlink %q: %w", path, errno)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
