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

	"github.com/google/subcommands"
	"golang.org/x/sys/unix"
	"vghost.dev/vghost/pkg/ghost"
	"vghost.dev/vghost/pkg/log"
	"vghost.dev/vghost/runghost/cmd/util"
	"vghost.dev/vghost/runghost/config"
)

// Cat implements subcommands.Command for the "cat" command.
type Cat struct{}

// Name implements subcommands.Command.Name.
func (*Cat) Name() string {
	return "cat"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Cat) Synopsis() string {
	return "copy files to stdout through the active system call path"
}

// Usage implements subcommands.Command.Usage.
func (*Cat) Usage() string {
	return `cat <file>... - copy files to stdout.

With --ghosting every open, fstat, read, write and close is staged through
traditional memory.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Cat) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Cat) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
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

	if err := catFiles(rt.Syscalls, unix.Stdout, bufferSize(rt), f.Args()); err != nil {
		util.Fatalf("%v", err)
	}
	return subcommands.ExitSuccess
}

// catFiles copies each file in paths to the out descriptor.
func catFiles(sc ghost.Syscalls, out, bufSize int, paths []string) error {
	buf := make([]byte, bufSize)
	for _, path := range paths {
		if err := catFile(sc, out, buf, path); err != nil {
			return fmt.Errorf("cat %q: %w", path, err)
		}
	}
	return nil
}

func catFile(sc ghost.Syscalls, out int, buf []byte, path string) (retErr error) {
	fd, errno := sc.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if errno != 0 {
		return errno
	}
	defer func() {
		if _, errno := sc.Close(fd); errno != 0 && retErr == nil {
			retErr = errno
		}
	}()

	var st unix.Stat_t
	if _, errno := sc.Fstat(fd, &st); errno != 0 {
		return errno
	}
	if st.Mode&unix.S_IFMT == unix.S_IFDIR {
		return unix.EISDIR
	}
	log.Debugf("cat: fd %d, %d bytes", fd, st.Size)

	for {
		n, errno := sc.Read(fd, buf)
		switch {
		case errno == unix.EINTR:
			continue
		case errno != 0:
			return errno
		case n == 0:
			return nil
		}
		if err := writeAll(sc, out, buf[:n]); err != nil {
			return err
		}
	}
}
