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

// Package cmd holds implementations of the runghost commands.
package cmd

import (
	"fmt"

	"golang.org/x/sys/unix"
	"vghost.dev/vghost/pkg/ghost"
	"vghost.dev/vghost/runghost/config"
)

// startGhost sets up the ghost runtime selected by conf. The caller must
// Close the result.
func startGhost(conf *config.Config) (*ghost.Runtime, error) {
	rt, err := ghost.Init(conf.GhostOptions())
	if err != nil {
		return nil, fmt.Errorf("starting ghost runtime: %w", err)
	}
	return rt, nil
}

// bufferSize returns the size of I/O buffers passed to rt's calls. Each call
// stages its buffer in traditional memory, so a buffer may not exceed half
// of it.
func bufferSize(rt *ghost.Runtime) int {
	const maxBuf = 4096
	if s := rt.Stack(); s != nil && s.Size()/2 < maxBuf {
		return s.Size() / 2
	}
	return maxBuf
}

// writeAll writes all of b to fd, retrying short writes.
func writeAll(sc ghost.Syscalls, fd int, b []byte) error {
	for len(b) > 0 {
		n, errno := sc.Write(fd, b)
		switch {
		case errno == unix.EINTR:
			continue
		case errno != 0:
			return errno
		}
		b = b[n:]
	}
	return nil
}
