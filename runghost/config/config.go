// Copyright 2020 The gVisor Authors.
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

// Package config provides basic infrastructure to set configuration settings
// for runghost. The configuration is set by flags to the command line. A
// configuration file may supply defaults for any of them.
package config

import (
	"fmt"

	"vghost.dev/vghost/pkg/abi/sva"
	"vghost.dev/vghost/pkg/ghost"
	"vghost.dev/vghost/pkg/hostarch"
	"vghost.dev/vghost/pkg/log"
)

// Config holds configuration that is not part of the command being run.
//
// Follow these steps to add a new flag:
//  1. Create a new field in Config.
//  2. Add a field tag with the flag name
//  3. Register a new flag in flags.go, with name and description
//  4. Add any necessary validation into validate()
type Config struct {
	// ConfigFile is the TOML file the remaining values were defaulted from.
	ConfigFile string `flag:"config"`

	// LogFilename is the filename to log to, if not empty.
	LogFilename string `flag:"log"`

	// LogFormat is the log format.
	LogFormat string `flag:"log-format"`

	// Debug indicates that debug logging should be enabled.
	Debug bool `flag:"debug"`

	// DebugLog is the path to log debug information to, if not empty.
	DebugLog string `flag:"debug-log"`

	// DebugLogFormat is the log format for debug.
	DebugLogFormat string `flag:"debug-log-format"`

	// AlsoLogToStderr allows to send log messages to stderr.
	AlsoLogToStderr bool `flag:"alsologtostderr"`

	// Ghosting enables syscall mediation through traditional memory.
	Ghosting bool `flag:"ghosting"`

	// Trap issues allow requests to the isolation layer. Without it they
	// are only recorded. Only meaningful on a host running the layer.
	Trap bool `flag:"trap"`

	// StackSize is the size of traditional memory in bytes.
	StackSize int `flag:"stack-size"`

	// JournalPath is the journal file pattern, if not empty.
	JournalPath string `flag:"journal"`

	// Frames is the number of physical frames of a simulated machine.
	Frames uint64 `flag:"frames"`
}

func (c *Config) validate() error {
	for _, f := range []string{c.LogFormat, c.DebugLogFormat} {
		switch f {
		case "text", "json", "json-k8s":
		default:
			return fmt.Errorf("invalid log format %q, must be 'text', 'json', or 'json-k8s'", f)
		}
	}
	if c.StackSize < 0 {
		return fmt.Errorf("stack-size must not be negative: %d", c.StackSize)
	}
	if !hostarch.Addr(c.StackSize).IsPageAligned() {
		return fmt.Errorf("stack-size must be a multiple of %d: %d", hostarch.PageSize, c.StackSize)
	}
	if c.Trap && !c.Ghosting {
		return fmt.Errorf("--trap requires --ghosting")
	}
	if c.Frames == 0 || c.Frames > sva.DirectMapSize/hostarch.PageSize {
		return fmt.Errorf("frames must be in [1, %d]: %d", sva.DirectMapSize/hostarch.PageSize, c.Frames)
	}
	return nil
}

// GhostOptions returns the ghost runtime options selected by c.
func (c *Config) GhostOptions() ghost.Options {
	opts := ghost.Options{
		Ghosting:    c.Ghosting,
		StackSize:   c.StackSize,
		JournalPath: c.JournalPath,
	}
	if c.Trap {
		opts.Layer = ghost.TrapLayer{}
	}
	return opts
}

// Log logs important aspects of the configuration to the given log function.
func (c *Config) Log() {
	log.Infof("Config:")
	for _, f := range c.ToFlags() {
		log.Infof("\t%s", f)
	}
}
