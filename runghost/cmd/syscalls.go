// Copyright 2019 The gVisor Authors.
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
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"
	"vghost.dev/vghost/pkg/ghost"
	"vghost.dev/vghost/runghost/cmd/util"
)

// Syscalls implements subcommands.Command for the "syscalls" command.
type Syscalls struct {
	output string
}

// SyscallDoc represents a single mediated system call.
type SyscallDoc struct {
	Name    string   `json:"name"`
	Number  uintptr  `json:"number"`
	Inputs  []string `json:"inputs,omitempty"`
	Outputs []string `json:"outputs,omitempty"`
}

type outputFunc func(io.Writer, []SyscallDoc) error

// A map of output type names to output functions.
var outputMap = map[string]outputFunc{
	"table": outputTable,
	"json":  outputJSON,
	"csv":   outputCSV,
}

// Name implements subcommands.Command.Name.
func (*Syscalls) Name() string {
	return "syscalls"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Syscalls) Synopsis() string {
	return "Print the system calls mediated through traditional memory."
}

// Usage implements subcommands.Command.Usage.
func (*Syscalls) Usage() string {
	return `syscalls [options] - Print the system calls mediated through traditional memory.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (s *Syscalls) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.output, "o", "table", "Output format (table, csv, json).")
}

// Execute implements subcommands.Command.Execute.
func (s *Syscalls) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	out, ok := outputMap[s.output]
	if !ok {
		util.Fatalf("Unsupported output format %q", s.output)
	}
	if err := out(os.Stdout, syscallDocs()); err != nil {
		util.Fatalf("Error writing output: %v", err)
	}
	return subcommands.ExitSuccess
}

// syscallDocs returns the mediated calls in ghost.Table order.
func syscallDocs() []SyscallDoc {
	docs := make([]SyscallDoc, 0, len(ghost.Table))
	for _, si := range ghost.Table {
		docs = append(docs, SyscallDoc{
			Name:    si.Name,
			Number:  si.Number,
			Inputs:  si.Inputs,
			Outputs: si.Outputs,
		})
	}
	return docs
}

// outputTable outputs the syscall info in tabular format.
func outputTable(w io.Writer, docs []SyscallDoc) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "linux/%s:\n\n", runtime.GOARCH)
	if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", "NAME", "NUM", "IN", "OUT"); err != nil {
		return err
	}
	for _, sc := range docs {
		_, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			sc.Name,
			strconv.FormatUint(uint64(sc.Number), 10),
			strings.Join(sc.Inputs, ","),
			strings.Join(sc.Outputs, ","),
		)
		if err != nil {
			return err
		}
	}
	return tw.Flush()
}

// outputJSON outputs the syscall info in JSON format.
func outputJSON(w io.Writer, docs []SyscallDoc) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(docs)
}

// outputCSV outputs the syscall info in CSV format.
func outputCSV(w io.Writer, docs []SyscallDoc) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write([]string{"Arch", "Name", "Num", "Inputs", "Outputs"}); err != nil {
		return err
	}
	for _, sc := range docs {
		err := csvWriter.Write([]string{
			runtime.GOARCH,
			sc.Name,
			strconv.FormatUint(uint64(sc.Number), 10),
			strings.Join(sc.Inputs, " "),
			strings.Join(sc.Outputs, " "),
		})
		if err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}
