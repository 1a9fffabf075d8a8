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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
	"vghost.dev/vghost/pkg/hostarch"
	"vghost.dev/vghost/pkg/log"
)

// Journal is the append-only record of mediated calls. Each line starts with
// '#', then the operation, its key arguments, the return value and errno.
type Journal struct {
	mu sync.Mutex
	w  *log.Writer

	// file and lock are nil for journals not backed by a file.
	file *os.File
	lock *flock.Flock

	warn log.Logger
}

// OpenJournal creates or truncates the journal at path and takes an advisory
// lock on it. path may contain %PID% and %TIMESTAMP%.
func OpenJournal(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("empty journal path")
	}
	path = log.PatternOpts{}.Build(path)
	if err := os.MkdirAll(filepath.Dir(path), 0775); err != nil {
		return nil, fmt.Errorf("error creating journal dir: %w", err)
	}

	// Lock before truncating so a journal in use is left intact.
	l := flock.NewFlock(path)
	locked, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("error acquiring lock on journal %q: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("journal %q is in use by another process", path)
	}
	f, err := log.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_SYNC, log.PatternOpts{})
	if err != nil {
		l.Unlock()
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	j := NewJournal(f)
	j.file = f
	j.lock = l
	return j, nil
}

// NewJournal returns a journal writing to w.
func NewJournal(w io.Writer) *Journal {
	return &Journal{
		w:    &log.Writer{Next: w},
		warn: log.BasicRateLimitedLogger(time.Minute),
	}
}

// Fd returns the host file descriptor of the journal, or -1.
func (j *Journal) Fd() int {
	if j.file == nil {
		return -1
	}
	return int(j.file.Fd())
}

// Init writes the header line describing the traditional memory stack.
func (j *Journal) Init(base hostarch.Addr, size int) {
	j.write(fmt.Sprintf("#ghostinit: %x %x\n", uint64(base), size))
}

// Record appends one call record.
func (j *Journal) Record(op string, ret int, errno unix.Errno, args ...any) {
	var b strings.Builder
	b.WriteString("#")
	b.WriteString(op)
	b.WriteString(":")
	for _, a := range args {
		fmt.Fprintf(&b, " %v", a)
	}
	fmt.Fprintf(&b, ": %d %d\n", ret, int(errno))
	j.write(b.String())
}

func (j *Journal) write(line string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.w.Write([]byte(line)); err != nil {
		j.warn.Warningf("Failed to write journal record: %v", err)
	}
}

// Close closes the journal file and releases its lock.
func (j *Journal) Close() error {
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	if uerr := j.lock.Unlock(); err == nil {
		err = uerr
	}
	j.file = nil
	return err
}
