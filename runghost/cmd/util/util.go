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

// Package util groups a bunch of common helper functions used by commands.
package util

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"vghost.dev/vghost/pkg/log"
)

// ErrorLogger is where error messages should be written to, in addition to
// stderr. Set from --log.
var ErrorLogger io.Writer

type jsonError struct {
	Msg   string    `json:"msg"`
	Level string    `json:"level"`
	Time  time.Time `json:"time"`
}

// Writef writes message to the error log.
func Writef(format string, args ...any) {
	if ErrorLogger == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	enc := json.NewEncoder(ErrorLogger)
	if err := enc.Encode(jsonError{Msg: msg, Level: "error", Time: time.Now()}); err != nil {
		fmt.Fprintf(os.Stderr, "error writing to log: %v\n", err)
	}
}

// Fatalf logs the same message to the error log, debug log and stderr, and
// exits with a failure status code.
func Fatalf(format string, args ...any) {
	log.WarningfAtDepth(1, "FATAL ERROR: "+format, args...)
	Writef(format, args...)
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(128)
}
