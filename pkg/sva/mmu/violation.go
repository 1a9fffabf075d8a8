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

package mmu

import (
	"fmt"

	"vghost.dev/vghost/pkg/log"
)

// Violation describes a rejected role transition or mapping. It is the panic
// value of every fatal path in this package.
type Violation struct {
	// Op is the operation that was rejected.
	Op string

	// Frame is the frame whose descriptor refused the change.
	Frame Frame

	// Type is the frame's role at the time of the violation.
	Type PageType

	// Reason is a short human-readable description.
	Reason string
}

// Error implements error.Error.
func (v *Violation) Error() string {
	return fmt.Sprintf("mmu: %s: frame %#x (%s): %s", v.Op, uint64(v.Frame), v.Type, v.Reason)
}

// violate logs and raises a Violation. It does not return.
func violate(op string, f Frame, t PageType, format string, args ...any) {
	v := &Violation{
		Op:     op,
		Frame:  f,
		Type:   t,
		Reason: fmt.Sprintf(format, args...),
	}
	log.WarningfAtDepth(1, "Invariant violation: %v", v)
	panic(v)
}
