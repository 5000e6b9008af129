// Copyright 2024 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package asciidoc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Severity is the importance of a [Diagnostic].
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarning
	// SeverityError is used for fatal diagnostics.
	// A parse that reports an error stopped early
	// and returned a partial document.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "Severity(" + strconv.Itoa(int(s)) + ")"
	}
}

// DiagnosticKind classifies the condition a [Diagnostic] reports.
type DiagnosticKind uint8

const (
	// Informational diagnostics note something the parser did
	// that did not change the meaning of the document,
	// like skipping lines in a false conditional region.
	Informational DiagnosticKind = iota
	// SyntaxWarning is a recoverable inline problem,
	// like an unresolved attribute reference or an unmatched formatting mark.
	// The offending text is kept as literal text.
	SyntaxWarning
	// StructuralWarning is a recoverable block problem,
	// like an unterminated delimited block.
	// The container is closed at the best available boundary.
	StructuralWarning
	// LimitExceeded reports that a nesting depth or size ceiling was breached.
	// It is fatal for the parse that reported it.
	LimitExceeded
)

func (k DiagnosticKind) String() string {
	switch k {
	case Informational:
		return "Informational"
	case SyntaxWarning:
		return "SyntaxWarning"
	case StructuralWarning:
		return "StructuralWarning"
	case LimitExceeded:
		return "LimitExceeded"
	default:
		return "DiagnosticKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Severity returns the severity of diagnostics of the kind.
func (k DiagnosticKind) Severity() Severity {
	switch k {
	case SyntaxWarning, StructuralWarning:
		return SeverityWarning
	case LimitExceeded:
		return SeverityError
	default:
		return SeverityInfo
	}
}

// A Diagnostic is a problem or note found while parsing.
type Diagnostic struct {
	Severity Severity
	Kind     DiagnosticKind
	Message  string
	// Line is the 1-based source line the diagnostic refers to
	// or zero if the diagnostic is not tied to a line.
	Line int
	// Column is the 1-based display column on Line
	// or zero if unknown.
	// Wide characters count as two columns.
	Column int
}

// IsFatal reports whether the diagnostic stopped the parse.
func (d Diagnostic) IsFatal() bool {
	return d.Severity >= SeverityError
}

// String formats the diagnostic as "line:column: severity: message".
func (d Diagnostic) String() string {
	sb := new(strings.Builder)
	if d.Line > 0 {
		sb.WriteString(strconv.Itoa(d.Line))
		if d.Column > 0 {
			sb.WriteString(":")
			sb.WriteString(strconv.Itoa(d.Column))
		}
		sb.WriteString(": ")
	}
	sb.WriteString(d.Severity.String())
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	return sb.String()
}

// displayWidth returns the number of terminal columns text occupies.
func displayWidth(text []byte) int {
	return runewidth.StringWidth(string(text))
}

// defaultMaxDiagnostics is the number of diagnostics a single parse keeps.
const defaultMaxDiagnostics = 1000

// diagBag accumulates diagnostics for a parse session.
// Once the bag is full, further non-fatal diagnostics are dropped,
// but a fatal diagnostic is always kept.
type diagBag struct {
	items   []Diagnostic
	max     int
	dropped int
	fatal   int
}

func newDiagBag(max int) *diagBag {
	if max <= 0 {
		max = defaultMaxDiagnostics
	}
	return &diagBag{max: max}
}

func (b *diagBag) add(d Diagnostic) bool {
	if !b.admit(d.Kind) {
		return false
	}
	if d.IsFatal() {
		b.fatal++
	}
	b.items = append(b.items, d)
	return true
}

// admit reports whether a diagnostic of the given kind would be kept.
// A diagnostic that would not be kept is counted as dropped,
// so callers may skip building it.
func (b *diagBag) admit(kind DiagnosticKind) bool {
	if len(b.items) >= b.max && kind.Severity() != SeverityError {
		b.dropped++
		return false
	}
	return true
}

func (b *diagBag) addf(kind DiagnosticKind, line, col int, format string, args ...any) {
	b.add(Diagnostic{
		Severity: kind.Severity(),
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Column:   col,
	})
}

func (b *diagBag) fatalCount() int {
	return b.fatal
}

// list returns the accumulated diagnostics,
// appending a note about any diagnostics dropped over the cap.
func (b *diagBag) list() []Diagnostic {
	items := b.items[:len(b.items):len(b.items)]
	if b.dropped > 0 {
		items = append(items, Diagnostic{
			Severity: SeverityInfo,
			Kind:     Informational,
			Message:  fmt.Sprintf("%d more diagnostics omitted", b.dropped),
		})
	}
	return items
}
