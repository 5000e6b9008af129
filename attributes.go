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
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Scope is the lifetime of an attribute definition.
type Scope uint8

const (
	// ScopeDocument definitions persist for the remainder of the parse.
	ScopeDocument Scope = iota
	// ScopeBlock definitions apply to the next block only.
	ScopeBlock
)

// Errors returned by [*Attributes] methods.
var (
	// ErrLocked is returned when attempting to change an attribute
	// that the caller fixed before parsing.
	ErrLocked = errors.New("attribute is locked")
	// ErrFrozen is returned when attempting to change
	// the attribute snapshot of a parsed [Document].
	ErrFrozen = errors.New("attributes are read-only")
	// ErrInvalidName is returned for attribute names
	// that are not made of letters, digits, underscores, and hyphens.
	ErrInvalidName = errors.New("invalid attribute name")
)

// Attributes is an AsciiDoc attribute environment:
// a case-insensitive mapping of names to values
// plus the pending block attributes and conditional region stack
// of a parse session.
//
// The zero value is not usable; create environments with [NewAttributes].
// An environment must not be used by multiple goroutines at once.
// [*Parser] copies its initial environment for every parse,
// so independent parses never share an environment.
type Attributes struct {
	values map[string]string
	// userSet holds the names defined or unset through the API
	// (as opposed to built-in defaults).
	userSet map[string]struct{}
	// hidden holds intrinsic attribute names that were explicitly unset.
	hidden map[string]struct{}
	locked map[string]struct{}
	block  map[string]string
	// delimiters maps custom fences to the block kind they open.
	delimiters map[string]BlockKind
	conds      []condFrame
	frozen     bool
}

// NewAttributes returns a new environment
// populated with the built-in default attributes.
func NewAttributes() *Attributes {
	a := &Attributes{
		values:  make(map[string]string, len(defaultAttributes)),
		userSet: make(map[string]struct{}),
		hidden:  make(map[string]struct{}),
		locked:  make(map[string]struct{}),
	}
	for k, v := range defaultAttributes {
		a.values[k] = v
	}
	return a
}

// defaultAttributes are set in every new environment.
var defaultAttributes = map[string]string{
	"attribute-missing": "skip",
	"doctype":           "article",
	"idprefix":          "_",
	"idseparator":       "_",
	"sectids":           "",
	"toclevels":         "2",
}

// intrinsicAttributes are always defined unless explicitly unset.
// Their values are inserted as literal text.
var intrinsicAttributes = map[string]string{
	"amp":            "&",
	"apos":           "'",
	"asterisk":       "*",
	"backslash":      `\`,
	"backtick":       "`",
	"blank":          "",
	"brvbar":         "¦",
	"caret":          "^",
	"cpp":            "C++",
	"deg":            "°",
	"empty":          "",
	"endsb":          "]",
	"gt":             ">",
	"ldquo":          "“",
	"lsquo":          "‘",
	"lt":             "<",
	"nbsp":           "\u00a0",
	"plus":           "+",
	"pp":             "++",
	"quot":           `"`,
	"rdquo":          "”",
	"rsquo":          "’",
	"sp":             " ",
	"startsb":        "[",
	"tilde":          "~",
	"two-colons":     "::",
	"two-semicolons": ";;",
	"vbar":           "|",
	"wj":             "\u2060",
	"zwsp":           "\u200b",
}

// newSessionAttributes returns the environment for a single parse.
// Every attribute the caller defined or unset in initial is locked,
// except for values ending in "@", which the document may override.
func newSessionAttributes(initial *Attributes) *Attributes {
	a := NewAttributes()
	if initial == nil {
		return a
	}
	for name := range initial.userSet {
		value, defined := initial.values[name]
		if soft, ok := strings.CutSuffix(value, "@"); defined && ok {
			a.values[name] = soft
			a.userSet[name] = struct{}{}
			continue
		}
		if defined {
			a.values[name] = value
		} else {
			delete(a.values, name)
			if _, ok := intrinsicAttributes[name]; ok {
				a.hidden[name] = struct{}{}
			}
		}
		a.userSet[name] = struct{}{}
		a.locked[name] = struct{}{}
	}
	a.rebuildDelimiters()
	return a
}

// Clone returns a mutable deep copy of the environment.
// Locks are preserved.
func (a *Attributes) Clone() *Attributes {
	b := &Attributes{
		values:  cloneMap(a.values),
		userSet: cloneSet(a.userSet),
		hidden:  cloneSet(a.hidden),
		locked:  cloneSet(a.locked),
		block:   cloneMap(a.block),
		conds:   append([]condFrame(nil), a.conds...),
	}
	b.rebuildDelimiters()
	return b
}

// freeze returns a read-only snapshot of the document-scope attributes.
func (a *Attributes) freeze() *Attributes {
	b := &Attributes{
		values:  cloneMap(a.values),
		userSet: cloneSet(a.userSet),
		hidden:  cloneSet(a.hidden),
		locked:  cloneSet(a.locked),
		frozen:  true,
	}
	b.rebuildDelimiters()
	return b
}

// Frozen reports whether the environment is a read-only snapshot.
func (a *Attributes) Frozen() bool {
	return a != nil && a.frozen
}

// Define sets an attribute.
// Document-scoped definitions are visible to all later lookups.
// Block-scoped definitions are held until the next block consumes them.
func (a *Attributes) Define(name, value string, scope Scope) error {
	if a.frozen {
		return fmt.Errorf("define %s: %w", name, ErrFrozen)
	}
	name = strings.ToLower(name)
	if !isValidAttributeName(name) {
		return fmt.Errorf("define %q: %w", name, ErrInvalidName)
	}
	if scope == ScopeBlock {
		if a.block == nil {
			a.block = make(map[string]string)
		}
		a.block[name] = value
		return nil
	}
	if _, locked := a.locked[name]; locked {
		return fmt.Errorf("define %s: %w", name, ErrLocked)
	}
	a.values[name] = value
	a.userSet[name] = struct{}{}
	delete(a.hidden, name)
	if strings.HasPrefix(name, delimiterAttributePrefix) {
		a.rebuildDelimiters()
	}
	return nil
}

// Unset removes a document attribute.
// Unsetting an attribute that is not defined is not an error.
func (a *Attributes) Unset(name string) error {
	if a.frozen {
		return fmt.Errorf("unset %s: %w", name, ErrFrozen)
	}
	name = strings.ToLower(name)
	if !isValidAttributeName(name) {
		return fmt.Errorf("unset %q: %w", name, ErrInvalidName)
	}
	if _, locked := a.locked[name]; locked {
		return fmt.Errorf("unset %s: %w", name, ErrLocked)
	}
	delete(a.values, name)
	a.userSet[name] = struct{}{}
	if _, ok := intrinsicAttributes[name]; ok {
		a.hidden[name] = struct{}{}
	}
	if strings.HasPrefix(name, delimiterAttributePrefix) {
		a.rebuildDelimiters()
	}
	return nil
}

// Lookup returns the value of a document attribute.
// ok is false if the attribute is unset.
func (a *Attributes) Lookup(name string) (value string, ok bool) {
	if a == nil {
		return "", false
	}
	name = strings.ToLower(name)
	if v, ok := a.values[name]; ok {
		return v, true
	}
	if _, hidden := a.hidden[name]; hidden {
		return "", false
	}
	v, ok := intrinsicAttributes[name]
	return v, ok
}

// IsSet reports whether the named attribute is defined.
func (a *Attributes) IsSet(name string) bool {
	_, ok := a.Lookup(name)
	return ok
}

// IsLocked reports whether the document is prevented from changing the attribute.
func (a *Attributes) IsLocked(name string) bool {
	if a == nil {
		return false
	}
	_, ok := a.locked[strings.ToLower(name)]
	return ok
}

// Names returns the sorted names of the defined document attributes,
// excluding intrinsic attributes.
func (a *Attributes) Names() []string {
	if a == nil {
		return nil
	}
	return sortedKeys(a.values)
}

// isIntrinsic reports whether name resolves to a built-in character attribute.
func (a *Attributes) isIntrinsic(name string) bool {
	name = strings.ToLower(name)
	if _, ok := a.values[name]; ok {
		return false
	}
	if _, hidden := a.hidden[name]; hidden {
		return false
	}
	_, ok := intrinsicAttributes[name]
	return ok
}

// takeBlockAttributes returns the pending block-scoped attributes
// and clears them so that exactly one block consumes them.
func (a *Attributes) takeBlockAttributes() map[string]string {
	m := a.block
	a.block = nil
	return m
}

func (a *Attributes) hasBlockAttributes() bool {
	return len(a.block) > 0
}

func (a *Attributes) blockAttribute(name string) (string, bool) {
	v, ok := a.block[name]
	return v, ok
}

// counter advances the named counter and returns its new value.
// Counters start at seed (default "1") and advance numerically,
// or alphabetically for single-letter values.
func (a *Attributes) counter(name, seed string) string {
	name = strings.ToLower(name)
	cur, ok := a.values[name]
	next := seed
	switch {
	case !ok || cur == "":
		if next == "" {
			next = "1"
		}
	default:
		if n, err := strconv.Atoi(cur); err == nil {
			next = strconv.Itoa(n + 1)
		} else if len(cur) == 1 && isASCIILetter(cur[0]) {
			switch cur[0] {
			case 'z':
				next = "aa"
			case 'Z':
				next = "AA"
			default:
				next = string(rune(cur[0] + 1))
			}
		} else if next == "" {
			next = "1"
		}
	}
	if a.frozen || a.IsLocked(name) {
		return cur
	}
	a.values[name] = next
	a.userSet[name] = struct{}{}
	return next
}

// resolveReferences replaces simple attribute references in s
// with their values, as done for attribute entry values
// and attribute lists.
// Backslash-escaped references are left literal without the backslash.
// It returns the names of any references that could not be resolved;
// those references are kept as literal text.
func (a *Attributes) resolveReferences(s string) (string, []string) {
	if !strings.Contains(s, "{") {
		return s, nil
	}
	sb := new(strings.Builder)
	var missing []string
	for i := 0; i < len(s); {
		switch {
		case s[i] == '\\' && i+1 < len(s) && s[i+1] == '{':
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 || !isValidAttributeName(s[i+2:i+1+end]) {
				sb.WriteByte(s[i])
				i++
				continue
			}
			sb.WriteString(s[i+1 : i+2+end])
			i += end + 2
		case s[i] == '{':
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				sb.WriteString(s[i:])
				i = len(s)
				continue
			}
			name := s[i+1 : i+end]
			if !isValidAttributeName(name) {
				sb.WriteByte('{')
				i++
				continue
			}
			if v, ok := a.Lookup(name); ok {
				sb.WriteString(v)
			} else {
				missing = append(missing, name)
				sb.WriteString(s[i : i+end+1])
			}
			i += end + 1
		default:
			sb.WriteByte(s[i])
			i++
		}
	}
	return sb.String(), missing
}

// delimiterAttributePrefix is the prefix of attributes
// that register custom delimited block fences,
// like ":delimiter-listing: ~~~~".
const delimiterAttributePrefix = "delimiter-"

func (a *Attributes) rebuildDelimiters() {
	a.delimiters = nil
	for name, value := range a.values {
		kindName, ok := strings.CutPrefix(name, delimiterAttributePrefix)
		if !ok {
			continue
		}
		kind := blockKindByName(kindName)
		fence := strings.TrimSpace(value)
		if !isDelimitedKind(kind) || !isValidCustomFence(fence) {
			continue
		}
		if a.delimiters == nil {
			a.delimiters = make(map[string]BlockKind)
		}
		a.delimiters[fence] = kind
	}
}

// customDelimiter returns the block kind registered for the fence, if any.
func (a *Attributes) customDelimiter(fence string) (BlockKind, bool) {
	if a == nil || len(a.delimiters) == 0 {
		return 0, false
	}
	kind, ok := a.delimiters[fence]
	return kind, ok
}

func isValidCustomFence(fence string) bool {
	if len(fence) < 2 {
		return false
	}
	for i := 0; i < len(fence); i++ {
		if c := fence[i]; c == ' ' || c == '\t' || isASCIILetter(c) || isASCIIDigit(c) {
			return false
		}
	}
	return true
}

func isValidAttributeName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case isASCIILetter(c) || isASCIIDigit(c) || c == '_':
		case c == '-' && i > 0:
		default:
			return false
		}
	}
	return true
}

func isASCIILetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isASCIIDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneSet(m map[string]struct{}) map[string]struct{} {
	c := make(map[string]struct{}, len(m))
	for k := range m {
		c[k] = struct{}{}
	}
	return c
}
