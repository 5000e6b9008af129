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
	"strconv"
	"strings"
)

// ConditionalKind is the directive that introduces a [Conditional].
type ConditionalKind uint8

const (
	IfDef ConditionalKind = 1 + iota
	IfNDef
	IfEval
)

func (k ConditionalKind) String() string {
	switch k {
	case IfDef:
		return "ifdef"
	case IfNDef:
		return "ifndef"
	case IfEval:
		return "ifeval"
	default:
		return "ConditionalKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// A Conditional is a parsed preprocessor conditional directive
// like "ifdef::backend-html5,env-github[]" or "ifeval::[{level} > 1]".
type Conditional struct {
	Kind ConditionalKind
	// Targets is the list of attribute names tested by ifdef and ifndef.
	Targets []string
	// All is true if Targets were joined with "+" (every attribute must be set)
	// rather than "," (any attribute may be set).
	All bool
	// Expr is the expression of an ifeval directive.
	Expr string
	// Text is the content of a single-line conditional
	// like "ifdef::flag[Shown when flag is set.]".
	// Single-line conditionals do not open a region.
	Text string
}

// ParseConditional parses the directive line of a conditional,
// including its trailing brackets.
func ParseConditional(line string) (Conditional, error) {
	d, ok := parseDirective(line)
	if !ok {
		return Conditional{}, fmt.Errorf("parse conditional %q: not a directive", line)
	}
	return newConditional(d)
}

func newConditional(d directive) (Conditional, error) {
	var c Conditional
	switch d.name {
	case "ifdef":
		c.Kind = IfDef
	case "ifndef":
		c.Kind = IfNDef
	case "ifeval":
		c.Kind = IfEval
		if d.target != "" {
			return Conditional{}, fmt.Errorf("parse conditional: ifeval does not accept a target")
		}
		c.Expr = strings.TrimSpace(d.body)
		if c.Expr == "" {
			return Conditional{}, fmt.Errorf("parse conditional: empty ifeval expression")
		}
		return c, nil
	default:
		return Conditional{}, fmt.Errorf("parse conditional: unknown directive %q", d.name)
	}
	if d.target == "" {
		return Conditional{}, fmt.Errorf("parse conditional: %s requires a target", d.name)
	}
	sep := ","
	if strings.Contains(d.target, "+") {
		sep = "+"
		c.All = true
	}
	for _, name := range strings.Split(d.target, sep) {
		name = strings.ToLower(strings.TrimSpace(name))
		if !isValidAttributeName(name) {
			return Conditional{}, fmt.Errorf("parse conditional: %w %q", ErrInvalidName, name)
		}
		c.Targets = append(c.Targets, name)
	}
	c.Text = d.body
	return c, nil
}

// IsVisible reports whether the content guarded by c should be parsed
// given the current attribute values.
// Malformed ifeval expressions are not visible.
func (a *Attributes) IsVisible(c Conditional) bool {
	visible, _ := a.evaluate(c)
	return visible
}

func (a *Attributes) evaluate(c Conditional) (bool, error) {
	switch c.Kind {
	case IfDef, IfNDef:
		defined := 0
		for _, name := range c.Targets {
			if a.IsSet(name) {
				defined++
			}
		}
		var result bool
		if c.All {
			result = defined == len(c.Targets)
		} else {
			result = defined > 0
		}
		if c.Kind == IfNDef {
			result = !result
		}
		return result, nil
	case IfEval:
		return a.evalExpr(c.Expr)
	default:
		return false, fmt.Errorf("evaluate conditional: unknown kind %v", c.Kind)
	}
}

var errMalformedExpr = errors.New("malformed ifeval expression")

// comparisonOperators is ordered so that two-character operators
// are found before their one-character prefixes.
var comparisonOperators = []string{"==", "!=", "<=", ">=", "<", ">"}

func (a *Attributes) evalExpr(expr string) (bool, error) {
	expr, _ = a.resolveReferences(expr)
	op, opIndex := "", -1
	for i := 0; i < len(expr) && opIndex < 0; i++ {
		if c := expr[i]; c == '"' || c == '\'' {
			// Skip over quoted operands.
			if end := strings.IndexByte(expr[i+1:], c); end >= 0 {
				i += end + 1
			}
			continue
		}
		for _, candidate := range comparisonOperators {
			if strings.HasPrefix(expr[i:], candidate) {
				op, opIndex = candidate, i
				break
			}
		}
	}
	if opIndex < 0 {
		return false, fmt.Errorf("%w: no comparison operator in %q", errMalformedExpr, expr)
	}
	lhs, lquoted := evalOperand(expr[:opIndex])
	rhs, rquoted := evalOperand(expr[opIndex+len(op):])
	if lhs == "" && !lquoted || rhs == "" && !rquoted {
		return false, fmt.Errorf("%w: missing operand in %q", errMalformedExpr, expr)
	}

	var cmp int
	lnum, lerr := strconv.ParseFloat(lhs, 64)
	rnum, rerr := strconv.ParseFloat(rhs, 64)
	if lerr == nil && rerr == nil && !lquoted && !rquoted {
		switch {
		case lnum < rnum:
			cmp = -1
		case lnum > rnum:
			cmp = 1
		}
	} else {
		cmp = strings.Compare(lhs, rhs)
	}

	switch op {
	case "==":
		return cmp == 0, nil
	case "!=":
		return cmp != 0, nil
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	default:
		return cmp >= 0, nil
	}
}

func evalOperand(s string) (value string, quoted bool) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], true
	}
	return s, false
}

// condFrame is an entry on the conditional region stack.
type condFrame struct {
	cond Conditional
	line int
	// skipping is true if lines in the region are not parsed,
	// either because the condition is false or an enclosing region is skipped.
	skipping bool
}

// PushConditional opens a conditional region.
// Inside a skipped region, the condition is not evaluated
// and the new region is skipped too.
// PushConditional returns an error for a malformed ifeval expression,
// in which case the region is skipped.
func (a *Attributes) PushConditional(c Conditional) error {
	return a.pushConditional(c, 0)
}

func (a *Attributes) pushConditional(c Conditional, line int) error {
	if a.Skipping() {
		a.conds = append(a.conds, condFrame{cond: c, line: line, skipping: true})
		return nil
	}
	visible, err := a.evaluate(c)
	a.conds = append(a.conds, condFrame{cond: c, line: line, skipping: !visible})
	return err
}

// PopConditional closes the innermost conditional region
// and returns the condition that opened it.
// ok is false if no region is open.
func (a *Attributes) PopConditional() (c Conditional, ok bool) {
	if len(a.conds) == 0 {
		return Conditional{}, false
	}
	top := a.conds[len(a.conds)-1]
	a.conds = a.conds[:len(a.conds)-1]
	return top.cond, true
}

// Skipping reports whether the current line is inside a false conditional region.
func (a *Attributes) Skipping() bool {
	return len(a.conds) > 0 && a.conds[len(a.conds)-1].skipping
}

// ConditionalDepth returns the number of open conditional regions.
func (a *Attributes) ConditionalDepth() int {
	return len(a.conds)
}

// matchesEndif reports whether an endif directive's target
// closes the region opened by c.
// An empty target closes any region.
func matchesEndif(c Conditional, target string) bool {
	if target == "" || c.Kind == IfEval {
		return true
	}
	sep := ","
	if c.All {
		sep = "+"
	}
	return strings.EqualFold(strings.Join(c.Targets, sep), target)
}
