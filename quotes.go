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
	"sort"
	"strings"
)

// markKinds maps formatting mark characters to the spans they produce.
var markKinds = map[byte]InlineKind{
	'*': StrongKind,
	'_': EmphasisKind,
	'`': MonospaceKind,
	'#': MarkKind,
	'^': SuperscriptKind,
	'~': SubscriptKind,
}

// quoteMark is a run of formatting mark characters
// that may open or close a span.
type quoteMark struct {
	start, end int
	c          byte
	double     bool
	canOpen    bool
	canClose   bool
	// attrStart is the offset of the "[" of an attribute list
	// immediately preceding an opening mark, or -1.
	attrStart int
	attrs     map[string]string
}

func (m *quoteMark) spanStart() int {
	if m.attrStart >= 0 {
		return m.attrStart
	}
	return m.start
}

// quotePair is a matched opening and closing mark.
type quotePair struct {
	open, close quoteMark
}

// quotes performs the quotes pass (if enabled) over st
// and converts the result into inline nodes,
// applying the replacements and post replacements passes to literal text.
func (p *inlineParser) quotes(st *subText, subs Substitutions) []*Inline {
	var pairs []quotePair
	if subs&QuotesSub != 0 {
		pairs = p.matchQuotes(st)
	}
	qb := &quoteBuilder{p: p, st: st, subs: subs, pairs: pairs}
	return qb.build(0, len(st.buf))
}

// scanMarks tokenizes the formatting marks in buf.
// Runs of three or more identical marks are literal.
func scanMarks(buf []byte) []quoteMark {
	var marks []quoteMark
	for i := 0; i < len(buf); {
		c := buf[i]
		if _, ok := markKinds[c]; !ok {
			i++
			continue
		}
		n := 1
		for i+n < len(buf) && buf[i+n] == c {
			n++
		}
		if n > 2 || (n == 2 && (c == '^' || c == '~')) {
			i += n
			continue
		}
		prev, next := byte(' '), byte(' ')
		if i > 0 {
			prev = buf[i-1]
		}
		if i+n < len(buf) {
			next = buf[i+n]
		}
		m := quoteMark{start: i, end: i + n, c: c, double: n == 2, attrStart: -1}
		switch {
		case m.double || c == '^' || c == '~':
			m.canOpen = i+n < len(buf) && !isSpaceByte(next)
			m.canClose = i > 0 && !isSpaceByte(prev)
		default:
			m.canOpen = !isWordByte(prev) && prev != ';' && prev != ':' && prev != '}' && i+n < len(buf) && !isSpaceByte(next)
			m.canClose = i > 0 && !isSpaceByte(prev) && !isWordByte(next)
		}
		if m.canOpen && prev == ']' {
			m.attrStart, m.attrs = spanAttributes(buf, i-1)
			if m.attrStart >= 0 && !m.double && m.attrStart > 0 && isWordByte(buf[m.attrStart-1]) {
				m.attrStart, m.attrs = -1, nil
			}
			// Marks inside the attribute list, like "#" in "[#id]", are not marks.
			for m.attrStart >= 0 && len(marks) > 0 && marks[len(marks)-1].start >= m.attrStart {
				marks = marks[:len(marks)-1]
			}
		}
		marks = append(marks, m)
		i += n
	}
	return marks
}

// spanAttributes parses an attribute list like "[.role]"
// whose closing bracket is at close.
func spanAttributes(buf []byte, close int) (start int, attrs map[string]string) {
	for i := close - 1; i >= 0; i-- {
		switch buf[i] {
		case '[':
			inner := string(buf[i+1 : close])
			if inner == "" || strings.TrimSpace(inner) != inner {
				return -1, nil
			}
			attrs = parseAttributeList(inner, true)
			if style, ok := attrs["1"]; ok {
				// A bare word is a role, as in "[underline]#text#".
				delete(attrs, "1")
				addRole(attrs, style)
			}
			return i, attrs
		case ']', '\n', placeholder:
			return -1, nil
		}
	}
	return -1, nil
}

// matchQuotes pairs opening and closing marks with a stack.
// A mark of a kind that is already open cannot open a nested span
// and is left as literal text.
// Openers left unmatched are literal text and are reported.
func (p *inlineParser) matchQuotes(st *subText) []quotePair {
	marks := scanMarks(st.buf)
	if len(marks) == 0 {
		return nil
	}
	var pairs []quotePair
	var stack []int
	for t := range marks {
		m := &marks[t]
		if m.canClose {
			j := -1
			for s := len(stack) - 1; s >= 0; s-- {
				o := &marks[stack[s]]
				if o.c == m.c && o.double == m.double {
					j = s
					break
				}
			}
			if j >= 0 && validSpan(st.buf, &marks[stack[j]], m) {
				for _, u := range stack[j+1:] {
					p.warnAt(st, marks[u].start, "unmatched formatting mark %q", st.buf[marks[u].start:marks[u].end])
				}
				pairs = append(pairs, quotePair{open: marks[stack[j]], close: *m})
				stack = stack[:j]
				continue
			}
		}
		if !m.canOpen {
			continue
		}
		sameOpen := false
		for _, s := range stack {
			if marks[s].c == m.c {
				sameOpen = true
				break
			}
		}
		if !sameOpen {
			stack = append(stack, t)
		}
	}
	for _, u := range stack {
		p.warnAt(st, marks[u].start, "unmatched formatting mark %q", st.buf[marks[u].start:marks[u].end])
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].open.spanStart() < pairs[j].open.spanStart()
	})
	return pairs
}

// validSpan reports whether the text between open and close
// may form a span.
func validSpan(buf []byte, open, close *quoteMark) bool {
	if close.start <= open.end {
		return false
	}
	if open.c == '^' || open.c == '~' {
		for _, c := range buf[open.end:close.start] {
			if isSpaceByte(c) {
				return false
			}
		}
	}
	return true
}

// quoteBuilder converts a subText and its matched pairs into nodes.
type quoteBuilder struct {
	p     *inlineParser
	st    *subText
	subs  Substitutions
	pairs []quotePair
	// nextPair and nextNode are cursors into pairs and st.nodes.
	nextPair int
	nextNode int
}

func (qb *quoteBuilder) build(start, end int) []*Inline {
	var out []*Inline
	i := start
	for qb.nextPair < len(qb.pairs) && qb.pairs[qb.nextPair].open.spanStart() < end {
		pr := qb.pairs[qb.nextPair]
		qb.nextPair++
		out = qb.emit(out, i, pr.open.spanStart())
		if !qb.p.enter() {
			// Render the span and everything nested in it as text.
			for qb.nextPair < len(qb.pairs) && qb.pairs[qb.nextPair].open.spanStart() < pr.close.end {
				qb.nextPair++
			}
			out = qb.emit(out, pr.open.spanStart(), pr.close.end)
			i = pr.close.end
			continue
		}
		node := &Inline{
			kind:          markKinds[pr.open.c],
			unconstrained: pr.open.double,
			attrs:         pr.open.attrs,
			origin:        qb.st.commonOrigin(pr.open.spanStart(), pr.close.end),
		}
		node.children = qb.build(pr.open.end, pr.close.start)
		qb.p.leave()
		out = append(out, node)
		i = pr.close.end
	}
	return qb.emit(out, i, end)
}

// emit appends the nodes for the range [start, end),
// which contains no formatting marks.
func (qb *quoteBuilder) emit(out []*Inline, start, end int) []*Inline {
	buf := qb.st.buf
	for i := start; i < end; {
		if buf[i] == placeholder {
			out = append(out, qb.st.nodes[qb.nextNode])
			qb.nextNode++
			i++
			continue
		}
		j := i + 1
		for j < end && buf[j] != placeholder && qb.st.origin[j] == qb.st.origin[i] {
			j++
		}
		out = qb.p.appendText(out, string(buf[i:j]), qb.st.origin[i], qb.subs, j == len(buf))
		i = j
	}
	return out
}
