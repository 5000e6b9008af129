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
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go4.org/bytereplacer"
	"golang.org/x/net/html"
)

// Substitutions is a set of inline substitution passes.
// Passes always run in a fixed order regardless of how the set was written:
// special characters, attributes, macros, quotes,
// then replacements and post replacements.
type Substitutions uint8

const (
	// SpecialCharsSub keeps "<", ">", and "&" as literal characters.
	SpecialCharsSub Substitutions = 1 << iota
	// QuotesSub recognizes formatting marks.
	QuotesSub
	// AttributesSub replaces attribute references with their values.
	AttributesSub
	// ReplacementsSub replaces textual symbols like "(C)" and "--"
	// and decodes character references like "&#169;".
	ReplacementsSub
	// MacrosSub recognizes links, cross references, and inline macros.
	MacrosSub
	// PostReplacementsSub converts trailing " +" into hard line breaks.
	PostReplacementsSub
)

// Substitution presets.
const (
	NoSubs       Substitutions = 0
	NormalSubs                 = SpecialCharsSub | QuotesSub | AttributesSub | ReplacementsSub | MacrosSub | PostReplacementsSub
	VerbatimSubs               = SpecialCharsSub
	HeaderSubs                 = SpecialCharsSub | AttributesSub
)

var substitutionNames = []struct {
	sub  Substitutions
	name string
}{
	{SpecialCharsSub, "specialchars"},
	{QuotesSub, "quotes"},
	{AttributesSub, "attributes"},
	{ReplacementsSub, "replacements"},
	{MacrosSub, "macros"},
	{PostReplacementsSub, "post_replacements"},
}

// String returns the substitution set in the syntax of the subs attribute.
func (s Substitutions) String() string {
	switch s {
	case NoSubs:
		return "none"
	case NormalSubs:
		return "normal"
	case VerbatimSubs:
		return "verbatim"
	}
	var names []string
	for _, sn := range substitutionNames {
		if s&sn.sub != 0 {
			names = append(names, sn.name)
		}
	}
	return strings.Join(names, ",")
}

var substitutionAliases = map[string]Substitutions{
	"specialchars":      SpecialCharsSub,
	"specialcharacters": SpecialCharsSub,
	"c":                 SpecialCharsSub,
	"quotes":            QuotesSub,
	"q":                 QuotesSub,
	"attributes":        AttributesSub,
	"a":                 AttributesSub,
	"replacements":      ReplacementsSub,
	"r":                 ReplacementsSub,
	"macros":            MacrosSub,
	"m":                 MacrosSub,
	"post_replacements": PostReplacementsSub,
	"p":                 PostReplacementsSub,
	"normal":            NormalSubs,
	"n":                 NormalSubs,
	"verbatim":          VerbatimSubs,
	"v":                 VerbatimSubs,
	"none":              NoSubs,
	// Callouts are not recognized, but the name is accepted.
	"callouts": NoSubs,
}

// ParseSubstitutions parses the value of a subs attribute
// like "quotes,macros" or "+attributes,-replacements".
// If every item is incremental (prefixed with "+" or "-" or suffixed with "+"),
// the items modify defaults; otherwise the result starts empty.
func ParseSubstitutions(value string, defaults Substitutions) (Substitutions, error) {
	items := strings.Split(value, ",")
	incremental := true
	for i, item := range items {
		item = strings.TrimSpace(item)
		items[i] = item
		if !strings.HasPrefix(item, "+") && !strings.HasPrefix(item, "-") && !strings.HasSuffix(item, "+") {
			incremental = false
		}
	}
	result := NoSubs
	if incremental {
		result = defaults
	}
	for _, item := range items {
		if item == "" {
			continue
		}
		remove := false
		name := item
		switch {
		case strings.HasPrefix(item, "-"):
			remove = true
			name = item[1:]
		case strings.HasPrefix(item, "+"):
			name = item[1:]
		case strings.HasSuffix(item, "+"):
			name = item[:len(item)-1]
		}
		sub, ok := substitutionAliases[strings.ToLower(name)]
		if !ok {
			return defaults, fmt.Errorf("parse substitutions %q: unknown substitution %q", value, name)
		}
		if remove {
			result &^= sub
		} else {
			result |= sub
		}
	}
	return result, nil
}

// ParseInline parses text as AsciiDoc inline content
// using the given substitutions.
// attrs supplies values for attribute references;
// if attrs is nil, a new environment with default attributes is used.
// Counter and set references modify attrs unless it is frozen.
func ParseInline(text string, attrs *Attributes, subs Substitutions) ([]*Inline, []Diagnostic) {
	if attrs == nil {
		attrs = NewAttributes()
	}
	nop := zerolog.Nop()
	p := &inlineParser{
		attrs:    attrs,
		diags:    newDiagBag(0),
		log:      &nop,
		line:     1,
		maxDepth: DefaultMaxDepth,
	}
	nodes := p.parse(sanitizeText(text), subs)
	return nodes, p.diags.list()
}

// inlineParser runs the substitution pipeline over the text of leaf blocks.
type inlineParser struct {
	attrs *Attributes
	diags *diagBag
	log   *zerolog.Logger
	// line is the source line of the first line of text.
	line       int
	maxDepth   int
	depth      int
	hardbreaks bool
	// refNames holds the attribute name of each substituted reference.
	// Origin k refers to refNames[k-1].
	refNames []string
	// limited is set once the nesting limit has been reported.
	limited bool
	// offset is the display column of the text within its first line,
	// like the width of "== " before a section title.
	offset int
	// pos caches the position of the last warning.
	pos textPosition
}

func (p *inlineParser) parse(text string, subs Substitutions) []*Inline {
	if text == "" {
		return nil
	}
	p.refNames = p.refNames[:0]
	p.pos = textPosition{}
	return p.run(newSubText(text), subs)
}

// run applies the passes selected by subs to st in order.
func (p *inlineParser) run(st *subText, subs Substitutions) []*Inline {
	if subs&^(SpecialCharsSub|PostReplacementsSub) != 0 {
		st = p.protect(st)
	}
	if subs&AttributesSub != 0 {
		st = p.substituteAttributes(st)
	}
	if subs&MacrosSub != 0 {
		st = p.macros(st, subs)
	}
	nodes := p.quotes(st, subs)
	return mergeText(p.groupReferences(nodes))
}

// enter increments the nesting depth,
// reporting false if the depth limit was reached.
func (p *inlineParser) enter() bool {
	if p.depth >= p.maxDepth {
		if !p.limited {
			p.limited = true
			p.diags.addf(LimitExceeded, p.line, 0, "inline nesting exceeds maximum depth of %d", p.maxDepth)
			p.log.Debug().Int("line", p.line).Int("max_depth", p.maxDepth).Msg("inline depth limit reached")
		}
		return false
	}
	p.depth++
	return true
}

func (p *inlineParser) leave() {
	p.depth--
}

// warnAt records a syntax warning for the byte offset i of st.
func (p *inlineParser) warnAt(st *subText, i int, format string, args ...any) {
	if !p.diags.admit(SyntaxWarning) {
		return
	}
	i = min(max(i, 0), len(st.buf))
	pos := &p.pos
	if pos.st != st || i < pos.offset {
		*pos = textPosition{st: st, line: p.line, col: 1 + p.offset}
	}
	// Advance line by line from the last reported position.
	for {
		nl := bytes.IndexByte(st.buf[pos.offset:i], '\n')
		if nl < 0 {
			break
		}
		pos.offset += nl + 1
		pos.line++
		pos.col = 1
	}
	pos.col += displayWidth(st.buf[pos.offset:i])
	pos.offset = i
	p.diags.addf(SyntaxWarning, pos.line, pos.col, format, args...)
}

// textPosition is the source position of a byte offset in a subText.
type textPosition struct {
	st     *subText
	offset int
	line   int
	col    int
}

// groupReferences wraps runs of sibling nodes that all came from
// the same attribute reference into AttributeReferenceKind nodes.
func (p *inlineParser) groupReferences(nodes []*Inline) []*Inline {
	var out []*Inline
	for i := 0; i < len(nodes); {
		k := nodes[i].origin
		if k <= 0 || int(k) > len(p.refNames) {
			if nodes[i].kind != AttributeReferenceKind && len(nodes[i].children) > 0 {
				nodes[i].children = p.groupReferences(nodes[i].children)
			}
			out = append(out, nodes[i])
			i++
			continue
		}
		j := i + 1
		for j < len(nodes) && nodes[j].origin == k {
			j++
		}
		out = append(out, &Inline{
			kind:     AttributeReferenceKind,
			name:     p.refNames[k-1],
			children: append([]*Inline(nil), nodes[i:j]...),
		})
		i = j
	}
	return out
}

// placeholder marks the position of an already-parsed node in a subText.
// Input text never contains NUL bytes.
const placeholder byte = 0

// subText is text partway through the substitution pipeline.
// Each placeholder byte in buf stands for the next unclaimed node in nodes.
type subText struct {
	buf []byte
	// origin has one entry per byte of buf:
	// zero for document text or the attribute reference instance it was spliced from.
	origin []int32
	nodes  []*Inline
}

func newSubText(s string) *subText {
	return &subText{
		buf:    []byte(s),
		origin: make([]int32, len(s)),
	}
}

// plain returns the text of st with each placeholder replaced by
// the plain text of its node.
func (st *subText) plain() string {
	if bytes.IndexByte(st.buf, placeholder) < 0 {
		return string(st.buf)
	}
	sb := new(strings.Builder)
	next := 0
	for _, c := range st.buf {
		if c == placeholder {
			sb.WriteString(PlainText(st.nodes[next : next+1]))
			next++
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// commonOrigin returns the origin shared by every byte in the range
// or zero if the bytes have different origins.
func (st *subText) commonOrigin(i, j int) int32 {
	if i >= j {
		return 0
	}
	k := st.origin[i]
	for _, o := range st.origin[i+1 : j] {
		if o != k {
			return 0
		}
	}
	return k
}

// subBuilder produces a new subText from a source subText
// by copying, replacing, or extracting ranges in order.
type subBuilder struct {
	src  *subText
	next int
	out  subText
}

func newSubBuilder(src *subText) *subBuilder {
	return &subBuilder{
		src: src,
		out: subText{
			buf:    make([]byte, 0, len(src.buf)),
			origin: make([]int32, 0, len(src.buf)),
		},
	}
}

// copy appends the source range [i, j) to the output.
func (b *subBuilder) copy(i, j int) {
	for k := i; k < j; k++ {
		if b.src.buf[k] == placeholder {
			b.out.nodes = append(b.out.nodes, b.src.nodes[b.next])
			b.next++
		}
	}
	b.out.buf = append(b.out.buf, b.src.buf[i:j]...)
	b.out.origin = append(b.out.origin, b.src.origin[i:j]...)
}

// take claims the source range [i, j) without copying it,
// returning it as a standalone subText.
func (b *subBuilder) take(i, j int) *subText {
	seg := &subText{
		buf:    append([]byte(nil), b.src.buf[i:j]...),
		origin: append([]int32(nil), b.src.origin[i:j]...),
	}
	for k := i; k < j; k++ {
		if b.src.buf[k] == placeholder {
			seg.nodes = append(seg.nodes, b.src.nodes[b.next])
			b.next++
		}
	}
	return seg
}

// node appends a placeholder for n.
func (b *subBuilder) node(n *Inline, origin int32) {
	n.origin = origin
	b.out.buf = append(b.out.buf, placeholder)
	b.out.origin = append(b.out.origin, origin)
	b.out.nodes = append(b.out.nodes, n)
}

// text appends literal text.
func (b *subBuilder) text(s string, origin int32) {
	s = sanitizeText(s)
	b.out.buf = append(b.out.buf, s...)
	for range len(s) {
		b.out.origin = append(b.out.origin, origin)
	}
}

// dropLine removes the output after the last newline.
func (b *subBuilder) dropLine() {
	start := bytes.LastIndexByte(b.out.buf, '\n') + 1
	n := bytes.Count(b.out.buf[start:], []byte{placeholder})
	b.out.nodes = b.out.nodes[:len(b.out.nodes)-n]
	b.out.buf = b.out.buf[:start]
	b.out.origin = b.out.origin[:start]
}

func (b *subBuilder) done() *subText {
	return &b.out
}

func textNode(s string) *Inline {
	return &Inline{kind: TextKind, text: s}
}

// protect handles backslash escapes and passthroughs.
// Protected text becomes placeholder nodes
// so that later passes do not interpret it.
func (p *inlineParser) protect(st *subText) *subText {
	buf := st.buf
	b := newSubBuilder(st)
	last := 0
	for i := 0; i < len(buf); {
		switch buf[i] {
		case '\\':
			if i+1 >= len(buf) {
				break
			}
			n := escapeLength(buf, i+1)
			if n == 0 {
				break
			}
			b.copy(last, i)
			b.take(i, i+1)
			b.node(textNode(string(buf[i+1:i+1+n])), st.origin[i])
			b.take(i+1, i+1+n)
			i += 1 + n
			last = i
			continue
		case '+':
			end, fence, kind := plusPassthrough(buf, i)
			if end == 0 {
				break
			}
			b.copy(last, i)
			seg := b.take(i, end)
			content := &subText{buf: seg.buf[fence : len(seg.buf)-fence], nodes: seg.nodes}
			b.node(&Inline{kind: kind, text: content.plain()}, st.commonOrigin(i, end))
			i = end
			last = i
			continue
		case 'p':
			if i > 0 && isWordByte(buf[i-1]) {
				break
			}
			end, ok := p.passMacro(st, b, last, i)
			if !ok {
				break
			}
			i = end
			last = i
			continue
		}
		i++
	}
	b.copy(last, len(buf))
	return b.done()
}

// escapeLength returns the number of bytes starting at j
// protected by a preceding backslash,
// or zero if the backslash does not escape anything.
func escapeLength(buf []byte, j int) int {
	c := buf[j]
	switch {
	case strings.IndexByte("*_`#^~+", c) >= 0:
		n := 1
		for n < 3 && j+n < len(buf) && buf[j+n] == c {
			n++
		}
		return n
	case c == '{':
		end := bytes.IndexByte(buf[j:], '}')
		if end < 2 {
			return 0
		}
		ref := string(buf[j+1 : j+end])
		if name, _, _ := strings.Cut(ref, ":"); !isValidAttributeName(name) {
			return 0
		}
		return end + 1
	}
	if n := replacementPrefix(buf[j:]); n > 0 {
		return n
	}
	if j+1 < len(buf) && buf[j+1] == c && (c == '[' || c == '<' || c == '(') {
		return 2
	}
	if isASCIILetter(c) {
		k := j
		for k < len(buf) && (isASCIILetter(buf[k]) || isASCIIDigit(buf[k])) {
			k++
		}
		if k < len(buf) && buf[k] == ':' && isEscapableMacro(string(buf[j:k])) {
			return k - j + 1
		}
	}
	return 0
}

// plusPassthrough recognizes "+++raw+++", "++text++", and "+text+" at i.
// It returns zero if there is no passthrough at i.
func plusPassthrough(buf []byte, i int) (end, fence int, kind InlineKind) {
	for _, n := range []int{3, 2} {
		fence := []byte("+++"[:n])
		if !bytes.HasPrefix(buf[i:], fence) {
			continue
		}
		close := bytes.Index(buf[i+n:], fence)
		if close <= 0 {
			continue
		}
		kind = TextKind
		if n == 3 {
			kind = PassthroughKind
		}
		return i + n + close + n, n, kind
	}
	if i > 0 && (isWordByte(buf[i-1]) || buf[i-1] == '+') {
		return 0, 0, 0
	}
	if i+1 >= len(buf) || isSpaceByte(buf[i+1]) || buf[i+1] == '+' {
		return 0, 0, 0
	}
	for j := i + 2; j < len(buf); j++ {
		if buf[j] != '+' || isSpaceByte(buf[j-1]) {
			continue
		}
		if j+1 < len(buf) && (isWordByte(buf[j+1]) || buf[j+1] == '+') {
			continue
		}
		return j + 1, 1, TextKind
	}
	return 0, 0, 0
}

// passMacro recognizes "pass:[raw]" and "pass:q,a[text]" at i.
func (p *inlineParser) passMacro(st *subText, b *subBuilder, last, i int) (end int, ok bool) {
	buf := st.buf
	if !bytes.HasPrefix(buf[i:], []byte("pass:")) {
		return 0, false
	}
	open := i + len("pass:")
	for open < len(buf) && (isASCIILetter(buf[open]) || buf[open] == ',' || buf[open] == '+' || buf[open] == '-' || buf[open] == '_') {
		open++
	}
	if open >= len(buf) || buf[open] != '[' {
		return 0, false
	}
	close := findBracketEnd(buf, open)
	if close < 0 {
		return 0, false
	}
	spec := string(buf[i+len("pass:") : open])
	var subs Substitutions
	if spec != "" {
		var err error
		subs, err = ParseSubstitutions(spec, NoSubs)
		if err != nil {
			return 0, false
		}
	}
	origin := st.commonOrigin(i, close+1)
	b.copy(last, i)
	b.take(i, open+1)
	content := unescapeBrackets(b.take(open+1, close).plain())
	b.take(close, close+1)
	if subs == NoSubs {
		b.node(&Inline{kind: PassthroughKind, text: content}, origin)
		return close + 1, true
	}
	if !p.enter() {
		b.node(&Inline{kind: PassthroughKind, text: content}, origin)
		return close + 1, true
	}
	nodes := p.run(newSubText(content), subs&^MacrosSub)
	p.leave()
	for _, n := range nodes {
		b.node(n, origin)
	}
	return close + 1, true
}

// findBracketEnd returns the index of the "]" that closes the "[" at open,
// skipping backslash-escaped brackets and balanced inner brackets,
// or -1 if there is none.
func findBracketEnd(buf []byte, open int) int {
	depth := 0
	for i := open + 1; i < len(buf); i++ {
		switch buf[i] {
		case '\\':
			if i+1 < len(buf) && buf[i+1] == ']' {
				i++
			}
		case '[':
			depth++
		case ']':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

func unescapeBrackets(s string) string {
	return strings.ReplaceAll(s, `\]`, "]")
}

// substituteAttributes replaces attribute references with their values.
// Spliced values are recorded in the origin of each byte
// so that they can be grouped into AttributeReferenceKind nodes.
func (p *inlineParser) substituteAttributes(st *subText) *subText {
	buf := st.buf
	b := newSubBuilder(st)
	last := 0
	for i := 0; i < len(buf); i++ {
		if buf[i] != '{' {
			continue
		}
		end := -1
		for j := i + 1; j < len(buf); j++ {
			if c := buf[j]; c == '}' {
				end = j
				break
			} else if c == '{' || c == '\n' || c == placeholder {
				break
			}
		}
		if end < 0 {
			continue
		}
		ref := string(buf[i+1 : end])
		next := end + 1
		switch {
		case isValidAttributeName(ref):
			name := strings.ToLower(ref)
			if p.attrs.isIntrinsic(name) {
				value, _ := p.attrs.Lookup(name)
				b.copy(last, i)
				b.take(i, next)
				b.node(&Inline{
					kind:     AttributeReferenceKind,
					name:     name,
					children: []*Inline{textNode(value)},
				}, st.origin[i])
				last = next
			} else if value, ok := p.attrs.Lookup(name); ok {
				b.copy(last, i)
				b.take(i, next)
				p.refNames = append(p.refNames, name)
				b.text(value, int32(len(p.refNames)))
				last = next
			} else {
				p.warnAt(st, i, "unresolved attribute reference {%s}", ref)
				policy, _ := p.attrs.Lookup("attribute-missing")
				switch policy {
				case "drop":
					b.copy(last, i)
					b.take(i, next)
					last = next
				case "drop-line":
					b.copy(last, i)
					b.dropLine()
					lineEnd := bytes.IndexByte(buf[next:], '\n')
					if lineEnd < 0 {
						b.take(i, len(buf))
						if n := len(b.out.buf); n > 0 && b.out.buf[n-1] == '\n' {
							b.out.buf = b.out.buf[:n-1]
							b.out.origin = b.out.origin[:n-1]
						}
						last = len(buf)
					} else {
						b.take(i, next+lineEnd+1)
						last = next + lineEnd + 1
					}
				}
			}
		case strings.HasPrefix(ref, "counter:") || strings.HasPrefix(ref, "counter2:"):
			kind, rest, _ := strings.Cut(ref, ":")
			name, seed, _ := strings.Cut(rest, ":")
			if !isValidAttributeName(name) {
				continue
			}
			value := p.attrs.counter(name, seed)
			b.copy(last, i)
			b.take(i, next)
			if kind == "counter" {
				b.text(value, st.origin[i])
			}
			last = next
		case strings.HasPrefix(ref, "set:"):
			rest := ref[len("set:"):]
			name, value, _ := strings.Cut(rest, ":")
			var err error
			if n, ok := strings.CutSuffix(name, "!"); ok {
				err = p.attrs.Unset(n)
			} else {
				err = p.attrs.Define(name, value, ScopeDocument)
			}
			if err != nil {
				p.log.Debug().Err(err).Str("attribute", name).Msg("inline set reference ignored")
			}
			b.copy(last, i)
			b.take(i, next)
			last = next
		default:
			continue
		}
		i = next - 1
	}
	b.copy(last, len(buf))
	return b.done()
}

// replacements are the fixed textual symbol replacements.
// Dashes and apostrophes depend on context and are handled separately.
var replacements = bytereplacer.New(
	"(C)", "©",
	"(R)", "®",
	"(TM)", "™",
	"...", "…",
	"->", "→",
	"=>", "⇒",
	"<-", "←",
	"<=", "⇐",
)

var replacementKeys = []string{"(C)", "(R)", "(TM)", "...", "->", "=>", "<-", "<=", "--"}

// replacementPrefix returns the length of the replacement key at the start of b
// or zero.
func replacementPrefix(b []byte) int {
	for _, key := range replacementKeys {
		if bytes.HasPrefix(b, []byte(key)) {
			return len(key)
		}
	}
	return 0
}

// replaceCharacters applies the replacements pass to a run of text.
func replaceCharacters(s string) string {
	if !strings.ContainsAny(s, "-.()=<>'&") {
		return s
	}
	s = replaceDashes(s)
	s = replaceApostrophes(s)
	s = string(replacements.Replace([]byte(s)))
	return decodeCharacterReferences(s)
}

// replaceDashes converts "--" between words into an em dash
// and " -- " into an em dash surrounded by thin spaces.
func replaceDashes(s string) string {
	if !strings.Contains(s, "--") {
		return s
	}
	sb := new(strings.Builder)
	for i := 0; i < len(s); i++ {
		if s[i] != '-' || i+1 >= len(s) || s[i+1] != '-' || (i+2 < len(s) && s[i+2] == '-') || (i > 0 && s[i-1] == '-') {
			sb.WriteByte(s[i])
			continue
		}
		before := i == 0 || s[i-1] == ' ' || s[i-1] == '\n'
		after := i+2 == len(s) || s[i+2] == ' ' || s[i+2] == '\n'
		switch {
		case i > 0 && isWordByte(s[i-1]) && i+2 < len(s) && isWordByte(s[i+2]):
			sb.WriteString("—")
			i++
		case before && after:
			str := sb.String()
			if strings.HasSuffix(str, " ") {
				sb.Reset()
				sb.WriteString(str[:len(str)-1])
				sb.WriteString("\u2009")
			}
			sb.WriteString("—")
			i++
			if i+1 < len(s) && s[i+1] == ' ' {
				sb.WriteString("\u2009")
				i++
			}
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// replaceApostrophes converts a straight apostrophe between word characters
// into a typographic one.
func replaceApostrophes(s string) string {
	if !strings.Contains(s, "'") {
		return s
	}
	b := []byte(s)
	var out []byte
	for i := 0; i < len(b); i++ {
		if b[i] == '\'' && i > 0 && isWordByte(b[i-1]) && i+1 < len(b) && isWordByte(b[i+1]) {
			out = append(out, "’"...)
			continue
		}
		out = append(out, b[i])
	}
	return string(out)
}

// decodeCharacterReferences decodes well-formed named, decimal,
// and hexadecimal character references.
func decodeCharacterReferences(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	sb := new(strings.Builder)
	for i := 0; i < len(s); {
		if s[i] != '&' {
			sb.WriteByte(s[i])
			i++
			continue
		}
		end := strings.IndexByte(s[i:], ';')
		if end < 2 || end > 32 || !isCharacterReference(s[i+1:i+end]) {
			sb.WriteByte(s[i])
			i++
			continue
		}
		ref := s[i : i+end+1]
		sb.WriteString(html.UnescapeString(ref))
		i += end + 1
	}
	return sb.String()
}

func isCharacterReference(name string) bool {
	if num, ok := strings.CutPrefix(name, "#"); ok {
		if hex, ok := strings.CutPrefix(strings.ToLower(num), "x"); ok {
			return hex != "" && strings.Trim(hex, "0123456789abcdef") == ""
		}
		return num != "" && strings.Trim(num, "0123456789") == ""
	}
	if !isASCIILetter(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isASCIILetter(name[i]) && !isASCIIDigit(name[i]) {
			return false
		}
	}
	return true
}

// appendText appends the nodes for a run of literal text
// after the replacements and post replacements passes.
// endsText is true if the run ends the text being parsed.
func (p *inlineParser) appendText(out []*Inline, s string, origin int32, subs Substitutions, endsText bool) []*Inline {
	if s == "" {
		return out
	}
	if subs&ReplacementsSub != 0 {
		s = replaceCharacters(s)
	}
	if subs&PostReplacementsSub == 0 || (!p.hardbreaks && !strings.Contains(s, " +")) {
		return append(out, &Inline{kind: TextKind, text: s, origin: origin})
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		last := i == len(lines)-1
		brk := false
		if !last || endsText {
			if trimmed, ok := strings.CutSuffix(line, " +"); ok {
				line, brk = trimmed, true
			} else if p.hardbreaks && !last {
				brk = true
			}
		}
		if line != "" {
			out = append(out, &Inline{kind: TextKind, text: line, origin: origin})
		}
		switch {
		case brk:
			out = append(out, &Inline{kind: LineBreakKind, origin: origin})
		case !last:
			out = append(out, &Inline{kind: TextKind, text: "\n", origin: origin})
		}
	}
	return out
}

// sanitizeText replaces NUL characters and invalid UTF-8 with U+FFFD.
func sanitizeText(s string) string {
	if strings.IndexByte(s, 0) < 0 && utf8.ValidString(s) {
		return s
	}
	s = strings.ToValidUTF8(s, "\uFFFD")
	return strings.ReplaceAll(s, "\x00", "\uFFFD")
}

func isWordByte(c byte) bool {
	return isASCIILetter(c) || isASCIIDigit(c) || c == '_' || c >= 0x80
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n'
}
