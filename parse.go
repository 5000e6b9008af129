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

// Package asciidoc provides an [AsciiDoc] parser.
//
// Parsing never fails outright:
// every input produces a [*Document] and a list of [Diagnostic] values
// describing anything malformed, unresolved, or over a configured limit.
//
// [AsciiDoc]: https://asciidoc.org/
package asciidoc

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Default limits used by a zero [Parser].
const (
	// DefaultMaxDepth is the default maximum nesting depth
	// of blocks and inline spans combined.
	DefaultMaxDepth = 64
	// DefaultMaxSize is the default maximum input size in bytes.
	DefaultMaxSize = 16 << 20
	// DefaultMaxIncludeDepth is the default maximum depth of nested includes.
	DefaultMaxIncludeDepth = 64
)

// IncludeFunc resolves the target of an include directive
// like "include::chapter.adoc[leveloffset=+1]"
// and returns the text to insert in place of the directive.
// attrs holds the directive's attribute list.
type IncludeFunc func(target string, attrs map[string]string) (string, error)

// A Parser holds parse options.
// The zero value parses with default options.
// A Parser may be used by multiple goroutines concurrently
// as long as its fields are not modified.
type Parser struct {
	// Attributes is the initial attribute environment.
	// Every attribute defined or unset in it is locked
	// and cannot be changed by the document,
	// unless its value ends in "@".
	// The parser never modifies Attributes.
	Attributes *Attributes

	// MaxDepth is the maximum nesting depth of blocks and inline spans.
	// If zero, DefaultMaxDepth is used.
	MaxDepth int
	// MaxSize is the maximum number of bytes of input to parse.
	// Longer input is truncated at a line boundary.
	// If zero, DefaultMaxSize is used.
	MaxSize int
	// MaxIncludeDepth is the maximum depth of nested include directives.
	// If zero, DefaultMaxIncludeDepth is used.
	MaxIncludeDepth int
	// MaxDiagnostics is the maximum number of non-fatal diagnostics to report.
	// If zero, 1000 is used.
	MaxDiagnostics int

	// Include resolves include directives.
	// If Include is nil, include directives are replaced
	// by a link to their target.
	Include IncludeFunc

	// Logger receives debug events about the parse.
	// If nil, nothing is logged.
	Logger *zerolog.Logger
}

// Parse parses an AsciiDoc document with default options.
func Parse(source []byte) (*Document, []Diagnostic) {
	return new(Parser).Parse(source)
}

// Parse parses an AsciiDoc document.
// Line endings may be "\n", "\r\n", or "\r".
// The returned diagnostics are the same as the document's.
func (p *Parser) Parse(source []byte) (*Document, []Diagnostic) {
	return p.ParseLines(splitLines(source))
}

// ParseLines parses an AsciiDoc document that has already been split into lines.
// The lines must not contain line endings.
func (p *Parser) ParseLines(lines []string) (*Document, []Diagnostic) {
	bp := p.newBlockParser()
	maxSize := p.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	size := 0
	for i, line := range lines {
		size += len(line) + 1
		if size > maxSize {
			bp.diags.addf(LimitExceeded, i+1, 0, "input exceeds maximum size of %d bytes; truncated after line %d", maxSize, i)
			bp.log.Debug().Int("max_size", maxSize).Int("line", i+1).Msg("input truncated")
			lines = lines[:i]
			break
		}
	}
	src := make([]string, len(lines))
	for i, line := range lines {
		src[i] = sanitizeText(strings.TrimSuffix(line, "\r"))
	}
	bp.run(src)
	doc := bp.document()
	return doc, doc.Diagnostics()
}

// splitLines splits source into lines,
// normalizing line endings and dropping a leading byte order mark.
func splitLines(source []byte) []string {
	source = bytes.TrimPrefix(source, []byte("\ufeff"))
	if len(source) == 0 {
		return nil
	}
	text := string(source)
	if strings.Contains(text, "\r") {
		text = strings.ReplaceAll(text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\r", "\n")
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// lineFrame is a source of lines:
// the document itself or the text of an include directive.
type lineFrame struct {
	lines []string
	next  int
	// firstLine is the line number of lines[0].
	// Included lines all report the line of their include directive,
	// signaled by a zero step.
	firstLine int
	step      int
	// levelOffset is added to the level of headings read from the frame.
	levelOffset int
	target      string
}

func (f *lineFrame) lineNumber(i int) int {
	return f.firstLine + i*f.step
}

// headerState tracks progress through the document header.
type headerState uint8

const (
	headerStart headerState = iota
	headerAfterTitle
	headerAfterAuthor
	headerAttributes
	headerDone
)

// blockParser is the state of a single parse session.
type blockParser struct {
	attrs   *Attributes
	diags   *diagBag
	log     *zerolog.Logger
	inline  *inlineParser
	include IncludeFunc

	maxDepth        int
	maxIncludeDepth int
	// baseDepth is the nesting depth of the enclosing document
	// for documents nested in table cells.
	baseDepth int

	frames []*lineFrame
	line   int

	root  *Block
	stack []*Block
	// para is the open leaf block accumulating lines.
	para *Block
	// paraWrapper is the block wrapping para
	// for styles like "[quote]" applied to a paragraph.
	paraWrapper *Block
	// raw is the open delimited block collecting lines until its closing fence.
	raw *Block
	// entry is an attribute entry awaiting continuation lines.
	entry     *lineInfo
	entryLine int

	pendingTitle       string
	pendingTitleLine   int
	pendingTitleOffset int
	// pendingStart is the first line of the attribute, anchor, and title lines
	// waiting for the next block, or zero.
	pendingStart int

	header    headerState
	docHeader DocumentHeader
	nested    bool
	ids       map[string]int
	// idSuffixes is the next numeric suffix to try for a duplicate ID base.
	idSuffixes map[string]int
	skipStart  int
	aborted    bool
}

func (p *Parser) newBlockParser() *blockParser {
	log := p.Logger
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	bp := &blockParser{
		attrs:           newSessionAttributes(p.Attributes),
		diags:           newDiagBag(p.MaxDiagnostics),
		log:             log,
		include:         p.Include,
		maxDepth:        p.MaxDepth,
		maxIncludeDepth: p.MaxIncludeDepth,
		ids:             make(map[string]int),
		idSuffixes:      make(map[string]int),
		docHeader:       DocumentHeader{Span: NullSpan()},
	}
	if bp.maxDepth <= 0 {
		bp.maxDepth = DefaultMaxDepth
	}
	if bp.maxIncludeDepth <= 0 {
		bp.maxIncludeDepth = DefaultMaxIncludeDepth
	}
	bp.inline = &inlineParser{
		attrs:    bp.attrs,
		diags:    bp.diags,
		log:      bp.log,
		maxDepth: bp.maxDepth,
	}
	return bp
}

// nestedParser returns a parser for a document nested in a table cell.
// It shares the session's environment, diagnostics, and IDs.
func (bp *blockParser) nestedParser(depth int) *blockParser {
	return &blockParser{
		attrs:           bp.attrs,
		diags:           bp.diags,
		log:             bp.log,
		inline:          bp.inline,
		include:         bp.include,
		maxDepth:        bp.maxDepth,
		maxIncludeDepth: bp.maxIncludeDepth,
		baseDepth:       depth,
		header:          headerDone,
		nested:          true,
		ids:             bp.ids,
		idSuffixes:      bp.idSuffixes,
	}
}

// run parses the lines of a document, numbered from firstLine.
func (bp *blockParser) run(lines []string) {
	bp.runFrom(lines, 1)
}

func (bp *blockParser) runFrom(lines []string, firstLine int) {
	bp.root = &Block{kind: DocumentKind, span: LineSpan{Start: firstLine, End: firstLine + len(lines) - 1}}
	bp.stack = []*Block{bp.root}
	bp.frames = []*lineFrame{{lines: lines, firstLine: firstLine, step: 1}}
	// A truncated input is still parsed up to the truncation point.
	fatal := bp.diags.fatalCount()
	for !bp.aborted {
		line, ok := bp.nextLine()
		if !ok {
			break
		}
		bp.processLine(line)
		if bp.diags.fatalCount() > fatal {
			bp.aborted = true
		}
	}
	bp.finish()
}

// nextLine returns the next line of input,
// descending into included text and returning from it as needed.
func (bp *blockParser) nextLine() (string, bool) {
	for len(bp.frames) > 0 {
		f := bp.frames[len(bp.frames)-1]
		if f.next < len(f.lines) {
			line := f.lines[f.next]
			bp.line = f.lineNumber(f.next)
			f.next++
			return line, true
		}
		bp.frames = bp.frames[:len(bp.frames)-1]
	}
	return "", false
}

func (bp *blockParser) currentFrame() *lineFrame {
	return bp.frames[len(bp.frames)-1]
}

// processLine handles a single line of input.
func (bp *blockParser) processLine(line string) {
	if bp.entry != nil {
		bp.continueEntry(line)
		return
	}
	if d, ok := parseDirective(strings.TrimRight(line, " \t")); ok && bp.preprocess(d, line) {
		return
	}
	if bp.attrs.Skipping() {
		return
	}
	if bp.raw != nil {
		bp.rawLine(line)
		return
	}
	info := classifyLine(line, bp.attrs)
	if bp.header != headerDone && bp.headerLine(info, line) {
		return
	}
	bp.blockLine(info, line)
}

// preprocess handles a conditional or include directive.
// It reports false if the line should be parsed as text instead.
func (bp *blockParser) preprocess(d directive, line string) bool {
	switch d.name {
	case "endif":
		bp.endif(d)
		return true
	case "include":
		if bp.attrs.Skipping() {
			return true
		}
		if bp.raw != nil && bp.raw.kind == CommentKind {
			return false
		}
		bp.includeDirective(d, line)
		return true
	}
	cond, err := newConditional(d)
	if err != nil {
		if bp.attrs.Skipping() {
			return true
		}
		bp.diags.addf(SyntaxWarning, bp.line, 1, "%v", err)
		return false
	}
	skipping := bp.attrs.Skipping()
	if cond.Text != "" {
		if !skipping {
			bp.singleLineConditional(cond)
		}
		return true
	}
	if err := bp.attrs.pushConditional(cond, bp.line); err != nil {
		bp.diags.addf(SyntaxWarning, bp.line, 1, "%v", err)
	}
	if !skipping && bp.attrs.Skipping() {
		bp.skipStart = bp.line
		bp.log.Debug().Int("line", bp.line).Str("directive", strings.TrimSpace(line)).Msg("skipping conditional region")
	}
	return true
}

// singleLineConditional processes the text of an ifdef::name[text] form.
// Nested single-line forms are unwrapped iteratively
// up to the parser's depth limit.
func (bp *blockParser) singleLineConditional(cond Conditional) {
	for depth := 1; bp.attrs.IsVisible(cond); depth++ {
		if depth > bp.maxDepth {
			bp.diags.addf(LimitExceeded, bp.line, 1, "conditional nesting exceeds maximum depth of %d", bp.maxDepth)
			return
		}
		d, ok := parseDirective(strings.TrimRight(cond.Text, " \t"))
		if !ok {
			bp.processLine(cond.Text)
			return
		}
		inner, err := newConditional(d)
		if err != nil || inner.Text == "" {
			bp.processLine(cond.Text)
			return
		}
		cond = inner
	}
}

func (bp *blockParser) endif(d directive) {
	skipping := bp.attrs.Skipping()
	if bp.attrs.ConditionalDepth() == 0 {
		bp.diags.addf(StructuralWarning, bp.line, 1, "endif::%s[] without matching conditional", d.target)
		return
	}
	cond, _ := bp.attrs.PopConditional()
	if !matchesEndif(cond, d.target) {
		bp.diags.addf(StructuralWarning, bp.line, 1, "endif::%s[] does not match open %s conditional", d.target, cond.Kind)
	}
	if skipping && !bp.attrs.Skipping() {
		bp.diags.addf(Informational, bp.skipStart, 1, "skipped lines %d-%d excluded by %s conditional", bp.skipStart, bp.line, cond.Kind)
	}
}

// includeDirective inserts the text of an included document.
func (bp *blockParser) includeDirective(d directive, line string) {
	target, _ := bp.attrs.resolveReferences(d.target)
	if len(bp.frames)-1 >= bp.maxIncludeDepth {
		bp.diags.addf(LimitExceeded, bp.line, 1, "include of %s exceeds maximum include depth of %d", target, bp.maxIncludeDepth)
		bp.log.Debug().Int("line", bp.line).Int("max_include_depth", bp.maxIncludeDepth).Msg("include depth limit reached")
		return
	}
	if bp.include == nil {
		bp.diags.addf(Informational, bp.line, 1, "include of %s not resolved", target)
		bp.processLine("link:" + target + "[role=include]")
		return
	}
	attrs := parseAttributeList(d.body, false)
	text, err := bp.include(target, attrs)
	if err != nil {
		bp.diags.addf(StructuralWarning, bp.line, 1, "include of %s: %v", target, err)
		bp.log.Debug().Err(err).Str("target", target).Msg("include failed")
		return
	}
	lines := splitLines([]byte(text))
	for i := range lines {
		lines[i] = sanitizeText(lines[i])
	}
	if spec, ok := attrs["lines"]; ok {
		lines = selectLines(lines, spec)
	}
	f := &lineFrame{
		lines:       lines,
		firstLine:   bp.line,
		levelOffset: bp.currentFrame().levelOffset,
		target:      target,
	}
	if offset, ok := attrs["leveloffset"]; ok {
		f.levelOffset = applyLevelOffset(f.levelOffset, offset)
	}
	bp.log.Debug().Int("line", bp.line).Str("target", target).Int("lines", len(lines)).Msg("include")
	bp.frames = append(bp.frames, f)
}

// selectLines filters lines with a specification like "1..3;7;10..-1".
// Line numbers are 1-based and -1 means the last line.
func selectLines(lines []string, spec string) []string {
	var out []string
	for _, r := range strings.FieldsFunc(spec, func(c rune) bool { return c == ';' || c == ',' }) {
		first, last, isRange := strings.Cut(strings.TrimSpace(r), "..")
		start, err := strconv.Atoi(first)
		if err != nil || start < 1 {
			continue
		}
		end := start
		if isRange {
			end, err = strconv.Atoi(last)
			if err != nil {
				continue
			}
			if end < 0 {
				end = len(lines)
			}
		}
		for i := start; i <= end && i <= len(lines); i++ {
			out = append(out, lines[i-1])
		}
	}
	return out
}

// applyLevelOffset applies a leveloffset value like "+1", "-1", or "2".
func applyLevelOffset(current int, value string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(value, "+"))
	if err != nil {
		return current
	}
	if strings.HasPrefix(value, "+") || strings.HasPrefix(value, "-") {
		return current + n
	}
	return n
}

// levelOffset returns the offset to add to heading levels on the current line.
func (bp *blockParser) levelOffset() int {
	offset := bp.currentFrame().levelOffset
	if v, ok := bp.attrs.Lookup("leveloffset"); ok {
		offset = applyLevelOffset(offset, v)
	}
	return offset
}

// depth returns the nesting depth of the innermost open block.
func (bp *blockParser) depth() int {
	return bp.baseDepth + len(bp.stack) - 1
}

// checkDepth reports whether a block may be opened inside the open blocks,
// reporting a fatal diagnostic if not.
func (bp *blockParser) checkDepth() bool {
	return bp.allowDepth(bp.depth() + 1)
}

// allowDepth reports whether a block may be nested at depth d.
func (bp *blockParser) allowDepth(d int) bool {
	if d <= bp.maxDepth {
		return true
	}
	bp.diags.addf(LimitExceeded, bp.line, 1, "block nesting exceeds maximum depth of %d", bp.maxDepth)
	bp.log.Debug().Int("line", bp.line).Int("max_depth", bp.maxDepth).Msg("block depth limit reached")
	bp.aborted = true
	return false
}

// finish closes every open block at the end of input.
func (bp *blockParser) finish() {
	if bp.entry != nil {
		bp.finishEntry()
	}
	bp.closeParagraph()
	if bp.raw != nil {
		if !bp.aborted {
			bp.diags.addf(StructuralWarning, bp.raw.span.Start, 1, "unterminated %s block", bp.raw.kind)
		}
		bp.closeRaw()
	}
	for len(bp.stack) > 1 {
		top := bp.top()
		if top.delim != "" && !bp.aborted {
			bp.diags.addf(StructuralWarning, top.span.Start, 1, "unterminated %s block", top.kind)
		}
		bp.pop()
	}
	if !bp.nested && bp.attrs.ConditionalDepth() > 0 {
		bp.diags.addf(Informational, bp.line, 0, "%d conditional region(s) not closed by endif", bp.attrs.ConditionalDepth())
	}
	if bp.attrs.hasBlockAttributes() && bp.pendingStart > 0 {
		bp.diags.addf(Informational, bp.pendingStart, 1, "block attributes not followed by a block")
	}
	bp.discardPending()
}
