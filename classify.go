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
	"strconv"
	"strings"
)

// lineKind is the structural tag the classifier assigns to a line.
type lineKind uint8

const (
	textLine lineKind = iota
	blankLine
	delimiterLine
	commentLine
	attributeEntryLine
	directiveLine
	headingLine
	listMarkerLine
	tableRowLine
	thematicBreakLine
	pageBreakLine
	blockAnchorLine
	blockAttributeLine
	blockTitleLine
	continuationLine
	blockMacroLine
)

var lineKindNames = [...]string{
	textLine:           "text",
	blankLine:          "blank",
	delimiterLine:      "delimiter",
	commentLine:        "comment",
	attributeEntryLine: "attribute entry",
	directiveLine:      "directive",
	headingLine:        "heading",
	listMarkerLine:     "list marker",
	tableRowLine:       "table row",
	thematicBreakLine:  "thematic break",
	pageBreakLine:      "page break",
	blockAnchorLine:    "block anchor",
	blockAttributeLine: "block attribute",
	blockTitleLine:     "block title",
	continuationLine:   "continuation",
	blockMacroLine:     "block macro",
}

func (k lineKind) String() string {
	if int(k) < len(lineKindNames) {
		return lineKindNames[k]
	}
	return "lineKind(" + strconv.Itoa(int(k)) + ")"
}

// lineInfo is the result of classifying a single line.
// Only the fields relevant to kind are set.
type lineInfo struct {
	kind lineKind
	// text is the line's content payload:
	// heading and block titles, list item principal text,
	// the inside of block attribute lists and anchors,
	// or the line itself (minus any escaping backslash) for text lines.
	text string
	// offset is the byte offset of text within the line
	// for headings and block titles.
	offset int
	// indent is the number of leading space or tab characters.
	indent int

	// Delimiter lines.
	delimKind BlockKind
	fence     string
	// lang is the language following a "```" fence.
	lang string

	// Attribute entries.
	name      string
	value     string
	unset     bool
	continued bool

	directive directive

	// Headings.
	level int

	list listMarker

	// Block macros.
	macro blockMacro
}

// directive is a preprocessor line like "include::target[attrs]".
type directive struct {
	name   string
	target string
	body   string
}

// listMarker describes the marker that starts a list item.
type listMarker struct {
	kind ListMarkerKind
	// class is the marker text that determines list membership,
	// like "*", "**", "-", ".", "1.", "a.", "::", or ";;".
	class string
	// number is the explicit ordinal of an ordered marker like "3." or "c.",
	// or zero.
	number int
	// checkbox is 0 for no checkbox, ' ' for unchecked, or 'x' for checked.
	checkbox byte
	// term is the raw term of a description list item.
	term string
}

type blockMacro struct {
	name     string
	target   string
	attrlist string
}

// classifyLine tags a single line with its structural kind.
// It is a pure function of the line and the custom delimiters
// registered in attrs.
// Ambiguities resolve in the order
// delimiters, comments, attribute entries, directives, headings,
// list markers, table rows, other block lines, then text.
func classifyLine(line string, attrs *Attributes) lineInfo {
	trimmed := strings.TrimRight(line, " \t")
	if trimmed == "" {
		return lineInfo{kind: blankLine}
	}
	if info, ok := classifyDelimiter(trimmed, attrs); ok {
		return info
	}
	if strings.HasPrefix(trimmed, "//") && !strings.HasPrefix(trimmed, "///") {
		return lineInfo{kind: commentLine, text: trimmed[2:]}
	}
	if info, ok := parseAttributeEntry(line); ok {
		return info
	}
	if d, ok := parseDirective(trimmed); ok {
		return lineInfo{kind: directiveLine, directive: d}
	}
	if strings.HasPrefix(trimmed, `\`) {
		// Escaped directives and entries are text without the backslash.
		if _, ok := parseDirective(trimmed[1:]); ok {
			return lineInfo{kind: textLine, text: line[1:]}
		}
		if _, ok := parseAttributeEntry(line[1:]); ok {
			return lineInfo{kind: textLine, text: line[1:]}
		}
	}
	if info, ok := parseHeading(trimmed); ok {
		return info
	}
	switch trimmed {
	case "'''", "---", "***", "- - -", "* * *":
		return lineInfo{kind: thematicBreakLine}
	case "<<<":
		return lineInfo{kind: pageBreakLine}
	case "+":
		return lineInfo{kind: continuationLine}
	}
	indent := leadingIndent(line)
	if info, ok := parseListMarker(line[indent:]); ok {
		info.indent = indent
		return info
	}
	if trimmed[0] == '|' {
		return lineInfo{kind: tableRowLine, text: line}
	}
	if info, ok := parseBlockLine(trimmed); ok {
		return info
	}
	return lineInfo{kind: textLine, text: line, indent: indent}
}

// delimiterChars maps the characters of repeated-character fences
// to the block kinds they open.
var delimiterChars = map[byte]BlockKind{
	'-': ListingKind,
	'.': LiteralKind,
	'_': QuoteKind,
	'=': ExampleKind,
	'*': SidebarKind,
	'+': PassKind,
	'/': CommentKind,
}

// minFenceLength is the minimum length of a repeated-character fence.
const minFenceLength = 4

func classifyDelimiter(line string, attrs *Attributes) (lineInfo, bool) {
	if kind, ok := attrs.customDelimiter(line); ok {
		return lineInfo{kind: delimiterLine, delimKind: kind, fence: line}, true
	}
	if line == "--" {
		return lineInfo{kind: delimiterLine, delimKind: OpenKind, fence: line}, true
	}
	if lang, ok := strings.CutPrefix(line, "```"); ok && !strings.Contains(lang, "`") && !strings.ContainsAny(lang, " \t") {
		return lineInfo{kind: delimiterLine, delimKind: ListingKind, fence: "```", lang: lang}, true
	}
	if len(line) >= minFenceLength && strings.Contains("|,:!", line[:1]) && isRepeated(line[1:], '=') {
		return lineInfo{kind: delimiterLine, delimKind: TableKind, fence: line}, true
	}
	kind, ok := delimiterChars[line[0]]
	if !ok || len(line) < minFenceLength || !isRepeated(line, line[0]) {
		return lineInfo{}, false
	}
	return lineInfo{kind: delimiterLine, delimKind: kind, fence: line}, true
}

func isRepeated(s string, c byte) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != c {
			return false
		}
	}
	return true
}

// parseAttributeEntry parses a line like ":name: value", ":!name:", or ":name!:".
func parseAttributeEntry(line string) (lineInfo, bool) {
	if len(line) < 3 || line[0] != ':' {
		return lineInfo{}, false
	}
	end := strings.IndexByte(line[1:], ':')
	if end < 0 {
		return lineInfo{}, false
	}
	end++
	name := line[1:end]
	info := lineInfo{kind: attributeEntryLine}
	if n, ok := strings.CutPrefix(name, "!"); ok {
		name, info.unset = n, true
	} else if n, ok := strings.CutSuffix(name, "!"); ok {
		name, info.unset = n, true
	}
	if !isValidAttributeName(name) {
		return lineInfo{}, false
	}
	rest := line[end+1:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return lineInfo{}, false
	}
	info.name = strings.ToLower(name)
	info.value = strings.TrimSpace(rest)
	if v, ok := strings.CutSuffix(info.value, `\`); ok && (v == "" || strings.HasSuffix(v, " ")) {
		info.value = strings.TrimRight(v, " ")
		info.continued = true
	}
	return info, true
}

var directiveNames = []string{"ifdef", "ifndef", "ifeval", "endif", "include"}

// parseDirective parses a preprocessor directive line
// like "ifdef::name[]" or "include::target[leveloffset=+1]".
func parseDirective(line string) (directive, bool) {
	for _, name := range directiveNames {
		rest, ok := strings.CutPrefix(line, name+"::")
		if !ok {
			continue
		}
		open := strings.IndexByte(rest, '[')
		if open < 0 || !strings.HasSuffix(rest, "]") {
			return directive{}, false
		}
		d := directive{
			name:   name,
			target: rest[:open],
			body:   rest[open+1 : len(rest)-1],
		}
		if strings.ContainsAny(d.target, " \t") && name != "include" {
			return directive{}, false
		}
		if name == "include" && d.target == "" {
			return directive{}, false
		}
		return d, true
	}
	return directive{}, false
}

// maxHeadingLevel is the deepest section level.
const maxHeadingLevel = 5

// parseHeading parses "== Title" or the Markdown-style "## Title".
// Trailing closing markers are removed.
func parseHeading(line string) (lineInfo, bool) {
	c := line[0]
	if c != '=' && c != '#' {
		return lineInfo{}, false
	}
	n := 0
	for n < len(line) && line[n] == c {
		n++
	}
	if n > maxHeadingLevel+1 || n >= len(line) || (line[n] != ' ' && line[n] != '\t') {
		return lineInfo{}, false
	}
	title := strings.TrimSpace(line[n:])
	if title == "" {
		return lineInfo{}, false
	}
	offset := len(line) - len(strings.TrimLeft(line[n:], " \t"))
	if t, ok := strings.CutSuffix(title, " "+strings.Repeat(string(c), n)); ok {
		title = strings.TrimSpace(t)
	}
	return lineInfo{kind: headingLine, level: n - 1, text: title, offset: offset}, true
}

// maxListDepth is the number of marker characters in the deepest
// unordered or ordered list marker, like "*****".
const maxListDepth = 5

// parseListMarker parses a list item marker at the start of line,
// which has had its indentation removed.
func parseListMarker(line string) (lineInfo, bool) {
	if line == "" {
		return lineInfo{}, false
	}
	var m listMarker
	var text string
	switch c := line[0]; {
	case c == '*' || c == '.':
		n := 0
		for n < len(line) && line[n] == c {
			n++
		}
		if n > maxListDepth || !hasSpaceAt(line, n) {
			return descriptionMarker(line)
		}
		m.class = line[:n]
		m.kind = UnorderedMarker
		if c == '.' {
			m.kind = OrderedMarker
		}
		text = line[n:]
	case c == '-':
		if !hasSpaceAt(line, 1) {
			return descriptionMarker(line)
		}
		m.kind = UnorderedMarker
		m.class = "-"
		text = line[1:]
	default:
		class, number, n := parseOrdinal(line)
		if n == 0 {
			return descriptionMarker(line)
		}
		m.kind = OrderedMarker
		m.class = class
		m.number = number
		text = line[n:]
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return lineInfo{}, false
	}
	if m.kind == UnorderedMarker && len(text) >= 3 && text[0] == '[' && text[2] == ']' && (len(text) == 3 || text[3] == ' ') {
		switch text[1] {
		case ' ':
			m.checkbox = ' '
		case 'x', 'X', '*':
			m.checkbox = 'x'
		}
		if m.checkbox != 0 {
			text = strings.TrimSpace(text[3:])
		}
	}
	return lineInfo{kind: listMarkerLine, list: m, text: text}, true
}

func hasSpaceAt(line string, i int) bool {
	return i < len(line) && (line[i] == ' ' || line[i] == '\t')
}

// parseOrdinal parses an explicitly numbered ordered list marker
// like "1.", "b.", "C.", "iv)", or "IV)".
// It returns the number of bytes consumed including the following space,
// or zero if the line does not start with such a marker.
func parseOrdinal(line string) (class string, number int, n int) {
	i := 0
	for i < len(line) && isASCIIDigit(line[i]) {
		i++
	}
	if i > 0 && i <= 9 && i < len(line) && line[i] == '.' && hasSpaceAt(line, i+1) {
		number, _ = strconv.Atoi(line[:i])
		return "1.", number, i + 1
	}
	if len(line) >= 3 && isASCIILetter(line[0]) && line[1] == '.' && hasSpaceAt(line, 2) {
		if 'a' <= line[0] && line[0] <= 'z' {
			return "a.", int(line[0]-'a') + 1, 2
		}
		return "A.", int(line[0]-'A') + 1, 2
	}
	for _, numerals := range []string{"ivxlcdm", "IVXLCDM"} {
		j := 0
		for j < len(line) && strings.IndexByte(numerals, line[j]) >= 0 {
			j++
		}
		if j > 0 && j < len(line) && line[j] == ')' && hasSpaceAt(line, j+1) {
			return numerals[:1] + ")", romanValue(strings.ToLower(line[:j])), j + 1
		}
	}
	return "", 0, 0
}

func romanValue(s string) int {
	values := map[byte]int{'i': 1, 'v': 5, 'x': 10, 'l': 50, 'c': 100, 'd': 500, 'm': 1000}
	total := 0
	for i := 0; i < len(s); i++ {
		v := values[s[i]]
		if i+1 < len(s) && values[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	return total
}

var descriptionSeparators = []string{"::::", ":::", "::", ";;"}

// descriptionMarker parses a description list item like "CPU:: The brain."
func descriptionMarker(line string) (lineInfo, bool) {
	for i := 1; i < len(line); i++ {
		if line[i] != ':' && line[i] != ';' {
			continue
		}
		for _, sep := range descriptionSeparators {
			if !strings.HasPrefix(line[i:], sep) {
				continue
			}
			end := i + len(sep)
			if end < len(line) && line[end] != ' ' && line[end] != '\t' {
				break
			}
			term := strings.TrimSpace(line[:i])
			if term == "" || strings.HasSuffix(term, ":") {
				break
			}
			return lineInfo{
				kind: listMarkerLine,
				list: listMarker{kind: DescriptionMarker, class: sep, term: term},
				text: strings.TrimSpace(line[end:]),
			}, true
		}
		// Skip past a run of separator characters that did not match.
		for i+1 < len(line) && line[i+1] == line[i] {
			i++
		}
	}
	return lineInfo{}, false
}

// blockMacroNames is the set of recognized block macros.
var blockMacroNames = map[string]struct{}{
	"image": {},
	"video": {},
	"audio": {},
	"toc":   {},
}

// parseBlockLine recognizes the remaining single-line block forms:
// block anchors, block attribute lists, block titles, and block macros.
func parseBlockLine(line string) (lineInfo, bool) {
	switch {
	case strings.HasPrefix(line, "[[") && strings.HasSuffix(line, "]]") && !strings.HasPrefix(line, "[[["):
		inner := line[2 : len(line)-2]
		if inner == "" || strings.ContainsAny(inner, "[]") {
			return lineInfo{}, false
		}
		return lineInfo{kind: blockAnchorLine, text: inner}, true
	case line[0] == '[' && strings.HasSuffix(line, "]") && len(line) > 2 && line[1] != '[' && line[1] != ' ':
		return lineInfo{kind: blockAttributeLine, text: line[1 : len(line)-1]}, true
	case line[0] == '.' && len(line) > 1 && line[1] != '.' && line[1] != ' ' && line[1] != '\t':
		return lineInfo{kind: blockTitleLine, text: line[1:], offset: 1}, true
	}
	name, rest, ok := strings.Cut(line, "::")
	if !ok {
		return lineInfo{}, false
	}
	if _, known := blockMacroNames[name]; !known {
		return lineInfo{}, false
	}
	open := strings.IndexByte(rest, '[')
	if open < 0 || !strings.HasSuffix(rest, "]") || strings.ContainsAny(rest[:open], " \t") {
		return lineInfo{}, false
	}
	return lineInfo{
		kind: blockMacroLine,
		macro: blockMacro{
			name:     name,
			target:   rest[:open],
			attrlist: rest[open+1 : len(rest)-1],
		},
	}, true
}

func leadingIndent(line string) int {
	n := 0
	for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	return n
}
