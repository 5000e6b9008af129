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
	"strconv"
	"strings"
)

// inlineMacroNames is the set of recognized "name:target[text]" macros.
var inlineMacroNames = map[string]struct{}{
	"anchor":      {},
	"asciimath":   {},
	"btn":         {},
	"footnote":    {},
	"footnoteref": {},
	"image":       {},
	"indexterm":   {},
	"indexterm2":  {},
	"kbd":         {},
	"latexmath":   {},
	"link":        {},
	"mailto":      {},
	"menu":        {},
	"pass":        {},
	"stem":        {},
	"xref":        {},
}

var urlSchemes = []string{"https://", "http://", "ftp://", "irc://"}

func isEscapableMacro(name string) bool {
	if _, ok := inlineMacroNames[name]; ok {
		return true
	}
	for _, scheme := range urlSchemes {
		if strings.TrimSuffix(scheme, "://") == name {
			return true
		}
	}
	return false
}

// macros recognizes links, cross references, anchors, index terms,
// and inline macros, replacing each with a placeholder node.
// Macro text is parsed recursively with the same substitutions.
func (p *inlineParser) macros(st *subText, subs Substitutions) *subText {
	buf := st.buf
	b := newSubBuilder(st)
	last := 0
	for i := 0; i < len(buf); {
		end, node := p.matchMacro(st, b, last, i, subs)
		if node == nil {
			i++
			continue
		}
		b.node(node, st.commonOrigin(i, end))
		i = end
		last = i
	}
	b.copy(last, len(buf))
	return b.done()
}

// matchMacro attempts to recognize a macro starting at i.
// On success, it claims the bytes from last through end from b
// and returns the macro's node.
func (p *inlineParser) matchMacro(st *subText, b *subBuilder, last, i int, subs Substitutions) (end int, node *Inline) {
	buf := st.buf
	c := buf[i]
	switch {
	case c == '<' && bytes.HasPrefix(buf[i:], []byte("<<")):
		return p.matchXrefShorthand(st, b, last, i, subs)
	case c == '[' && bytes.HasPrefix(buf[i:], []byte("[[")) && !bytes.HasPrefix(buf[i:], []byte("[[[")):
		close := bytes.Index(buf[i+2:], []byte("]]"))
		if close <= 0 {
			return 0, nil
		}
		inner := string(buf[i+2 : i+2+close])
		id, reftext, _ := strings.Cut(inner, ",")
		if !isValidID(id) {
			return 0, nil
		}
		end = i + 2 + close + 2
		b.copy(last, i)
		b.take(i, end)
		node = &Inline{kind: MacroKind, name: "anchor", target: id}
		if reftext = strings.TrimSpace(reftext); reftext != "" {
			node.attrs = map[string]string{"reftext": reftext}
		}
		return end, node
	case c == '(' && bytes.HasPrefix(buf[i:], []byte("((")):
		return p.matchIndexTerm(st, b, last, i, subs)
	case c == '<' && i+1 < len(buf):
		// Angle-bracketed URL like <https://example.com>.
		for _, scheme := range urlSchemes {
			if !bytes.HasPrefix(buf[i+1:], []byte(scheme)) {
				continue
			}
			close := bytes.IndexByte(buf[i+1:], '>')
			if close < 0 || bytes.ContainsAny(buf[i+1:i+1+close], " \t\n\x00") {
				return 0, nil
			}
			end = i + 1 + close + 1
			target := string(buf[i+1 : i+1+close])
			b.copy(last, i)
			b.take(i, end)
			return end, &Inline{kind: LinkKind, target: target}
		}
		return 0, nil
	}
	if i > 0 && (isWordByte(buf[i-1]) || buf[i-1] == ':' || buf[i-1] == '/') {
		return 0, nil
	}
	if !isASCIILetter(c) {
		return 0, nil
	}
	for _, scheme := range urlSchemes {
		if bytes.HasPrefix(buf[i:], []byte(scheme)) {
			return p.matchURL(st, b, last, i, subs)
		}
	}
	nameEnd := i
	for nameEnd < len(buf) && (isASCIILetter(buf[nameEnd]) || isASCIIDigit(buf[nameEnd])) {
		nameEnd++
	}
	if nameEnd < len(buf) && buf[nameEnd] == ':' {
		name := string(buf[i:nameEnd])
		if _, ok := inlineMacroNames[name]; ok && name != "pass" {
			return p.matchNamedMacro(st, b, last, i, nameEnd, subs)
		}
	}
	if c != '_' {
		return p.matchEmail(st, b, last, i)
	}
	return 0, nil
}

// matchXrefShorthand recognizes "<<id>>" and "<<id,text>>".
func (p *inlineParser) matchXrefShorthand(st *subText, b *subBuilder, last, i int, subs Substitutions) (int, *Inline) {
	buf := st.buf
	close := bytes.Index(buf[i+2:], []byte(">>"))
	if close <= 0 {
		return 0, nil
	}
	close += i + 2
	inner := buf[i+2 : close]
	idEnd := bytes.IndexByte(inner, ',')
	if idEnd < 0 {
		idEnd = len(inner)
	}
	id := strings.TrimSpace(string(inner[:idEnd]))
	if id == "" || strings.ContainsAny(id, " \t\n<>\x00") {
		return 0, nil
	}
	end := close + 2
	b.copy(last, i)
	b.take(i, i+2+idEnd)
	node := &Inline{kind: MacroKind, name: "xref", target: strings.TrimPrefix(id, "#")}
	if idEnd < len(inner) {
		b.take(i+2+idEnd, i+2+idEnd+1)
		seg := b.take(i+2+idEnd+1, close)
		node.children = p.parseSegment(trimSegment(seg), subs)
	}
	b.take(close, end)
	return end, node
}

// matchIndexTerm recognizes "((visible term))" and "(((hidden,terms)))".
func (p *inlineParser) matchIndexTerm(st *subText, b *subBuilder, last, i int, subs Substitutions) (int, *Inline) {
	buf := st.buf
	if bytes.HasPrefix(buf[i:], []byte("(((")) {
		close := bytes.Index(buf[i+3:], []byte(")))"))
		if close > 0 {
			end := i + 3 + close + 3
			b.copy(last, i)
			b.take(i, i+3)
			terms := splitAttributeList(b.take(i+3, i+3+close).plain())
			b.take(i+3+close, end)
			return end, &Inline{kind: MacroKind, name: "indexterm", attrs: positionalAttributes(terms)}
		}
	}
	close := bytes.Index(buf[i+2:], []byte("))"))
	if close <= 0 {
		return 0, nil
	}
	end := i + 2 + close + 2
	b.copy(last, i)
	b.take(i, i+2)
	seg := b.take(i+2, i+2+close)
	b.take(i+2+close, end)
	term := seg.plain()
	return end, &Inline{
		kind:     MacroKind,
		name:     "indexterm",
		attrs:    map[string]string{"1": term},
		children: p.parseSegment(seg, subs),
	}
}

// matchURL recognizes a bare URL, optionally followed by "[text]".
func (p *inlineParser) matchURL(st *subText, b *subBuilder, last, i int, subs Substitutions) (int, *Inline) {
	buf := st.buf
	end := i
	for end < len(buf) && !isSpaceByte(buf[end]) && strings.IndexByte("[]<>\"\x00", buf[end]) < 0 {
		end++
	}
	if end < len(buf) && buf[end] == '[' {
		return p.finishLinkMacro(st, b, last, i, i, end, subs)
	}
	// Trailing punctuation is not part of the URL.
	for end > i && strings.IndexByte(".,;:!?'\")", buf[end-1]) >= 0 {
		if buf[end-1] == ')' && bytes.Count(buf[i:end], []byte("(")) >= bytes.Count(buf[i:end], []byte(")")) {
			break
		}
		end--
	}
	target := string(buf[i:end])
	for _, scheme := range urlSchemes {
		if target == scheme {
			return 0, nil
		}
	}
	b.copy(last, i)
	b.take(i, end)
	return end, &Inline{kind: LinkKind, target: target}
}

// matchNamedMacro recognizes "name:target[attributes]".
func (p *inlineParser) matchNamedMacro(st *subText, b *subBuilder, last, i, nameEnd int, subs Substitutions) (int, *Inline) {
	buf := st.buf
	name := string(buf[i:nameEnd])
	targetStart := nameEnd + 1
	if targetStart < len(buf) && buf[targetStart] == ':' {
		// Block macro syntax.
		return 0, nil
	}
	open := targetStart
	for open < len(buf) && buf[open] != '[' && !isSpaceByte(buf[open]) {
		open++
	}
	if open >= len(buf) || buf[open] != '[' {
		return 0, nil
	}
	target := string(buf[targetStart:open])
	switch name {
	case "link", "mailto":
		if target == "" {
			return 0, nil
		}
		return p.finishLinkMacro(st, b, last, i, targetStart, open, subs)
	case "image", "menu":
		if target == "" {
			return 0, nil
		}
	case "kbd", "btn", "stem", "latexmath", "asciimath", "indexterm", "indexterm2", "footnoteref":
		if target != "" {
			return 0, nil
		}
	}
	close := findBracketEnd(buf, open)
	if close < 0 {
		return 0, nil
	}
	end := close + 1
	b.copy(last, i)
	b.take(i, open+1)
	seg := unescapeSegment(b.take(open+1, close))
	b.take(close, end)
	node := &Inline{kind: MacroKind, name: name, target: target}
	switch name {
	case "xref":
		node.target = strings.TrimPrefix(target, "#")
		node.children = p.parseSegment(seg, subs)
	case "footnote":
		node.children = p.parseSegment(seg, subs)
	case "footnoteref":
		// Legacy form: footnoteref:[id,text].
		id, text, _ := strings.Cut(seg.plain(), ",")
		node.name = "footnote"
		node.target = strings.TrimSpace(id)
		if text != "" {
			node.children = p.parseSegment(newSubText(strings.TrimSpace(text)), subs)
		}
	case "anchor":
		if reftext := strings.TrimSpace(seg.plain()); reftext != "" {
			node.attrs = map[string]string{"reftext": reftext}
		}
	case "indexterm":
		node.attrs = positionalAttributes(splitAttributeList(seg.plain()))
	case "indexterm2":
		node.name = "indexterm"
		node.attrs = map[string]string{"1": seg.plain()}
		node.children = p.parseSegment(seg, subs)
	case "stem", "latexmath", "asciimath":
		node.children = []*Inline{{kind: PassthroughKind, text: seg.plain()}}
	case "kbd", "btn":
		node.attrs = map[string]string{"1": seg.plain()}
	case "menu":
		node.attrs = map[string]string{"1": strings.TrimSpace(seg.plain())}
	default:
		node.attrs = parseAttributeList(seg.plain(), false)
	}
	return end, node
}

// finishLinkMacro builds a link whose target is buf[targetStart:open]
// and whose text is the bracketed content starting at open.
func (p *inlineParser) finishLinkMacro(st *subText, b *subBuilder, last, i, targetStart, open int, subs Substitutions) (int, *Inline) {
	buf := st.buf
	close := findBracketEnd(buf, open)
	if close < 0 {
		return 0, nil
	}
	target := string(buf[targetStart:open])
	if bytes.HasPrefix(buf[i:], []byte("mailto:")) {
		target = "mailto:" + target
	}
	end := close + 1
	b.copy(last, i)
	b.take(i, open+1)
	seg := unescapeSegment(b.take(open+1, close))
	b.take(close, end)
	node := &Inline{kind: LinkKind, target: target}
	if text := seg.plain(); looksLikeAttributeList(text) {
		node.attrs = parseAttributeList(text, false)
		if linkText := node.attrs["1"]; linkText != "" {
			node.children = p.parseSegment(newSubText(linkText), subs)
		}
		delete(node.attrs, "1")
	} else {
		node.children = p.parseSegment(seg, subs)
	}
	return end, node
}

// matchEmail recognizes a bare email address.
func (p *inlineParser) matchEmail(st *subText, b *subBuilder, last, i int) (int, *Inline) {
	buf := st.buf
	at := i
	for at < len(buf) && isEmailLocalByte(buf[at]) {
		at++
	}
	if at == i || at >= len(buf) || buf[at] != '@' {
		return 0, nil
	}
	end := at + 1
	lastDot := -1
	for end < len(buf) && (isASCIILetter(buf[end]) || isASCIIDigit(buf[end]) || buf[end] == '-' || buf[end] == '.') {
		if buf[end] == '.' {
			lastDot = end
		}
		end++
	}
	for end > at && buf[end-1] == '.' {
		end--
	}
	if lastDot < 0 || lastDot >= end-2 {
		return 0, nil
	}
	for k := lastDot + 1; k < end; k++ {
		if !isASCIILetter(buf[k]) {
			return 0, nil
		}
	}
	addr := string(buf[i:end])
	b.copy(last, i)
	b.take(i, end)
	return end, &Inline{kind: LinkKind, target: "mailto:" + addr, children: []*Inline{textNode(addr)}}
}

func isEmailLocalByte(c byte) bool {
	return isASCIILetter(c) || isASCIIDigit(c) || strings.IndexByte("._%+-", c) >= 0
}

// parseSegment parses the text of a macro.
func (p *inlineParser) parseSegment(seg *subText, subs Substitutions) []*Inline {
	if len(seg.buf) == 0 {
		return nil
	}
	if !p.enter() {
		return []*Inline{textNode(seg.plain())}
	}
	defer p.leave()
	if subs&MacrosSub != 0 {
		seg = p.macros(seg, subs)
	}
	return p.quotes(seg, subs)
}

// unescapeSegment removes the backslashes from escaped closing brackets.
func unescapeSegment(seg *subText) *subText {
	if !bytes.Contains(seg.buf, []byte(`\]`)) {
		return seg
	}
	out := &subText{nodes: seg.nodes}
	for i := 0; i < len(seg.buf); i++ {
		if seg.buf[i] == '\\' && i+1 < len(seg.buf) && seg.buf[i+1] == ']' {
			continue
		}
		out.buf = append(out.buf, seg.buf[i])
		out.origin = append(out.origin, seg.origin[i])
	}
	return out
}

// trimSegment removes leading and trailing spaces.
func trimSegment(seg *subText) *subText {
	start, end := 0, len(seg.buf)
	for start < end && isSpaceByte(seg.buf[start]) {
		start++
	}
	for end > start && isSpaceByte(seg.buf[end-1]) {
		end--
	}
	return &subText{buf: seg.buf[start:end], origin: seg.origin[start:end], nodes: seg.nodes}
}

func positionalAttributes(values []string) map[string]string {
	attrs := make(map[string]string, len(values))
	for i, v := range values {
		attrs[strconv.Itoa(i+1)] = v
	}
	return attrs
}

// looksLikeAttributeList reports whether link text uses named attributes
// like "Docs,window=_blank" instead of being plain text.
func looksLikeAttributeList(s string) bool {
	for _, item := range splitAttributeList(s) {
		if _, _, named := cutNamedAttribute(item); named {
			return true
		}
	}
	return false
}

// isValidID reports whether s is usable as an anchor ID.
func isValidID(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	if !isASCIILetter(c) && c != '_' && c != ':' && c < 0x80 {
		return false
	}
	return !strings.ContainsAny(s, " \t\n,\"'<>[]\x00")
}
