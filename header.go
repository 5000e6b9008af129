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

// DocumentHeader is the information in a document's header:
// the level 0 title and the author and revision lines that follow it.
type DocumentHeader struct {
	// Title is the parsed document title.
	Title []*Inline
	// Span is the range of lines the header occupies.
	Span     LineSpan
	Authors  []Author
	Revision Revision
}

// Author is an entry of a document's author line,
// like "Jane Q. Doe <jane@example.com>".
type Author struct {
	Name       string
	FirstName  string
	MiddleName string
	LastName   string
	Email      string
}

// Initials returns the first letter of each of the author's names.
func (a Author) Initials() string {
	var sb strings.Builder
	for _, name := range []string{a.FirstName, a.MiddleName, a.LastName} {
		for _, r := range name {
			sb.WriteRune(r)
			break
		}
	}
	return sb.String()
}

// Revision is the information from a document's revision line,
// like "v1.0, 2024-01-01: First draft".
type Revision struct {
	Number string
	Date   string
	Remark string
}

// headerLine handles a line before the end of the document header.
// It reports false if the line ends the header
// and must be handled as body content.
func (bp *blockParser) headerLine(info lineInfo, line string) bool {
	switch bp.header {
	case headerStart:
		switch info.kind {
		case blankLine, commentLine:
			return true
		case attributeEntryLine:
			bp.attributeEntry(info)
			return true
		case headingLine:
			if info.level != 0 || bp.pendingStart != 0 {
				break
			}
			bp.docHeader.Title = bp.parseTitle(info.text, bp.line, info.offset)
			bp.docHeader.Span = LineSpan{Start: bp.line, End: bp.line}
			if !bp.attrs.IsLocked("doctitle") {
				bp.attrs.Define("doctitle", info.text, ScopeDocument)
			}
			bp.header = headerAfterTitle
			return true
		}
	case headerAfterTitle, headerAfterAuthor:
		switch info.kind {
		case attributeEntryLine:
			bp.header = headerAttributes
			bp.docHeader.Span.End = bp.line
			bp.attributeEntry(info)
			return true
		case commentLine:
			return true
		case textLine, listMarkerLine:
			bp.docHeader.Span.End = bp.line
			if bp.header == headerAfterTitle {
				bp.setAuthors(parseAuthors(strings.TrimSpace(line)))
				bp.header = headerAfterAuthor
			} else {
				bp.setRevision(parseRevision(strings.TrimSpace(line)))
				bp.header = headerAttributes
			}
			return true
		}
	case headerAttributes:
		switch info.kind {
		case attributeEntryLine:
			bp.docHeader.Span.End = bp.line
			bp.attributeEntry(info)
			return true
		case commentLine:
			return true
		}
	}
	bp.header = headerDone
	return info.kind == blankLine
}

// parseAuthors parses an author line like
// "Jane Doe <jane@example.com>; John Smith".
func parseAuthors(line string) []Author {
	var authors []Author
	for _, entry := range strings.Split(line, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		var a Author
		if open := strings.IndexByte(entry, '<'); open >= 0 && strings.HasSuffix(entry, ">") {
			a.Email = strings.TrimSpace(entry[open+1 : len(entry)-1])
			entry = strings.TrimSpace(entry[:open])
		}
		// Underscores join the words of a single name.
		names := strings.Fields(entry)
		for i, name := range names {
			names[i] = strings.ReplaceAll(name, "_", " ")
		}
		a.Name = strings.Join(names, " ")
		switch len(names) {
		case 0:
		case 1:
			a.FirstName = names[0]
		case 2:
			a.FirstName, a.LastName = names[0], names[1]
		default:
			a.FirstName = names[0]
			a.MiddleName = names[1]
			a.LastName = strings.Join(names[2:], " ")
		}
		authors = append(authors, a)
	}
	return authors
}

func (bp *blockParser) setAuthors(authors []Author) {
	bp.docHeader.Authors = authors
	define := func(name, value string) {
		if value != "" {
			bp.attrs.Define(name, value, ScopeDocument)
		}
	}
	for i, a := range authors {
		suffix := ""
		if i > 0 {
			suffix = "_" + strconv.Itoa(i+1)
		}
		define("author"+suffix, a.Name)
		define("firstname"+suffix, a.FirstName)
		define("middlename"+suffix, a.MiddleName)
		define("lastname"+suffix, a.LastName)
		define("email"+suffix, a.Email)
		define("authorinitials"+suffix, a.Initials())
	}
	define("authorcount", strconv.Itoa(len(authors)))
}

// parseRevision parses a revision line like "v1.2, 2024-05-01: Remark".
func parseRevision(line string) Revision {
	var rev Revision
	if before, remark, ok := strings.Cut(line, ":"); ok {
		rev.Remark = strings.TrimSpace(remark)
		line = strings.TrimSpace(before)
	}
	number, date, hasDate := strings.Cut(line, ",")
	number = strings.TrimSpace(number)
	switch {
	case hasDate:
		rev.Number = strings.TrimPrefix(number, "v")
		rev.Date = strings.TrimSpace(date)
	case strings.HasPrefix(number, "v") && len(number) > 1 && isASCIIDigit(number[1]):
		rev.Number = number[1:]
	default:
		rev.Date = number
	}
	return rev
}

func (bp *blockParser) setRevision(rev Revision) {
	bp.docHeader.Revision = rev
	for name, value := range map[string]string{
		"revnumber": rev.Number,
		"revdate":   rev.Date,
		"revremark": rev.Remark,
	} {
		if value != "" {
			bp.attrs.Define(name, value, ScopeDocument)
		}
	}
}
