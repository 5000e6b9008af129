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

// A Document is the result of parsing an AsciiDoc document.
// Documents are immutable and safe to share between goroutines.
type Document struct {
	root    *Block
	header  DocumentHeader
	attrs   *Attributes
	diags   []Diagnostic
	anchors AnchorMap
}

// document freezes the session's results into a Document.
func (bp *blockParser) document() *Document {
	doc := &Document{
		root:    bp.root,
		header:  bp.docHeader,
		attrs:   bp.attrs.freeze(),
		anchors: make(AnchorMap),
	}
	if doc.header.Span.IsValid() && doc.root.span.Start > doc.header.Span.Start {
		doc.root.span.Start = doc.header.Span.Start
	}
	doc.anchors.Extract(doc.root.AsNode())
	for _, xref := range doc.anchors.UnresolvedReferences(doc.root.AsNode()) {
		bp.diags.addf(Informational, xref.Line, 0, "possible invalid reference: %s", xref.Target)
	}
	doc.diags = bp.diags.list()
	return doc
}

// Root returns the document's root block,
// whose children are the top-level blocks.
func (doc *Document) Root() *Block {
	if doc == nil {
		return nil
	}
	return doc.root
}

// Blocks returns the document's top-level blocks.
func (doc *Document) Blocks() []*Block {
	return doc.Root().BlockChildren()
}

// Title returns the document title from the header,
// or nil if the document has no header.
func (doc *Document) Title() []*Inline {
	if doc == nil {
		return nil
	}
	return doc.header.Title
}

// Header returns the information from the document header.
func (doc *Document) Header() DocumentHeader {
	if doc == nil {
		return DocumentHeader{Span: NullSpan()}
	}
	return doc.header
}

// Attributes returns a read-only snapshot of the document attributes
// as they were at the end of the document.
// Use [*Attributes.Clone] to obtain a modifiable copy.
func (doc *Document) Attributes() *Attributes {
	if doc == nil {
		return nil
	}
	return doc.attrs
}

// Diagnostics returns the problems found while parsing the document,
// in the order they were found.
func (doc *Document) Diagnostics() []Diagnostic {
	if doc == nil {
		return nil
	}
	return doc.diags
}

// HasFatal reports whether parsing stopped early
// because a limit was exceeded.
func (doc *Document) HasFatal() bool {
	for _, d := range doc.Diagnostics() {
		if d.IsFatal() {
			return true
		}
	}
	return false
}

// Anchors returns the IDs defined in the document.
func (doc *Document) Anchors() AnchorMap {
	if doc == nil {
		return nil
	}
	return doc.anchors
}
