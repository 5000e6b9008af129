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

// Node refers to a [Block] or an [Inline] in a document tree.
// At most one of the two is set; the zero Node refers to nothing.
// Nodes can be compared for equality using the == operator.
type Node struct {
	block  *Block
	inline *Inline
}

// Block returns the referenced block
// or nil if the node does not reference a block.
func (n Node) Block() *Block {
	return n.block
}

// Inline returns the referenced inline
// or nil if the node does not reference an inline.
func (n Node) Inline() *Inline {
	return n.inline
}

// IsZero reports whether n refers to nothing.
func (n Node) IsZero() bool {
	return n.block == nil && n.inline == nil
}

// Span returns the source lines of the referenced block.
// Inline nodes and the zero Node report an invalid span.
func (n Node) Span() LineSpan {
	return n.block.Span()
}

// String returns the kind of the referenced node.
func (n Node) String() string {
	switch {
	case n.block != nil:
		return n.block.Kind().String()
	case n.inline != nil:
		return n.inline.Kind().String()
	default:
		return "<nil>"
	}
}

// ChildCount returns the number of children the node has.
// A block's inline content comes before its block children.
func (n Node) ChildCount() int {
	switch {
	case n.block != nil:
		return n.block.ChildCount()
	case n.inline != nil:
		return n.inline.ChildCount()
	default:
		return 0
	}
}

// Child returns the i'th child of the node.
// It panics if i is out of range.
func (n Node) Child(i int) Node {
	switch {
	case n.block != nil:
		return n.block.Child(i)
	case n.inline != nil:
		return n.inline.Child(i).AsNode()
	default:
		panic("Child on zero Node")
	}
}

// AsNode wraps the inline in a [Node].
// A nil inline produces the zero Node.
func (inline *Inline) AsNode() Node {
	return Node{inline: inline}
}

// AsNode wraps the block in a [Node].
// A nil block produces the zero Node.
func (b *Block) AsNode() Node {
	return Node{block: b}
}
