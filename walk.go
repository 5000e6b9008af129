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

// A Cursor describes a [Node] encountered during [Walk].
type Cursor struct {
	node   Node
	parent Node
	block  *Block
	depth  int
}

// Node returns the current [Node].
func (c *Cursor) Node() Node {
	return c.node
}

// Parent returns the parent of the current [Node]
// (as returned by [*Cursor.Node]).
func (c *Cursor) Parent() Node {
	return c.parent
}

// Block returns the current node if it is a block,
// or the innermost block containing the current inline node.
// Block is nil for inline nodes when the walk started at an inline node.
func (c *Cursor) Block() *Block {
	return c.block
}

// Depth returns the number of ancestors of the current node
// between it and the root of the walk.
// The root has a depth of 0.
func (c *Cursor) Depth() int {
	return c.depth
}

// WalkOptions is the set of parameters to [Walk].
type WalkOptions struct {
	// If Pre is not nil, it is called for each node before the node's children are traversed (pre-order).
	// If Pre returns false, no children are traversed, and Post is not called for that node.
	Pre func(c *Cursor) bool
	// If Post is not nil, it is called for each node after the node's children are traversed (post-order).
	// If Post returns false, traversal is terminated and Walk returns immediately.
	Post func(c *Cursor) bool

	// If BlocksOnly is true, inline nodes are not visited.
	BlocksOnly bool
}

// Walk traverses a [Node] recursively, starting with root,
// and calling [WalkOptions.Pre] and [WalkOptions.Post].
// A block's inline children are visited before its block children,
// and a list item's term is not visited.
func Walk(root Node, opts *WalkOptions) {
	type walkFrame struct {
		node   Node
		parent Node
		block  *Block
		depth  int
		post   bool
	}

	stack := []walkFrame{{node: root, block: root.Block()}}
	cursor := new(Cursor)
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cursor.node = curr.node
		cursor.parent = curr.parent
		cursor.block = curr.block
		cursor.depth = curr.depth
		if curr.post {
			if opts.Post != nil && !opts.Post(cursor) {
				break
			}
			continue
		}

		if opts.Pre != nil && !opts.Pre(cursor) {
			continue
		}
		curr.post = true
		stack = append(stack, curr)
		first := 0
		if b := curr.node.Block(); b != nil && opts.BlocksOnly {
			first = len(b.inlineChildren)
		}
		for i := curr.node.ChildCount() - 1; i >= first; i-- {
			child := curr.node.Child(i)
			block := curr.block
			if b := child.Block(); b != nil {
				block = b
			}
			stack = append(stack, walkFrame{
				parent: curr.node,
				node:   child,
				block:  block,
				depth:  curr.depth + 1,
			})
		}
	}
}
