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

// Package corpus provides access to a collection of AsciiDoc examples
// along with the block trees they parse to.
package corpus

import (
	_ "embed"
	"encoding/json"
)

// Example is a single AsciiDoc source and its expected parse.
type Example struct {
	Name    string
	Section string
	Source  string
	// Tree is an indented listing of the blocks in the document,
	// one per line, like:
	//
	//	section "Title"
	//	  paragraph "Some bold text."
	//
	// Each line has the block kind, the style in brackets,
	// the term of a description list item,
	// and the plain text of the block's title or content.
	Tree string
	// Warnings is the number of warning diagnostics the source produces.
	Warnings int
}

//go:embed corpus.json
var corpusData []byte

// Load returns the examples in the corpus.
func Load() ([]Example, error) {
	var examples []Example
	if err := json.Unmarshal(corpusData, &examples); err != nil {
		return nil, err
	}
	return examples, nil
}
