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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGenerateID(t *testing.T) {
	tests := []struct {
		title     string
		prefix    string
		separator string
		want      string
	}{
		{"Section One", "_", "_", "_section_one"},
		{"Getting Started", "", "-", "getting-started"},
		{"What's New?", "_", "_", "_whats_new"},
		{"  Lots   of   space  ", "_", "_", "_lots_of_space"},
		{"Version 1.2.3", "_", "_", "_version_1_2_3"},
		{"snake_case title", "_", "_", "_snake_case_title"},
		{"Ünïcode Títle", "_", "_", "_ünïcode_títle"},
		{"!!!", "_", "_", "_"},
		{"a - b", "id-", "", "id-ab"},
	}
	for _, test := range tests {
		if got := GenerateID(test.title, test.prefix, test.separator); got != test.want {
			t.Errorf("GenerateID(%q, %q, %q) = %q; want %q", test.title, test.prefix, test.separator, got, test.want)
		}
	}
}

func TestParseGeneratedIDs(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"== Title\n", "_title"},
		{":idprefix: sec-\n:idseparator: -\n\n== Two Words\n", "sec-two-words"},
		{":sectids!:\n\n== Title\n", ""},
		{"== !!!\n", "_section"},
		{"[[explicit]]\n== Title\n", "explicit"},
	}
	for _, test := range tests {
		doc, _ := Parse([]byte(test.source))
		if got := doc.Blocks()[0].ID(); got != test.want {
			t.Errorf("Parse(%q) section ID = %q; want %q", test.source, got, test.want)
		}
	}
}

func TestParseDuplicateTitles(t *testing.T) {
	doc, _ := Parse([]byte("== A\n\n== A 2\n\n== A\n\n== A\n"))
	var ids []string
	for _, b := range doc.Blocks() {
		ids = append(ids, b.ID())
	}
	want := []string{"_a", "_a_2", "_a_3", "_a_4"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("IDs (-want +got):\n%s", diff)
	}
}

func TestParseManyDuplicateTitles(t *testing.T) {
	const n = 20000
	doc, _ := Parse([]byte(strings.Repeat("== Parameters\n", n)))
	blocks := doc.Blocks()
	if len(blocks) != n {
		t.Fatalf("len(doc.Blocks()) = %d; want %d", len(blocks), n)
	}
	seen := make(map[string]bool, n)
	for _, b := range blocks {
		if seen[b.ID()] {
			t.Fatalf("duplicate ID %q", b.ID())
		}
		seen[b.ID()] = true
	}
	if got, want := blocks[n-1].ID(), "_parameters_"+strconv.Itoa(n); got != want {
		t.Errorf("last ID = %q; want %q", got, want)
	}
}
