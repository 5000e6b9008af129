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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseConditional(t *testing.T) {
	tests := []struct {
		line string
		want Conditional
		err  bool
	}{
		{
			line: "ifdef::env[]",
			want: Conditional{Kind: IfDef, Targets: []string{"env"}},
		},
		{
			line: "ifndef::Backend-HTML5,env-github[]",
			want: Conditional{Kind: IfNDef, Targets: []string{"backend-html5", "env-github"}},
		},
		{
			line: "ifdef::a+b[]",
			want: Conditional{Kind: IfDef, Targets: []string{"a", "b"}, All: true},
		},
		{
			line: "ifdef::flag[Shown when flag is set.]",
			want: Conditional{Kind: IfDef, Targets: []string{"flag"}, Text: "Shown when flag is set."},
		},
		{
			line: "ifeval::[{level} > 1]",
			want: Conditional{Kind: IfEval, Expr: "{level} > 1"},
		},
		{line: "ifdef::[]", err: true},
		{line: "ifeval::target[1 == 1]", err: true},
		{line: "ifeval::[ ]", err: true},
		{line: "ifdef::a,b c[]", err: true},
		{line: "endif::env[]", err: true},
		{line: "not a directive", err: true},
	}
	for _, test := range tests {
		got, err := ParseConditional(test.line)
		if test.err {
			if err == nil {
				t.Errorf("ParseConditional(%q) = %+v, <nil>; want error", test.line, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseConditional(%q): %v", test.line, err)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("ParseConditional(%q) (-want +got):\n%s", test.line, diff)
		}
	}
}

func TestIsVisible(t *testing.T) {
	a := NewAttributes()
	a.Define("set", "", ScopeDocument)
	a.Define("level", "3", ScopeDocument)
	a.Define("name", "widget", ScopeDocument)
	tests := []struct {
		line string
		want bool
	}{
		{"ifdef::set[]", true},
		{"ifdef::unset[]", false},
		{"ifndef::set[]", false},
		{"ifndef::unset[]", true},
		{"ifdef::unset,set[]", true},
		{"ifdef::unset+set[]", false},
		{"ifndef::unset+set[]", true},
		{"ifdef::set+doctype[]", true},
		{"ifeval::[{level} > 1]", true},
		{"ifeval::[{level} >= 3]", true},
		{"ifeval::[{level} < 3]", false},
		{"ifeval::[{level} == 3.0]", true},
		{"ifeval::[{level} != 3]", false},
		{"ifeval::[10 > 9]", true},
		{`ifeval::["10" > "9"]`, false},
		{`ifeval::["{name}" == "widget"]`, true},
		{`ifeval::['{name}' != 'gadget']`, true},
		{`ifeval::["a<b" == "a<b"]`, true},
		{"ifeval::[{level}]", false},
		{"ifeval::[== 3]", false},
	}
	for _, test := range tests {
		c, err := ParseConditional(test.line)
		if err != nil {
			t.Errorf("ParseConditional(%q): %v", test.line, err)
			continue
		}
		if got := a.IsVisible(c); got != test.want {
			t.Errorf("IsVisible(%q) = %t; want %t", test.line, got, test.want)
		}
	}
}

func TestConditionalStack(t *testing.T) {
	a := NewAttributes()
	a.Define("set", "", ScopeDocument)
	mustParse := func(line string) Conditional {
		t.Helper()
		c, err := ParseConditional(line)
		if err != nil {
			t.Fatal(err)
		}
		return c
	}

	if a.Skipping() || a.ConditionalDepth() != 0 {
		t.Fatalf("new environment: Skipping() = %t, ConditionalDepth() = %d", a.Skipping(), a.ConditionalDepth())
	}
	a.PushConditional(mustParse("ifdef::set[]"))
	if a.Skipping() {
		t.Error("Skipping() = true inside true region")
	}
	a.PushConditional(mustParse("ifdef::unset[]"))
	if !a.Skipping() {
		t.Error("Skipping() = false inside false region")
	}
	// The inner condition is true, but its enclosing region is skipped.
	a.PushConditional(mustParse("ifdef::set[]"))
	if !a.Skipping() {
		t.Error("Skipping() = false inside region nested in a false region")
	}
	if got := a.ConditionalDepth(); got != 3 {
		t.Errorf("ConditionalDepth() = %d; want 3", got)
	}
	for range 2 {
		if _, ok := a.PopConditional(); !ok {
			t.Fatal("PopConditional() = _, false")
		}
	}
	if a.Skipping() {
		t.Error("Skipping() = true after closing false region")
	}
	c, ok := a.PopConditional()
	if !ok || c.Kind != IfDef {
		t.Errorf("PopConditional() = %+v, %t; want ifdef, true", c, ok)
	}
	if _, ok := a.PopConditional(); ok {
		t.Error("PopConditional() on empty stack = _, true")
	}
}

func TestPushConditionalMalformed(t *testing.T) {
	a := NewAttributes()
	c, err := ParseConditional("ifeval::[no operator]")
	if err != nil {
		t.Fatal(err)
	}
	if err := a.PushConditional(c); err == nil {
		t.Error("PushConditional(malformed ifeval) = <nil>; want error")
	}
	if !a.Skipping() {
		t.Error("malformed ifeval region is not skipped")
	}
}

func TestMatchesEndif(t *testing.T) {
	tests := []struct {
		line   string
		target string
		want   bool
	}{
		{"ifdef::env[]", "", true},
		{"ifdef::env[]", "env", true},
		{"ifdef::env[]", "ENV", true},
		{"ifdef::env[]", "other", false},
		{"ifdef::a,b[]", "a,b", true},
		{"ifdef::a+b[]", "a+b", true},
		{"ifdef::a+b[]", "a,b", false},
		{"ifeval::[1 == 1]", "anything", true},
	}
	for _, test := range tests {
		c, err := ParseConditional(test.line)
		if err != nil {
			t.Fatal(err)
		}
		if got := matchesEndif(c, test.target); got != test.want {
			t.Errorf("matchesEndif(%q, %q) = %t; want %t", test.line, test.target, got, test.want)
		}
	}
}
