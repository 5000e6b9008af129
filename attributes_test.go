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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAttributesDefine(t *testing.T) {
	a := NewAttributes()
	if err := a.Define("Product", "Widget", ScopeDocument); err != nil {
		t.Fatal(err)
	}
	if got, ok := a.Lookup("PRODUCT"); got != "Widget" || !ok {
		t.Errorf("Lookup(%q) = %q, %t; want %q, true", "PRODUCT", got, ok, "Widget")
	}
	if err := a.Define("bad name", "x", ScopeDocument); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Define(%q, ...) = %v; want %v", "bad name", err, ErrInvalidName)
	}
	if err := a.Define("-dash", "x", ScopeDocument); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Define(%q, ...) = %v; want %v", "-dash", err, ErrInvalidName)
	}
	if err := a.Unset("product"); err != nil {
		t.Fatal(err)
	}
	if a.IsSet("product") {
		t.Error("product is set after Unset")
	}
	if err := a.Unset("never-defined"); err != nil {
		t.Errorf("Unset(%q) = %v; want <nil>", "never-defined", err)
	}
}

func TestAttributesDefaults(t *testing.T) {
	a := NewAttributes()
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"doctype", "article", true},
		{"idprefix", "_", true},
		{"sectids", "", true},
		{"toclevels", "2", true},
		{"nbsp", "\u00a0", true},
		{"plus", "+", true},
		{"undefined", "", false},
	}
	for _, test := range tests {
		if got, ok := a.Lookup(test.name); got != test.value || ok != test.ok {
			t.Errorf("Lookup(%q) = %q, %t; want %q, %t", test.name, got, ok, test.value, test.ok)
		}
	}
	for _, name := range a.Names() {
		if name == "nbsp" {
			t.Error("Names() includes intrinsic attribute nbsp")
		}
	}
}

func TestAttributesUnsetIntrinsic(t *testing.T) {
	a := NewAttributes()
	if err := a.Unset("nbsp"); err != nil {
		t.Fatal(err)
	}
	if a.IsSet("nbsp") {
		t.Error("nbsp is set after Unset")
	}
	if err := a.Define("nbsp", "custom", ScopeDocument); err != nil {
		t.Fatal(err)
	}
	if got, _ := a.Lookup("nbsp"); got != "custom" {
		t.Errorf("Lookup(%q) = %q; want %q", "nbsp", got, "custom")
	}
}

func TestAttributesBlockScope(t *testing.T) {
	a := NewAttributes()
	if err := a.Define("role", "lead", ScopeBlock); err != nil {
		t.Fatal(err)
	}
	if a.IsSet("role") {
		t.Error("block-scoped attribute visible as document attribute")
	}
	if !a.hasBlockAttributes() {
		t.Fatal("hasBlockAttributes() = false after block-scoped Define")
	}
	want := map[string]string{"role": "lead"}
	if diff := cmp.Diff(want, a.takeBlockAttributes()); diff != "" {
		t.Errorf("takeBlockAttributes() (-want +got):\n%s", diff)
	}
	if got := a.takeBlockAttributes(); len(got) != 0 {
		t.Errorf("second takeBlockAttributes() = %v; want empty", got)
	}
}

func TestAttributesLocking(t *testing.T) {
	initial := NewAttributes()
	initial.Define("env", "prod", ScopeDocument)
	initial.Define("soft", "default@", ScopeDocument)
	initial.Unset("idprefix")

	a := newSessionAttributes(initial)
	if err := a.Define("env", "dev", ScopeDocument); !errors.Is(err, ErrLocked) {
		t.Errorf("Define(%q, ...) = %v; want %v", "env", err, ErrLocked)
	}
	if got, _ := a.Lookup("env"); got != "prod" {
		t.Errorf("Lookup(%q) = %q; want %q", "env", got, "prod")
	}
	if err := a.Unset("env"); !errors.Is(err, ErrLocked) {
		t.Errorf("Unset(%q) = %v; want %v", "env", err, ErrLocked)
	}
	if err := a.Define("idprefix", "x", ScopeDocument); !errors.Is(err, ErrLocked) {
		t.Errorf("Define(%q, ...) = %v; want %v", "idprefix", err, ErrLocked)
	}
	if a.IsSet("idprefix") {
		t.Error("idprefix is set; want unset by caller")
	}

	if got, _ := a.Lookup("soft"); got != "default" {
		t.Errorf("Lookup(%q) = %q; want %q", "soft", got, "default")
	}
	if a.IsLocked("soft") {
		t.Error(`attribute with "@" value is locked`)
	}
	if err := a.Define("soft", "override", ScopeDocument); err != nil {
		t.Errorf("Define(%q, ...) = %v; want <nil>", "soft", err)
	}

	if got, _ := initial.Lookup("env"); got != "prod" {
		t.Errorf("initial environment changed: env = %q", got)
	}
}

func TestAttributesFrozen(t *testing.T) {
	a := NewAttributes()
	a.Define("x", "1", ScopeDocument)
	frozen := a.freeze()
	if !frozen.Frozen() {
		t.Fatal("Frozen() = false")
	}
	if err := frozen.Define("x", "2", ScopeDocument); !errors.Is(err, ErrFrozen) {
		t.Errorf("Define on frozen = %v; want %v", err, ErrFrozen)
	}
	if err := frozen.Unset("x"); !errors.Is(err, ErrFrozen) {
		t.Errorf("Unset on frozen = %v; want %v", err, ErrFrozen)
	}
	clone := frozen.Clone()
	if clone.Frozen() {
		t.Error("Clone() of frozen environment is frozen")
	}
	if err := clone.Define("x", "3", ScopeDocument); err != nil {
		t.Errorf("Define on clone = %v", err)
	}
	if got, _ := frozen.Lookup("x"); got != "1" {
		t.Errorf("frozen x = %q after modifying clone; want %q", got, "1")
	}
}

func TestDocumentAttributesFrozen(t *testing.T) {
	doc, _ := Parse([]byte(":version: 1.0\n\ntext\n"))
	attrs := doc.Attributes()
	if got, _ := attrs.Lookup("version"); got != "1.0" {
		t.Errorf("version = %q; want %q", got, "1.0")
	}
	if err := attrs.Define("version", "2.0", ScopeDocument); !errors.Is(err, ErrFrozen) {
		t.Errorf("Define on document attributes = %v; want %v", err, ErrFrozen)
	}
}

func TestAttributesCounter(t *testing.T) {
	a := NewAttributes()
	var got []string
	for range 3 {
		got = append(got, a.counter("num", ""))
	}
	for range 3 {
		got = append(got, a.counter("letter", "y"))
	}
	got = append(got, a.counter("seeded", "10"), a.counter("seeded", "10"))
	want := []string{"1", "2", "3", "y", "z", "aa", "10", "11"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("counter values (-want +got):\n%s", diff)
	}
}

func TestResolveReferences(t *testing.T) {
	a := NewAttributes()
	a.Define("name", "World", ScopeDocument)
	tests := []struct {
		s       string
		want    string
		missing []string
	}{
		{"plain", "plain", nil},
		{"Hello, {name}!", "Hello, World!", nil},
		{"{name}{name}", "WorldWorld", nil},
		{`\{name}`, "{name}", nil},
		{"{nobody}", "{nobody}", []string{"nobody"}},
		{"{not valid}", "{not valid}", nil},
		{"open {brace", "open {brace", nil},
		{"{plus}", "+", nil},
	}
	for _, test := range tests {
		got, missing := a.resolveReferences(test.s)
		if got != test.want || !cmp.Equal(missing, test.missing) {
			t.Errorf("resolveReferences(%q) = %q, %q; want %q, %q", test.s, got, missing, test.want, test.missing)
		}
	}
}

func TestCustomDelimiters(t *testing.T) {
	a := NewAttributes()
	a.Define("delimiter-sidebar", "%%%%", ScopeDocument)
	a.Define("delimiter-paragraph", "@@@@", ScopeDocument)
	a.Define("delimiter-example", "abcd", ScopeDocument)
	if kind, ok := a.customDelimiter("%%%%"); !ok || kind != SidebarKind {
		t.Errorf("customDelimiter(%q) = %v, %t; want %v, true", "%%%%", kind, ok, SidebarKind)
	}
	for _, fence := range []string{"@@@@", "abcd"} {
		if kind, ok := a.customDelimiter(fence); ok {
			t.Errorf("customDelimiter(%q) = %v, true; want not registered", fence, kind)
		}
	}
	a.Unset("delimiter-sidebar")
	if _, ok := a.customDelimiter("%%%%"); ok {
		t.Error("custom delimiter still registered after Unset")
	}
}
