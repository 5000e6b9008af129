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

// parseAttributeList parses the inside of an attribute list
// like `source,go,title="A, B"`.
// Positional attributes are stored under their 1-based index.
// If shorthand is true, the first positional attribute
// may use the "style#id.role%option" shorthand.
func parseAttributeList(s string, shorthand bool) map[string]string {
	attrs := make(map[string]string)
	items := splitAttributeList(s)
	for i, item := range items {
		index := strconv.Itoa(i + 1)
		name, value, named := cutNamedAttribute(item)
		if named {
			setListAttribute(attrs, name, value)
			continue
		}
		value, quoted := unquoteAttributeValue(item)
		if i == 0 && shorthand && !quoted && strings.ContainsAny(value, "#.%") {
			applyShorthand(attrs, value)
			continue
		}
		if value != "" || quoted {
			attrs[index] = value
		}
	}
	return attrs
}

// splitAttributeList splits s on commas outside of quoted values.
// Each item is trimmed of surrounding whitespace.
func splitAttributeList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var items []string
	start := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' && i+1 < len(s) {
				i++
			} else if c == quote {
				quote = 0
			}
		case (c == '"' || c == '\'') && (strings.TrimSpace(s[start:i]) == "" || strings.HasSuffix(strings.TrimSpace(s[start:i]), "=")):
			quote = c
		case c == ',':
			items = append(items, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	return append(items, strings.TrimSpace(s[start:]))
}

func cutNamedAttribute(item string) (name, value string, ok bool) {
	name, value, ok = strings.Cut(item, "=")
	if !ok {
		return "", "", false
	}
	name = strings.TrimSpace(name)
	if !isValidAttributeName(name) {
		return "", "", false
	}
	value, _ = unquoteAttributeValue(strings.TrimSpace(value))
	return strings.ToLower(name), value, true
}

func unquoteAttributeValue(s string) (value string, quoted bool) {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		q := string(s[0])
		return strings.ReplaceAll(s[1:len(s)-1], `\`+q, q), true
	}
	return s, false
}

// setListAttribute stores a named attribute,
// expanding options and accumulating roles.
func setListAttribute(attrs map[string]string, name, value string) {
	switch name {
	case "options", "opts":
		for _, opt := range strings.Split(value, ",") {
			addOption(attrs, strings.TrimSpace(opt))
		}
	case "role":
		addRole(attrs, value)
	default:
		attrs[name] = value
	}
}

// applyShorthand parses "style#id.role1.role2%option".
func applyShorthand(attrs map[string]string, s string) {
	end := strings.IndexAny(s, "#.%")
	if style := s[:end]; style != "" {
		attrs["1"] = style
	}
	for s = s[end:]; s != ""; {
		marker := s[0]
		next := strings.IndexAny(s[1:], "#.%")
		if next < 0 {
			next = len(s)
		} else {
			next++
		}
		value := s[1:next]
		s = s[next:]
		if value == "" {
			continue
		}
		switch marker {
		case '#':
			attrs["id"] = value
		case '.':
			addRole(attrs, value)
		case '%':
			addOption(attrs, value)
		}
	}
}

func addRole(attrs map[string]string, role string) {
	role = strings.TrimSpace(role)
	if role == "" {
		return
	}
	if existing := attrs["role"]; existing != "" {
		attrs["role"] = existing + " " + role
		return
	}
	attrs["role"] = role
}

func addOption(attrs map[string]string, opt string) {
	if opt == "" {
		return
	}
	attrs[opt+"-option"] = ""
	if existing := attrs["options"]; existing != "" {
		attrs["options"] = existing + "," + opt
		return
	}
	attrs["options"] = opt
}
