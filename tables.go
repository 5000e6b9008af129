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
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
)

// TableColumn describes a column of a table
// as given by the table's "cols" attribute.
type TableColumn struct {
	// Width is the relative width of the column.
	// It is 1 if the column has no explicit width.
	Width int
	// HAlign is "left", "center", or "right".
	HAlign string
	// VAlign is "top", "middle", or "bottom".
	VAlign string
	// Style is the default style of cells in the column,
	// like "asciidoc" or "literal", or the empty string.
	Style string
}

// Columns returns the columns of a [TableKind] block.
func (b *Block) Columns() []TableColumn {
	if b.Kind() != TableKind {
		return nil
	}
	return b.columns
}

var hAligns = map[byte]string{'<': "left", '^': "center", '>': "right"}
var vAligns = map[byte]string{'<': "top", '^': "middle", '>': "bottom"}

var cellStyles = map[byte]string{
	'a': "asciidoc",
	'd': "default",
	'e': "emphasis",
	'h': "header",
	'l': "literal",
	'm': "monospace",
	's': "strong",
	'v': "verse",
}

// parseColumns parses a "cols" attribute value like "1,2a,^.>3" or "3*".
func parseColumns(value string) ([]TableColumn, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if n, err := strconv.Atoi(value); err == nil {
		if n <= 0 {
			return nil, errors.New("table must have at least one column")
		}
		return defaultColumns(n), nil
	}
	var cols []TableColumn
	for _, spec := range strings.FieldsFunc(value, func(c rune) bool { return c == ',' || c == ';' }) {
		spec = strings.TrimSpace(spec)
		repeat := 1
		if n, rest, ok := strings.Cut(spec, "*"); ok {
			var err error
			repeat, err = strconv.Atoi(n)
			if err != nil || repeat <= 0 {
				return nil, errors.New("invalid column multiplier in " + strconv.Quote(spec))
			}
			spec = rest
		}
		col := TableColumn{Width: 1, HAlign: "left", VAlign: "top"}
		i := 0
		if i < len(spec) && hAligns[spec[i]] != "" {
			col.HAlign = hAligns[spec[i]]
			i++
		}
		if i+1 < len(spec) && spec[i] == '.' && vAligns[spec[i+1]] != "" {
			col.VAlign = vAligns[spec[i+1]]
			i += 2
		}
		j := i
		for j < len(spec) && isASCIIDigit(spec[j]) {
			j++
		}
		if j > i {
			col.Width, _ = strconv.Atoi(spec[i:j])
			if j < len(spec) && spec[j] == '%' {
				j++
			}
		} else if j < len(spec) && spec[j] == '~' {
			j++
		}
		i = j
		if i < len(spec) {
			style, ok := cellStyles[spec[i]]
			if !ok || i+1 != len(spec) {
				return nil, errors.New("invalid column specifier " + strconv.Quote(spec))
			}
			col.Style = style
		}
		for range repeat {
			cols = append(cols, col)
		}
	}
	return cols, nil
}

func defaultColumns(n int) []TableColumn {
	cols := make([]TableColumn, n)
	for i := range cols {
		cols[i] = TableColumn{Width: 1, HAlign: "left", VAlign: "top"}
	}
	return cols
}

// cellSpec is the specifier that may precede a cell separator,
// like "2+", ".3+", "3*", "^.>", or "a".
type cellSpec struct {
	colspan int
	rowspan int
	dup     int
	hAlign  string
	vAlign  string
	style   string
}

func parseCellSpec(s string) (cellSpec, bool) {
	c := cellSpec{colspan: 1, rowspan: 1, dup: 1}
	i := 0
	digits := func() (int, bool) {
		j := i
		for i < len(s) && isASCIIDigit(s[i]) {
			i++
		}
		if i == j {
			return 0, false
		}
		n, err := strconv.Atoi(s[j:i])
		return n, err == nil && n > 0
	}
	first, hasFirst := digits()
	switch {
	case i < len(s) && s[i] == '*':
		if !hasFirst {
			return cellSpec{}, false
		}
		c.dup = first
		i++
	default:
		second, hasSecond := 0, false
		if i+1 < len(s) && s[i] == '.' && isASCIIDigit(s[i+1]) {
			i++
			second, hasSecond = digits()
			if !hasSecond {
				return cellSpec{}, false
			}
		}
		if i < len(s) && s[i] == '+' {
			if hasFirst {
				c.colspan = first
			}
			if hasSecond {
				c.rowspan = second
			}
			i++
		} else if hasFirst || hasSecond {
			return cellSpec{}, false
		}
	}
	if i < len(s) && hAligns[s[i]] != "" {
		c.hAlign = hAligns[s[i]]
		i++
	}
	if i+1 < len(s) && s[i] == '.' && vAligns[s[i+1]] != "" {
		c.vAlign = vAligns[s[i+1]]
		i += 2
	}
	if i < len(s) {
		style, ok := cellStyles[s[i]]
		if !ok {
			return cellSpec{}, false
		}
		c.style = style
		i++
	}
	return c, i == len(s)
}

// rawCell is a cell's text before it is placed in a row.
type rawCell struct {
	spec cellSpec
	text string
	// line is the index of the content line the cell starts on.
	line int
}

// tableFormat returns the data format and separator of a table.
func tableFormat(t *Block) (format string, sep string) {
	switch t.delim[0] {
	case ',':
		format, sep = "csv", ","
	case ':':
		format, sep = "dsv", ":"
	case '!':
		format, sep = "psv", "!"
	default:
		format, sep = "psv", "|"
	}
	switch f := t.attrs["format"]; f {
	case "csv", "dsv", "psv":
		if f != format {
			format = f
			sep = map[string]string{"csv": ",", "dsv": ":", "psv": "|"}[f]
		}
	case "tsv":
		format, sep = "csv", "\t"
	}
	if s := t.attrs["separator"]; s != "" {
		sep = s
		if sep == `\t` {
			sep = "\t"
		}
	}
	return format, sep
}

// splitPSV splits prefix-separated table content into cells.
func splitPSV(lines []string, sep string) []rawCell {
	text := strings.Join(lines, "\n")
	lineAt := func(offset int) int {
		return strings.Count(text[:offset], "\n")
	}
	var cells []rawCell
	var cur *rawCell
	for i := 0; ; {
		j := indexUnescaped(text, i, sep)
		if j < 0 {
			if cur != nil {
				cur.text = text[i:]
				cells = append(cells, *cur)
			}
			return cells
		}
		seg := text[i:j]
		k := strings.LastIndexAny(seg, " \t\n") + 1
		spec, ok := parseCellSpec(seg[k:])
		if !ok {
			k = len(seg)
			spec = cellSpec{colspan: 1, rowspan: 1, dup: 1}
		}
		if cur != nil {
			cur.text = seg[:k]
			cells = append(cells, *cur)
		}
		cur = &rawCell{spec: spec, line: lineAt(j)}
		i = j + len(sep)
	}
}

// indexUnescaped returns the index of the first sep in s at or after start
// that is not preceded by a backslash, or -1.
func indexUnescaped(s string, start int, sep string) int {
	for i := start; i < len(s); {
		j := strings.Index(s[i:], sep)
		if j < 0 {
			return -1
		}
		j += i
		if j == 0 || s[j-1] != '\\' {
			return j
		}
		i = j + len(sep)
	}
	return -1
}

// splitDelimited splits CSV or DSV content into records.
func splitDelimited(lines []string, format, sep string) ([][]rawCell, error) {
	var records [][]rawCell
	if format == "dsv" {
		for i, line := range lines {
			if strings.TrimSpace(line) == "" {
				continue
			}
			var row []rawCell
			for start := 0; ; {
				j := indexUnescaped(line, start, sep)
				end := j
				if j < 0 {
					end = len(line)
				}
				row = append(row, rawCell{text: strings.ReplaceAll(line[start:end], `\`+sep, sep), line: i})
				if j < 0 {
					break
				}
				start = j + len(sep)
			}
			records = append(records, row)
		}
		return records, nil
	}
	r := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	if sep != "" {
		r.Comma = []rune(sep)[0]
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		line, _ := r.FieldPos(0)
		row := make([]rawCell, len(fields))
		for i, f := range fields {
			row[i] = rawCell{text: f, line: line - 1}
		}
		records = append(records, row)
	}
}

// buildTable parses the collected lines of a table into rows and cells.
func (bp *blockParser) buildTable(t *Block) {
	if !bp.allowDepth(bp.depth() + 3) {
		return
	}
	cols, err := parseColumns(t.attrs["cols"])
	if err != nil {
		bp.diags.addf(SyntaxWarning, t.span.Start, 1, "%v", err)
	}
	format, sep := tableFormat(t)
	implicitHeader := len(t.lines) > 1 &&
		strings.TrimSpace(t.lines[0]) != "" &&
		strings.TrimSpace(t.lines[1]) == "" &&
		!t.HasOption("noheader")

	var rows [][]*Block
	if format == "psv" {
		cells := splitPSV(t.lines, sep)
		if len(cols) == 0 {
			n := 0
			first := -1
			for _, c := range cells {
				if first < 0 {
					first = c.line
				}
				if c.line != first {
					break
				}
				n += c.spec.colspan * c.spec.dup
			}
			cols = defaultColumns(max(n, 1))
		}
		t.columns = cols
		rows = bp.placeCells(t, cells, len(cols), sep)
	} else {
		records, err := splitDelimited(t.lines, format, sep)
		if err != nil {
			bp.diags.addf(SyntaxWarning, t.span.Start, 1, "table data: %v", err)
		}
		if len(cols) == 0 && len(records) > 0 {
			cols = defaultColumns(len(records[0]))
		}
		t.columns = cols
		for _, rec := range records {
			row := make([]*Block, 0, len(rec))
			for i, c := range rec {
				if i >= len(cols) {
					bp.diags.addf(StructuralWarning, t.textLine+c.line, 1, "table row has more cells than columns")
					break
				}
				row = append(row, bp.newCell(t, c, i))
			}
			rows = append(rows, row)
		}
	}
	t.setAttribute("colcount", strconv.Itoa(len(cols)))
	t.setAttribute("rowcount", strconv.Itoa(len(rows)))

	for i, cells := range rows {
		row := &Block{kind: TableRowKind, blockChildren: cells, span: NullSpan()}
		for _, c := range cells {
			if !row.span.IsValid() || c.span.Start < row.span.Start {
				row.span.Start = c.span.Start
			}
			row.span.End = max(row.span.End, c.span.End)
		}
		switch {
		case i == 0 && (t.HasOption("header") || implicitHeader):
			row.setAttribute("style", "header")
			t.setAttribute("header-option", "")
		case i == len(rows)-1 && i > 0 && t.HasOption("footer"):
			row.setAttribute("style", "footer")
		}
		t.blockChildren = append(t.blockChildren, row)
	}
	t.lines = nil
}

// placeCells arranges cells into rows of ncols columns,
// accounting for column and row spans.
func (bp *blockParser) placeCells(t *Block, cells []rawCell, ncols int, sep string) [][]*Block {
	var rows [][]*Block
	var row []*Block
	carry := make([]int, ncols)
	occupied := make([]bool, ncols)
	inRow := false
	startRow := func() {
		for c := range occupied {
			occupied[c] = carry[c] > 0
			if carry[c] > 0 {
				carry[c]--
			}
		}
		row = nil
		inRow = true
	}
	full := func() bool {
		for _, o := range occupied {
			if !o {
				return false
			}
		}
		return true
	}
	for _, rc := range cells {
		rc.text = strings.ReplaceAll(rc.text, `\`+sep, sep)
		for range rc.spec.dup {
			if !inRow {
				startRow()
			}
			for full() {
				rows = append(rows, row)
				startRow()
			}
			col := 0
			for occupied[col] {
				col++
			}
			span := min(rc.spec.colspan, ncols-col)
			for c := col; c < col+span; c++ {
				occupied[c] = true
				if rc.spec.rowspan > 1 {
					carry[c] = rc.spec.rowspan - 1
				}
			}
			row = append(row, bp.newCell(t, rc, col))
			if full() {
				rows = append(rows, row)
				inRow = false
			}
		}
	}
	if inRow && len(row) > 0 {
		bp.diags.addf(StructuralWarning, row[0].span.Start, 1, "incomplete table row at end of table")
		rows = append(rows, row)
	}
	return rows
}

// newCell creates a table cell in the given column.
func (bp *blockParser) newCell(t *Block, rc rawCell, col int) *Block {
	text := strings.TrimSpace(rc.text)
	line := t.textLine + rc.line
	cell := &Block{
		kind:     TableCellKind,
		span:     LineSpan{Start: line, End: line + strings.Count(text, "\n")},
		textLine: line,
	}
	style := rc.spec.style
	if col < len(t.columns) && style == "" {
		style = t.columns[col].Style
	}
	if rc.spec.colspan > 1 {
		cell.setAttribute("colspan", strconv.Itoa(rc.spec.colspan))
	}
	if rc.spec.rowspan > 1 {
		cell.setAttribute("rowspan", strconv.Itoa(rc.spec.rowspan))
	}
	if rc.spec.hAlign != "" {
		cell.setAttribute("halign", rc.spec.hAlign)
	}
	if rc.spec.vAlign != "" {
		cell.setAttribute("valign", rc.spec.vAlign)
	}
	if style != "" {
		cell.setAttribute("style", style)
	}
	if text == "" {
		return cell
	}
	cell.lines = strings.Split(text, "\n")
	depth := bp.depth() + 3
	switch style {
	case "asciidoc":
		nested := bp.nestedParser(depth)
		nested.runFrom(cell.lines, line)
		cell.blockChildren = nested.root.blockChildren
		cell.subs = NormalSubs
	case "literal":
		cell.subs = VerbatimSubs
		cell.inlineChildren = []*Inline{textNode(text)}
	default:
		cell.subs = NormalSubs
		bp.inline.line = line
		bp.inline.depth = depth
		bp.inline.hardbreaks = false
		cell.inlineChildren = bp.inline.parse(text, NormalSubs)
	}
	return cell
}
