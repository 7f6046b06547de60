package wordsearch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Format names an output rendering.
type Format string

const (
	FormatHTML Format = "html"
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// blankMarker stands in for an empty cell in HTML and text output.
const blankMarker = "."

// ParseFormat accepts html, json, text and its older name fixed.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "html":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	case "text", "fixed":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unsupported output format %q", ErrConfiguration, s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatText:
		return "text/plain; charset=utf-8"
	}
	return "text/html; charset=utf-8"
}

// Render writes p to w in format f.
func Render(w io.Writer, p *Puzzle, f Format) error {
	switch f {
	case FormatHTML:
		return RenderHTML(w, p)
	case FormatJSON:
		return RenderJSON(w, p)
	case FormatText:
		return RenderText(w, p)
	}
	return fmt.Errorf("%w: unsupported output format %q", ErrConfiguration, string(f))
}

// RenderJSON writes the populated cells as [{"loc":[r,c],"grf":"g"}, ...].
func RenderJSON(w io.Writer, p *Puzzle) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(p.Grid.Cells())
}

var pageTemplate = template.Must(template.New("wordsearch").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Wordsearch</title>
<style>
  #wordsearch table { border-collapse: collapse; }
  #wordsearch td { width: 2em; height: 2em; text-align: center; border: 1px solid #333; }
  #wordsearch td.blank { color: #ccc; }
</style>
</head>
<body>
<div id="header">
<h3>Wordsearch</h3>
<ul>
  <li>Number of words {{.WordCount}}.</li>
  <li>top {{.Extent.Top}} left {{.Extent.Left}} bottom {{.Extent.Bottom}} right {{.Extent.Right}}</li>
{{- range .Stats}}
  <li>{{.Name}}={{.Count}}</li>
{{- end}}
</ul>
</div>
<div id="main">
<div id="wordsearch">
<table>
{{- range .Rows}}
<tr>{{range .}}{{if .Blank}}<td class="blank">.</td>{{else}}<td>{{.Text}}</td>{{end}}{{end}}</tr>
{{- end}}
</table>
</div>
<div id="wordlist"{{if .RTL}} dir="rtl"{{end}}>
<h3>Words to find</h3>
<ul>
{{- range .Words}}
  <li>{{.}}</li>
{{- end}}
</ul>
</div>
</div>
</body>
</html>
`))

type statView struct {
	Name  string
	Count int
}

type cellView struct {
	Text  string
	Blank bool
}

type pageView struct {
	WordCount int
	Extent    Extent
	Stats     []statView
	Rows      [][]cellView
	Words     []string
	RTL       bool
}

// RenderHTML writes a standalone page: a summary header, the grid as a
// table covering the extent and the list of words to find.
func RenderHTML(w io.Writer, p *Puzzle) error {
	words := p.WordList()
	view := pageView{
		WordCount: len(words),
		Extent:    p.Extent(),
		Words:     words,
		RTL:       p.Regime == RTL,
	}
	for _, k := range p.Stats.Keys() {
		view.Stats = append(view.Stats, statView{Name: k, Count: p.Stats[k]})
	}
	e := view.Extent
	for row := e.Top; row <= e.Bottom; row++ {
		cells := make([]cellView, 0, e.Cols())
		for col := e.Left; col <= e.Right; col++ {
			g, ok := p.Grid.Get(Coord{Row: row, Col: col})
			cells = append(cells, cellView{Text: g, Blank: !ok})
		}
		view.Rows = append(view.Rows, cells)
	}
	return pageTemplate.Execute(w, view)
}

// RenderText writes the grid as fixed-width text, one row per line, followed
// by the word list. Cells are padded to the widest grapheme so that wide
// scripts stay aligned in a terminal.
func RenderText(w io.Writer, p *Puzzle) error {
	e := p.Extent()
	width := 1
	for _, c := range p.Grid.Cells() {
		width = max(width, runewidth.StringWidth(c.Grapheme))
	}

	bw := bufio.NewWriter(w)
	for row := e.Top; row <= e.Bottom; row++ {
		cells := make([]string, 0, e.Cols())
		for col := e.Left; col <= e.Right; col++ {
			g, ok := p.Grid.Get(Coord{Row: row, Col: col})
			if !ok {
				g = blankMarker
			}
			cells = append(cells, runewidth.FillRight(g, width))
		}
		fmt.Fprintln(bw, strings.TrimRight(strings.Join(cells, " "), " "))
	}
	fmt.Fprintln(bw)
	for _, word := range p.WordList() {
		fmt.Fprintln(bw, word)
	}
	return bw.Flush()
}
