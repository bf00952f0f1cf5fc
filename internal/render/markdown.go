package render

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown converts asset Markdown into blocks. Raw HTML is dropped and tables become one line
// per row.
func Markdown(src string) []Block {
	source := []byte(src)
	doc := markdown.Parser().Parse(text.NewReader(source))
	var out []Block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		out = appendBlock(out, n, source, 0)
	}
	return out
}

func appendBlock(out []Block, n ast.Node, src []byte, depth int) []Block {
	switch t := n.(type) {
	case *ast.Heading:
		if s := inlineText(t, src); s != "" {
			out = append(out, Heading{Level: t.Level, Text: s})
		}
	case *ast.Paragraph, *ast.TextBlock:
		if s := inlineText(t, src); s != "" {
			out = append(out, Paragraph{Text: s})
		}
	case *ast.List:
		out = appendList(out, t, src, depth)
	case *ast.FencedCodeBlock:
		out = append(out, Code{Text: rawLines(t, src)})
	case *ast.CodeBlock:
		out = append(out, Code{Text: rawLines(t, src)})
	case *ast.Blockquote:
		var parts []string
		for c := t.FirstChild(); c != nil; c = c.NextSibling() {
			if s := inlineText(c, src); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			out = append(out, Quote{Text: strings.Join(parts, "\n")})
		}
	case *ast.ThematicBreak:
		out = append(out, Rule{})
	case *east.Table:
		var rows []string
		for r := t.FirstChild(); r != nil; r = r.NextSibling() {
			var cells []string
			for c := r.FirstChild(); c != nil; c = c.NextSibling() {
				cells = append(cells, inlineText(c, src))
			}
			rows = append(rows, strings.Join(cells, " | "))
		}
		if len(rows) > 0 {
			out = append(out, List{Depth: depth, Items: rows})
		}
	}
	return out
}

// appendList emits the list's items in document order. A nested list closes the current run of
// items so that it renders directly beneath its parent item.
func appendList(out []Block, list *ast.List, src []byte, depth int) []Block {
	start := list.Start
	if start <= 0 {
		start = 1
	}
	cur := List{Ordered: list.IsOrdered(), Start: start, Depth: depth}
	flush := func() {
		if len(cur.Items) > 0 {
			out = append(out, cur)
			next := cur.Start + len(cur.Items)
			cur = List{Ordered: cur.Ordered, Start: next, Depth: depth}
		}
	}
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		var parts []string
		var nested []ast.Node
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if _, ok := c.(*ast.List); ok {
				nested = append(nested, c)
				continue
			}
			if s := inlineText(c, src); s != "" {
				parts = append(parts, s)
			}
		}
		cur.Items = append(cur.Items, strings.Join(parts, " "))
		if len(nested) > 0 {
			flush()
			for _, nl := range nested {
				out = appendList(out, nl.(*ast.List), src, depth+1)
			}
		}
	}
	flush()
	return out
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				b.Write(t.Segment.Value(src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					b.WriteByte(' ')
				}
			case *ast.String:
				b.Write(t.Value)
			case *ast.AutoLink:
				b.Write(t.Label(src))
			case *ast.RawHTML:
			case *east.TaskCheckBox:
				if t.IsChecked {
					b.WriteString("[x] ")
				} else {
					b.WriteString("[ ] ")
				}
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func rawLines(n ast.Node, src []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return strings.TrimRight(b.String(), "\n")
}
