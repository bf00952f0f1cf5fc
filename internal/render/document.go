// Package render lays out documents as paginated PDFs.
package render

import "fmt"

// Geometry fixes the page the document is laid out on.
type Geometry struct {
	PageSize   string
	Unit       string
	MarginMM   float64
	PixelWidth int
}

const (
	DefaultMarginMM   = 15
	DefaultPixelWidth = 800
)

func DefaultGeometry() Geometry {
	return Geometry{PageSize: "A4", Unit: "mm", MarginMM: DefaultMarginMM, PixelWidth: DefaultPixelWidth}
}

func (g Geometry) withDefaults() Geometry {
	if g.PageSize == "" {
		g.PageSize = "A4"
	}
	if g.Unit == "" {
		g.Unit = "mm"
	}
	if g.PixelWidth <= 0 {
		g.PixelWidth = DefaultPixelWidth
	}
	return g
}

func (g Geometry) validate() error {
	if g.MarginMM < 0 || g.MarginMM > 60 {
		return fmt.Errorf("margin %.1fmm out of range", g.MarginMM)
	}
	switch g.Unit {
	case "mm", "pt", "cm", "in":
	default:
		return fmt.Errorf("unsupported unit %q", g.Unit)
	}
	return nil
}

// Document is a title plus a flat run of blocks. Cover adds a banner image on the first page.
type Document struct {
	Title    string
	Subtitle string
	Cover    bool
	Blocks   []Block
}

type Block interface{ isBlock() }

type Heading struct {
	Level int
	Text  string
}

type Paragraph struct {
	Text   string
	Italic bool
}

// List renders one marker per item. Start numbers ordered lists; Depth indents nested lists.
type List struct {
	Ordered bool
	Start   int
	Depth   int
	Items   []string
}

// Field is a bold label followed by its value.
type Field struct {
	Label string
	Value string
}

type Code struct{ Text string }

type Quote struct{ Text string }

type Rule struct{}

type PageBreak struct{}

func (Heading) isBlock()   {}
func (Paragraph) isBlock() {}
func (List) isBlock()      {}
func (Field) isBlock()     {}
func (Code) isBlock()      {}
func (Quote) isBlock()     {}
func (Rule) isBlock()      {}
func (PageBreak) isBlock() {}

// Builder appends blocks fluently and drops empty text.
type Builder struct {
	doc Document
}

func NewDocument(title, subtitle string) *Builder {
	return &Builder{doc: Document{Title: title, Subtitle: subtitle}}
}

func (b *Builder) WithCover() *Builder {
	b.doc.Cover = true
	return b
}

func (b *Builder) H1(text string) *Builder { return b.heading(1, text) }
func (b *Builder) H2(text string) *Builder { return b.heading(2, text) }
func (b *Builder) H3(text string) *Builder { return b.heading(3, text) }

func (b *Builder) heading(level int, text string) *Builder {
	if text != "" {
		b.doc.Blocks = append(b.doc.Blocks, Heading{Level: level, Text: text})
	}
	return b
}

func (b *Builder) P(text string) *Builder {
	if text != "" {
		b.doc.Blocks = append(b.doc.Blocks, Paragraph{Text: text})
	}
	return b
}

func (b *Builder) Note(text string) *Builder {
	if text != "" {
		b.doc.Blocks = append(b.doc.Blocks, Paragraph{Text: text, Italic: true})
	}
	return b
}

func (b *Builder) Field(label, value string) *Builder {
	if value != "" {
		b.doc.Blocks = append(b.doc.Blocks, Field{Label: label, Value: value})
	}
	return b
}

func (b *Builder) Bullets(items ...string) *Builder {
	kept := make([]string, 0, len(items))
	for _, it := range items {
		if it != "" {
			kept = append(kept, it)
		}
	}
	if len(kept) > 0 {
		b.doc.Blocks = append(b.doc.Blocks, List{Items: kept})
	}
	return b
}

func (b *Builder) Numbered(items ...string) *Builder {
	if len(items) > 0 {
		b.doc.Blocks = append(b.doc.Blocks, List{Ordered: true, Start: 1, Items: items})
	}
	return b
}

func (b *Builder) Quote(text string) *Builder {
	if text != "" {
		b.doc.Blocks = append(b.doc.Blocks, Quote{Text: text})
	}
	return b
}

func (b *Builder) Rule() *Builder {
	b.doc.Blocks = append(b.doc.Blocks, Rule{})
	return b
}

func (b *Builder) PageBreak() *Builder {
	b.doc.Blocks = append(b.doc.Blocks, PageBreak{})
	return b
}

func (b *Builder) Markdown(src string) *Builder {
	b.doc.Blocks = append(b.doc.Blocks, Markdown(src)...)
	return b
}

func (b *Builder) Append(blocks ...Block) *Builder {
	b.doc.Blocks = append(b.doc.Blocks, blocks...)
	return b
}

func (b *Builder) Document() Document { return b.doc }
