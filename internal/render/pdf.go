package render

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

type Renderer interface {
	Render(doc Document, geom Geometry) ([]byte, error)
}

const (
	bodyFont = "go"
	monoFont = "gomono"

	bodySize   = 11
	lineHeight = 5.5
	listIndent = 6
)

var headingSizes = map[int]float64{1: 18, 2: 14, 3: 12}

// PDFRenderer lays documents out with fpdf using the embedded Go fonts, so any UTF-8 text renders.
// Text flows across pages line by line; a line is never split between pages and a heading is
// never left alone at the bottom of a page.
type PDFRenderer struct {
	now func() time.Time
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{now: func() time.Time { return time.Now().UTC() }}
}

func (r *PDFRenderer) Render(doc Document, geom Geometry) ([]byte, error) {
	geom = geom.withDefaults()
	if err := geom.validate(); err != nil {
		return nil, &RenderError{Op: "render " + doc.Title, Err: err}
	}

	pdf := fpdf.New("P", geom.Unit, geom.PageSize, "")
	pdf.SetCreationDate(r.now())
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("playbook-backend", true)
	pdf.AddUTF8FontFromBytes(bodyFont, "", goregular.TTF)
	pdf.AddUTF8FontFromBytes(bodyFont, "B", gobold.TTF)
	pdf.AddUTF8FontFromBytes(bodyFont, "I", goitalic.TTF)
	pdf.AddUTF8FontFromBytes(monoFont, "", gomono.TTF)

	m := toUnit(geom.MarginMM, geom.Unit)
	pdf.SetMargins(m, m, m)
	pdf.SetAutoPageBreak(true, m)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-m * 0.7)
		pdf.SetFont(bodyFont, "", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 4, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})
	pdf.AddPage()

	l := &layout{pdf: pdf, margin: m, unit: geom.Unit}
	if doc.Cover {
		png, err := CoverBanner(doc.Title, doc.Subtitle, geom.PixelWidth)
		if err != nil {
			return nil, &RenderError{Op: "render " + doc.Title, Err: err}
		}
		l.banner(png)
	} else {
		l.title(doc.Title, doc.Subtitle)
	}
	for _, b := range doc.Blocks {
		l.block(b)
		if pdf.Err() {
			break
		}
	}

	if pdf.Err() {
		return nil, &RenderError{Op: "render " + doc.Title, Err: pdf.Error()}
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Op: "encode " + doc.Title, Err: err}
	}
	if buf.Len() == 0 {
		return nil, &RenderError{Op: "encode " + doc.Title, Err: errors.New("empty output")}
	}
	return buf.Bytes(), nil
}

func toUnit(mm float64, unit string) float64 {
	switch unit {
	case "pt":
		return mm * 72 / 25.4
	case "cm":
		return mm / 10
	case "in":
		return mm / 25.4
	}
	return mm
}

type layout struct {
	pdf    *fpdf.Fpdf
	margin float64
	unit   string
}

func (l *layout) mm(v float64) float64 { return toUnit(v, l.unit) }

func (l *layout) contentWidth() float64 {
	w, _ := l.pdf.GetPageSize()
	return w - 2*l.margin
}

// keep starts a new page unless at least need remains above the bottom margin.
func (l *layout) keep(need float64) {
	_, h := l.pdf.GetPageSize()
	if l.pdf.GetY()+need > h-l.margin {
		l.pdf.AddPage()
	}
}

func (l *layout) banner(png []byte) {
	name := "cover"
	l.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	l.pdf.ImageOptions(name, l.margin, l.margin, l.contentWidth(), 0, true, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	l.pdf.Ln(l.mm(6))
}

func (l *layout) title(title, subtitle string) {
	if title == "" {
		return
	}
	l.pdf.SetFont(bodyFont, "B", 22)
	l.pdf.MultiCell(0, l.mm(10), title, "", "L", false)
	if subtitle != "" {
		l.pdf.SetFont(bodyFont, "I", 12)
		l.pdf.SetTextColor(90, 90, 90)
		l.pdf.MultiCell(0, l.mm(6), subtitle, "", "L", false)
		l.pdf.SetTextColor(0, 0, 0)
	}
	l.pdf.Ln(l.mm(4))
}

func (l *layout) block(b Block) {
	lh := l.mm(lineHeight)
	switch t := b.(type) {
	case Heading:
		size, ok := headingSizes[t.Level]
		if !ok {
			size = bodySize + 1
		}
		l.pdf.Ln(l.mm(2))
		l.keep(l.mm(size/2) + 3*lh)
		l.pdf.SetFont(bodyFont, "B", size)
		l.pdf.MultiCell(0, l.mm(size/2), t.Text, "", "L", false)
		l.pdf.Ln(l.mm(1))
	case Paragraph:
		style := ""
		if t.Italic {
			style = "I"
		}
		l.pdf.SetFont(bodyFont, style, bodySize)
		l.pdf.MultiCell(0, lh, t.Text, "", "L", false)
		l.pdf.Ln(l.mm(2))
	case Field:
		l.keep(2 * lh)
		l.pdf.SetFont(bodyFont, "B", bodySize)
		l.pdf.MultiCell(0, lh, t.Label, "", "L", false)
		l.pdf.SetFont(bodyFont, "", bodySize)
		l.pdf.MultiCell(0, lh, t.Value, "", "L", false)
		l.pdf.Ln(l.mm(2))
	case List:
		l.pdf.SetFont(bodyFont, "", bodySize)
		indent := l.mm(float64(listIndent * (t.Depth + 1)))
		for i, item := range t.Items {
			marker := "•"
			if t.Ordered {
				marker = fmt.Sprintf("%d.", t.Start+i)
			}
			l.pdf.SetX(l.margin + indent - l.mm(listIndent))
			l.pdf.MultiCell(l.contentWidth()-indent+l.mm(listIndent), lh, marker+" "+item, "", "L", false)
		}
		l.pdf.Ln(l.mm(2))
	case Code:
		l.pdf.SetFont(monoFont, "", bodySize-2)
		l.pdf.SetFillColor(243, 244, 246)
		l.pdf.MultiCell(0, l.mm(4.5), strings.ReplaceAll(t.Text, "\t", "    "), "", "L", true)
		l.pdf.Ln(l.mm(2))
	case Quote:
		l.pdf.SetFont(bodyFont, "I", bodySize)
		l.pdf.SetTextColor(75, 85, 99)
		l.pdf.SetX(l.margin + l.mm(listIndent))
		l.pdf.MultiCell(l.contentWidth()-l.mm(listIndent), lh, t.Text, "", "L", false)
		l.pdf.SetTextColor(0, 0, 0)
		l.pdf.Ln(l.mm(2))
	case Rule:
		l.keep(l.mm(4))
		w, _ := l.pdf.GetPageSize()
		y := l.pdf.GetY() + l.mm(1)
		l.pdf.SetDrawColor(209, 213, 219)
		l.pdf.Line(l.margin, y, w-l.margin, y)
		l.pdf.Ln(l.mm(4))
	case PageBreak:
		l.pdf.AddPage()
	}
}
