package render

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	bannerBG     = color.NRGBA{R: 0x11, G: 0x18, B: 0x27, A: 0xff}
	bannerAccent = color.NRGBA{R: 0xf5, G: 0x9e, B: 0x0b, A: 0xff}
	bannerMuted  = color.NRGBA{R: 0xd1, G: 0xd5, B: 0xdb, A: 0xff}
)

var (
	coverFontsOnce sync.Once
	coverBold      *truetype.Font
	coverRegular   *truetype.Font
	coverFontsErr  error
)

func coverFonts() (*truetype.Font, *truetype.Font, error) {
	coverFontsOnce.Do(func() {
		coverBold, coverFontsErr = truetype.Parse(gobold.TTF)
		if coverFontsErr != nil {
			return
		}
		coverRegular, coverFontsErr = truetype.Parse(goregular.TTF)
	})
	return coverBold, coverRegular, coverFontsErr
}

func face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// CoverBanner paints the title banner placed at the top of a document's first page. The image is
// width pixels wide with a 4:1 aspect ratio.
func CoverBanner(title, subtitle string, width int) ([]byte, error) {
	if width <= 0 {
		width = DefaultPixelWidth
	}
	height := width / 4
	bold, regular, err := coverFonts()
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}

	w, h := float64(width), float64(height)
	pad := w * 0.05
	dc := gg.NewContext(width, height)

	dc.SetColor(bannerBG)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	dc.SetColor(bannerAccent)
	dc.DrawRectangle(0, h-h*0.06, w, h*0.06)
	dc.Fill()

	dc.SetFontFace(face(bold, h*0.22))
	dc.SetColor(color.White)
	dc.DrawStringWrapped(title, pad, h*0.2, 0, 0, w-2*pad, 1.1, gg.AlignLeft)

	if subtitle != "" {
		dc.SetFontFace(face(regular, h*0.11))
		dc.SetColor(bannerMuted)
		dc.DrawStringWrapped(subtitle, pad, h*0.66, 0, 0, w-2*pad, 1.2, gg.AlignLeft)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
