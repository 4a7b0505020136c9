package image

import (
	"bytes"
	"context"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Synthetic renders a deterministic placeholder instead of calling a remote
// backend. Used in development and tests when outbound generation is disabled,
// so the rest of the pipeline still handles real image bytes.
type Synthetic struct{}

// NewSynthetic constructs the placeholder generator.
func NewSynthetic() *Synthetic {
	return &Synthetic{}
}

// Generate fulfils the Generator interface. The seed picks the palette so
// distinct seeds yield visually distinct placeholders.
func (s *Synthetic) Generate(_ context.Context, _ string, seed int) ([]byte, error) {
	bg := color.NRGBA{
		R: uint8(seed * 37),
		G: uint8(seed * 59),
		B: uint8(seed * 83),
		A: 255,
	}
	fg := color.NRGBA{R: 255 - bg.R, G: 255 - bg.G, B: 255 - bg.B, A: 255}

	canvas := imaging.New(512, 512, bg)
	mark := imaging.New(256, 256, fg)
	canvas = imaging.Paste(canvas, mark, image.Pt(128, 128))

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG); err != nil {
		return nil, &ProviderError{Provider: "synthetic", Kind: KindProtocol, Message: "placeholder image could not be encoded"}
	}
	return buf.Bytes(), nil
}

var _ Generator = (*Synthetic)(nil)
