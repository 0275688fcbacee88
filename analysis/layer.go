// Package analysis orchestrates the dominant-color extractor across a
// sequence of rendered layers, maps each cluster to the nearest swatch in a
// chosen book, and aggregates a cross-layer summary.
package analysis

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
)

// Layer is one rendered surface handed to the orchestrator by an external
// layer producer: a PSD layer, or a synthetic whole-image layer.
type Layer struct {
	Name           string
	RGBA           image.Image
	Visible        bool
	OpacityZero    bool
	Clipped        bool
	PreviewDataURL string
}

// LayerProducer yields the ordered sequence of layers an analysis request
// operates over. PSD decoding is an external collaborator reached only
// through this interface; swatchmatch ships one concrete implementation,
// SingleImageProducer, for plain raster inputs.
type LayerProducer interface {
	Layers() ([]Layer, error)
}

// SingleImageProducer decodes one PNG or JPEG file into a single synthetic
// layer named "Image <filename>".
type SingleImageProducer struct {
	Path string
}

func (p SingleImageProducer) Layers() ([]Layer, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := decodeImage(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", p.Path, err)
	}

	name := fmt.Sprintf("Image %s", filepath.Base(p.Path))
	return []Layer{{Name: name, RGBA: img, Visible: true}}, nil
}

func decodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return img, nil
}
