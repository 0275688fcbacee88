package analysis

import (
	"bytes"
	"encoding/binary"
	"image"
	imgcolor "image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/kennyp/swatchmatch/repository"
)

func pascalUTF16BE(s string) []byte {
	var buf bytes.Buffer
	runes := []rune(s)
	binary.Write(&buf, binary.BigEndian, uint32(len(runes)))
	for _, r := range runes {
		binary.Write(&buf, binary.BigEndian, uint16(r))
	}
	return buf.Bytes()
}

func rgbRecord(name, code string, r, g, b byte) []byte {
	var buf bytes.Buffer
	buf.Write(pascalUTF16BE(name))
	codeBytes := make([]byte, 6)
	copy(codeBytes, code)
	buf.Write(codeBytes)
	buf.Write([]byte{r, g, b})
	return buf.Bytes()
}

func buildACB(title string, records [][]byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("8BCB")
	binary.Write(&buf, binary.BigEndian, uint16(1))
	binary.Write(&buf, binary.BigEndian, uint16(3000))
	buf.Write(pascalUTF16BE(title))
	buf.Write(pascalUTF16BE(""))
	buf.Write(pascalUTF16BE(""))
	buf.Write(pascalUTF16BE(""))
	binary.Write(&buf, binary.BigEndian, uint16(len(records)))
	binary.Write(&buf, binary.BigEndian, uint16(10))
	binary.Write(&buf, binary.BigEndian, uint16(0))
	binary.Write(&buf, binary.BigEndian, uint16(0))
	for _, rec := range records {
		buf.Write(rec)
	}
	return buf.Bytes()
}

type fakeProducer struct {
	layers []Layer
}

func (f fakeProducer) Layers() ([]Layer, error) {
	return f.layers, nil
}

func solidImage(w, h int, r, g, b, a uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, imgcolor.RGBA{R: r, G: g, B: b, A: a})
		}
	}
	return img
}

func newTestRepository(t *testing.T) (*repository.Repository, string) {
	t.Helper()
	dir := t.TempDir()
	data := buildACB("Sample", [][]byte{
		rgbRecord("Fire Red", "R001", 0xFF, 0x00, 0x00),
		rgbRecord("Leaf Green", "G001", 0x00, 0xFF, 0x00),
	})
	if err := os.WriteFile(filepath.Join(dir, "sample.acb"), data, 0o644); err != nil {
		t.Fatalf("write test book: %v", err)
	}
	repo := repository.New(dir)
	books, err := repo.ListBooks(repository.ModeNormal)
	if err != nil || len(books) != 1 {
		t.Fatalf("ListBooks() = %+v, %v", books, err)
	}
	return repo, books[0].ID
}

func TestAnalyzeSingleVisibleLayer(t *testing.T) {
	repo, bookID := newTestRepository(t)
	producer := fakeProducer{layers: []Layer{
		{Name: "Image test.png", RGBA: solidImage(4, 4, 0xFF, 0x00, 0x00, 0xFF), Visible: true},
	}}

	result, err := Analyze(repo, producer, bookID, repository.ModeNormal, 50, false, 0)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if result.LayerCount != 1 {
		t.Fatalf("LayerCount = %d, want 1", result.LayerCount)
	}
	if len(result.Layers[0].Colors) == 0 {
		t.Fatalf("expected at least one detected color")
	}
	if result.Layers[0].Colors[0].Name != "Fire Red" {
		t.Errorf("matched swatch = %s, want Fire Red", result.Layers[0].Colors[0].Name)
	}
	if len(result.SummaryColors) != 1 || result.SummaryColors[0].Name != "Fire Red" {
		t.Fatalf("SummaryColors = %+v, want single Fire Red entry", result.SummaryColors)
	}
}

func TestAnalyzeAggregatesAcrossLayers(t *testing.T) {
	repo, bookID := newTestRepository(t)
	producer := fakeProducer{layers: []Layer{
		{Name: "Layer A", RGBA: solidImage(4, 4, 0xFF, 0x00, 0x00, 0xFF), Visible: true},
		{Name: "Layer B", RGBA: solidImage(4, 4, 0xFF, 0x00, 0x00, 0xFF), Visible: false},
	}}

	result, err := Analyze(repo, producer, bookID, repository.ModeExpert, 50, false, 0)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if len(result.SummaryColors) != 1 {
		t.Fatalf("SummaryColors = %+v, want a single aggregated entry", result.SummaryColors)
	}
	summary := result.SummaryColors[0]
	if summary.Occurrences != 2 {
		t.Errorf("Occurrences = %d, want 2", summary.Occurrences)
	}
	if len(summary.Layers) != 2 {
		t.Errorf("Layers = %v, want 2 distinct layer names", summary.Layers)
	}
	wantScore := 1.0 + 0.4
	if summary.WeightedScore < wantScore-0.05 || summary.WeightedScore > wantScore+0.05 {
		t.Errorf("WeightedScore = %f, want ~%f (visible 1.0 + hidden 0.4)", summary.WeightedScore, wantScore)
	}
}
