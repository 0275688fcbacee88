package repository

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/kennyp/swatchmatch/color"
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

// buildACB assembles a minimal RGB-colorspace ACB file for test fixtures.
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
	binary.Write(&buf, binary.BigEndian, uint16(0)) // RGB
	for _, rec := range records {
		buf.Write(rec)
	}
	return buf.Bytes()
}

func writeTestBook(t *testing.T, dir, filename string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func TestListBooksAndCacheIdentity(t *testing.T) {
	dir := t.TempDir()
	data := buildACB("Sample Book", [][]byte{
		rgbRecord("Fire Red", "R001", 0xFF, 0x00, 0x00),
		rgbRecord("Leaf Green", "G001", 0x00, 0xFF, 0x00),
	})
	writeTestBook(t, dir, "sample-book.acb", data)

	repo := New(dir)
	summaries, err := repo.ListBooks(ModeNormal)
	if err != nil {
		t.Fatalf("ListBooks() error: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("len(summaries) = %d, want 1", len(summaries))
	}
	if summaries[0].ColorCount != 2 {
		t.Errorf("ColorCount = %d, want 2", summaries[0].ColorCount)
	}

	id := summaries[0].ID
	_, first, err := repo.requireBook(id)
	if err != nil {
		t.Fatalf("requireBook() error: %v", err)
	}
	_, second, err := repo.requireBook(id)
	if err != nil {
		t.Fatalf("requireBook() error: %v", err)
	}
	if first != second {
		t.Errorf("requireBook() returned different Book pointers across calls with unchanged file identity")
	}
}

func TestGetDefaultPaletteIDPrefersPantoneSolidCoated(t *testing.T) {
	dir := t.TempDir()
	writeTestBook(t, dir, "aaa-other.acb", buildACB("Other", nil))
	writeTestBook(t, dir, DefaultPaletteFilename, buildACB("Pantone Solid Coated", nil))

	repo := New(dir)
	id, err := repo.GetDefaultPaletteID()
	if err != nil {
		t.Fatalf("GetDefaultPaletteID() error: %v", err)
	}

	title, err := repo.GetPaletteTitle(id)
	if err != nil {
		t.Fatalf("GetPaletteTitle() error: %v", err)
	}
	if title != "Pantone Solid Coated" {
		t.Errorf("default palette title = %q, want %q", title, "Pantone Solid Coated")
	}
}

func TestGetDefaultPaletteIDFallsBackToFirstACB(t *testing.T) {
	dir := t.TempDir()
	writeTestBook(t, dir, "aaa-first.acb", buildACB("First", nil))
	writeTestBook(t, dir, "zzz-second.acb", buildACB("Second", nil))

	repo := New(dir)
	id, err := repo.GetDefaultPaletteID()
	if err != nil {
		t.Fatalf("GetDefaultPaletteID() error: %v", err)
	}
	title, err := repo.GetPaletteTitle(id)
	if err != nil {
		t.Fatalf("GetPaletteTitle() error: %v", err)
	}
	if title != "First" {
		t.Errorf("default palette title = %q, want %q", title, "First")
	}
}

func TestSearchByHexForcedAchromatic(t *testing.T) {
	dir := t.TempDir()
	writeTestBook(t, dir, "sample-book.acb", buildACB("Sample", [][]byte{
		rgbRecord("Fire Red", "R001", 0xFF, 0x00, 0x00),
	}))

	repo := New(dir)
	result, err := repo.SearchByHex("#FFF", "", ModeNormal, 2.0, 2.0)
	if err != nil {
		t.Fatalf("SearchByHex() error: %v", err)
	}
	if result.ExactCount != 1 || len(result.ExactMatches) != 1 || result.ExactMatches[0].Name != "BLANCO" {
		t.Fatalf("SearchByHex(#FFF) = %+v, want single BLANCO exact match", result)
	}
	if len(result.Nearest) != 1 || result.Nearest[0].Distance != 0 {
		t.Fatalf("SearchByHex(#FFF) nearest = %+v, want single zero-distance match", result.Nearest)
	}

	black, err := repo.SearchByHex("#000", "", ModeNormal, 2.0, 2.0)
	if err != nil {
		t.Fatalf("SearchByHex() error: %v", err)
	}
	if black.ExactMatches[0].Name != "NEGRO" {
		t.Errorf("SearchByHex(#000) exact match name = %s, want NEGRO", black.ExactMatches[0].Name)
	}
}

func TestSearchByHexExactMatch(t *testing.T) {
	dir := t.TempDir()
	writeTestBook(t, dir, "sample-book.acb", buildACB("Sample", [][]byte{
		rgbRecord("Fire Red", "R001", 0xFF, 0x00, 0x00),
		rgbRecord("Leaf Green", "G001", 0x00, 0xFF, 0x00),
	}))

	repo := New(dir)
	result, err := repo.SearchByHex("#FF0000", "", ModeNormal, 2.0, 2.0)
	if err != nil {
		t.Fatalf("SearchByHex() error: %v", err)
	}
	if result.ExactCount != 1 || result.ExactMatches[0].Name != "Fire Red" {
		t.Fatalf("SearchByHex(#FF0000) exact = %+v, want Fire Red", result.ExactMatches)
	}
	if len(result.Nearest) == 0 || result.Nearest[0].Name != "Fire Red" {
		t.Fatalf("SearchByHex(#FF0000) nearest[0] = %+v, want Fire Red first", result.Nearest)
	}
}

func TestNearestInBookEmptyBook(t *testing.T) {
	dir := t.TempDir()
	writeTestBook(t, dir, "empty-book.acb", buildACB("Empty", nil))

	repo := New(dir)
	_, _, err := repo.requireBook("empty-book-acb")
	if err != nil {
		t.Fatalf("requireBook() error: %v", err)
	}

	gray := color.NewRGB(128, 128, 128)
	if _, err := repo.NearestInBook(gray, "empty-book-acb", ModeNormal, 2.0, 2.0); err == nil {
		t.Fatalf("NearestInBook on empty book: want error, got nil")
	}
}
