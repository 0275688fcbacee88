package repository

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"strings"

	"github.com/kennyp/swatchmatch/book"
	"github.com/kennyp/swatchmatch/color"
)

// ColorEntry is one precomputed color row inside an ExpertIndex.
type ColorEntry struct {
	Name       string     `json:"name"`
	Code       string     `json:"code"`
	Hex        string     `json:"hex"`
	RGB        [3]uint8   `json:"rgb"`
	LabD50     [3]float64 `json:"lab_d50"`
	LabD65     [3]float64 `json:"lab_d65"`
	CMYKApprox [4]float64 `json:"cmyk_approx"`
}

// FamilyMember is one color belonging to a DuplicateFamily.
type FamilyMember struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
	Code string `json:"code"`
}

// DuplicateFamily groups colors whose pairwise delta-E00 falls at or below
// duplicateFamilyThreshold, agglomerated greedily in source order. Every
// family has at least 2 members; the lowest-index member is the base.
type DuplicateFamily struct {
	BaseName string         `json:"base_name"`
	Size     int            `json:"size"`
	Members  []FamilyMember `json:"members"`
}

// Metadata is inferred per book from its filename and parsed header.
type Metadata struct {
	Version int    `json:"version"`
	BookID  int    `json:"book_id"`
	Type    string `json:"type"`  // coated, uncoated, unknown
	Gamut   string `json:"gamut"` // standard, extended-gamut, metallic, pastel-neon
	Notes   string `json:"notes"`
}

// ExpertIndex is the derived, disk-cached per-book index consumed by
// expert-mode search, nearest-match, and duplicate-family reporting.
type ExpertIndex struct {
	BookID      string            `json:"book_id"`
	Filename    string            `json:"filename"`
	ModTime     int64             `json:"mtime"`
	Size        int64             `json:"size"`
	PartialHash string            `json:"partial_hash"`
	Metadata    Metadata          `json:"metadata"`
	Colors      []ColorEntry      `json:"colors"`
	Families    []DuplicateFamily `json:"families"`
}

const duplicateFamilyThreshold = 1.5

func expertIndexPath(bookPath string) string {
	return bookPath + ".expertindex.json"
}

// loadOrBuildExpertIndex returns a valid ExpertIndex for entry, reusing the
// on-disk cache file if its identity fields still match, and rebuilding
// (then atomically rewriting) otherwise.
func (r *Repository) loadOrBuildExpertIndex(id string, entry *cacheEntry) *ExpertIndex {
	hashHex := hex.EncodeToString(entry.partialHash[:])

	if cached := readExpertIndexFile(expertIndexPath(entry.path)); cached != nil {
		if cached.ModTime == entry.modTimeUnix && cached.Size == entry.size && cached.PartialHash == hashHex {
			return cached
		}
	}

	built := buildExpertIndex(id, entry, hashHex)
	writeExpertIndexFileAtomic(expertIndexPath(entry.path), built)
	return built
}

func readExpertIndexFile(path string) *ExpertIndex {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var idx ExpertIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil
	}
	return &idx
}

func writeExpertIndexFileAtomic(path string, idx *ExpertIndex) {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return
	}
	os.Rename(tmp, path)
}

func buildExpertIndex(id string, entry *cacheEntry, partialHashHex string) *ExpertIndex {
	b := entry.book

	colors := make([]ColorEntry, len(b.Colors))
	for i, rec := range b.Colors {
		rgb, _ := color.HexToRGB(rec.Hex)
		labD50 := color.RGBToLabD50(rgb)
		labD65 := color.RGBToLabD65(rgb)
		cmyk := rgb.ToCMYK()

		colors[i] = ColorEntry{
			Name:       rec.Name,
			Code:       rec.Code,
			Hex:        rec.Hex,
			RGB:        [3]uint8{rgb.R, rgb.G, rgb.B},
			LabD50:     [3]float64{labD50.L, labD50.A, labD50.B},
			LabD65:     [3]float64{labD65.L, labD65.A, labD65.B},
			CMYKApprox: [4]float64{float64(cmyk.C), float64(cmyk.M), float64(cmyk.Y), float64(cmyk.K)},
		}
	}

	return &ExpertIndex{
		BookID:      id,
		Filename:    b.Filename,
		ModTime:     entry.modTimeUnix,
		Size:        entry.size,
		PartialHash: partialHashHex,
		Metadata:    inferMetadata(id, b),
		Colors:      colors,
		Families:    buildDuplicateFamilies(colors),
	}
}

// buildDuplicateFamilies performs a single-pass greedy agglomeration in
// source order: each color either joins the first existing bucket whose
// base is within the threshold, or starts a new singleton bucket; buckets
// that never grow past size 1 are dropped from the final result.
func buildDuplicateFamilies(colors []ColorEntry) []DuplicateFamily {
	type bucket struct {
		baseIndex int
		indices   []int
	}

	var buckets []*bucket
	for i, c := range colors {
		lab := color.LabValue{L: c.LabD50[0], A: c.LabD50[1], B: c.LabD50[2]}

		placed := false
		for _, bk := range buckets {
			baseLab := color.LabValue{
				L: colors[bk.baseIndex].LabD50[0],
				A: colors[bk.baseIndex].LabD50[1],
				B: colors[bk.baseIndex].LabD50[2],
			}
			if color.DeltaE00(lab, baseLab) <= duplicateFamilyThreshold {
				bk.indices = append(bk.indices, i)
				placed = true
				break
			}
		}
		if !placed {
			buckets = append(buckets, &bucket{baseIndex: i, indices: []int{i}})
		}
	}

	var families []DuplicateFamily
	for _, bk := range buckets {
		if len(bk.indices) < 2 {
			continue
		}
		members := make([]FamilyMember, len(bk.indices))
		for j, idx := range bk.indices {
			members[j] = FamilyMember{Name: colors[idx].Name, Hex: colors[idx].Hex, Code: colors[idx].Code}
		}
		families = append(families, DuplicateFamily{
			BaseName: colors[bk.baseIndex].Name,
			Size:     len(bk.indices),
			Members:  members,
		})
	}
	return families
}

// inferMetadata derives the book, coating, and gamut classification from
// the parsed header and filename, following the naming conventions Pantone
// uses for its own library filenames (e.g. "pantone solid coated-v4.acb",
// "pantone metallics coated.acb", "pantone pastels & neons coated.acb").
func inferMetadata(id string, b *book.Book) Metadata {
	name := strings.ToLower(b.Filename)

	coating := "unknown"
	switch {
	case strings.Contains(name, "uncoated"):
		coating = "uncoated"
	case strings.Contains(name, "coated"):
		coating = "coated"
	}

	gamut := "standard"
	switch {
	case strings.Contains(name, "metallic"):
		gamut = "metallic"
	case strings.Contains(name, "pastel") || strings.Contains(name, "neon"):
		gamut = "pastel-neon"
	case strings.Contains(name, "extended") || strings.Contains(name, "gamut"):
		gamut = "extended-gamut"
	}

	return Metadata{
		Version: b.Version,
		BookID:  b.BookID,
		Type:    coating,
		Gamut:   gamut,
		Notes:   b.Description,
	}
}
