package repository

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kennyp/swatchmatch/color"
)

// defaultAchromaticThreshold is the default "probable achromatic" delta-E
// gate. SearchByHex and NearestInBook always take their thresholds as
// arguments and do not fall back to this value.
const defaultAchromaticThreshold = 2.0

// maxAchromaticThreshold is the upper bound spec.md's repository input
// contract places on both white/black achromatic thresholds.
const maxAchromaticThreshold = 10.0

// maxNearestResults caps the ranked nearest list returned by SearchByHex.
const maxNearestResults = 200

var (
	labD50White = color.RGBToLabD50(color.NewRGB(255, 255, 255))
	labD50Black = color.RGBToLabD50(color.NewRGB(0, 0, 0))
)

// ColorView is one color entry as returned from book listings and text
// search, with an optional expert-mode annotation.
type ColorView struct {
	Name   string          `json:"name"`
	Code   string          `json:"code"`
	Hex    string          `json:"hex"`
	Expert *ExpertColorRow `json:"expert,omitempty"`
}

// ExpertColorRow carries the ExpertIndex-derived fields attached to a
// ColorView when the caller asked for expert mode.
type ExpertColorRow struct {
	LabD50              [3]float64 `json:"lab_d50"`
	DuplicateFamilySize int        `json:"duplicate_family_size,omitempty"`
}

// BookSummary is one row of ListBooks' output.
type BookSummary struct {
	ID                   string    `json:"id"`
	Filename             string    `json:"filename"`
	Title                string    `json:"title"`
	Format               string    `json:"format"`
	ColorCount           int       `json:"color_count"`
	Colorspace           string    `json:"colorspace"`
	Error                string    `json:"error,omitempty"`
	Metadata             *Metadata `json:"metadata,omitempty"`
	DuplicateFamilyCount int       `json:"duplicate_family_count,omitempty"`
}

// BookDetails is GetBookDetails' output: the full color list for one book.
type BookDetails struct {
	ID         string            `json:"id"`
	Filename   string            `json:"filename"`
	Title      string            `json:"title"`
	Format     string            `json:"format"`
	ColorCount int               `json:"color_count"`
	Colorspace string            `json:"colorspace"`
	Colors     []ColorView       `json:"colors"`
	Metadata   *Metadata         `json:"metadata,omitempty"`
	Families   []DuplicateFamily `json:"families,omitempty"`
}

// ListBooks returns the catalog, one row per file currently matching
// *.acb/*.ase in the repository directory. A file whose last parse failed
// is still listed with its ID, Filename, Title, and Error set and the other
// fields zeroed.
func (r *Repository) ListBooks(mode Mode) ([]BookSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.refreshCatalog(); err != nil {
		return nil, err
	}

	summaries := make([]BookSummary, 0, len(r.order))
	for _, id := range r.order {
		path := r.idToPath[id]
		entry := r.loadCached(id, path)

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if entry.err != nil {
			summaries = append(summaries, BookSummary{ID: id, Filename: filepath.Base(path), Title: stem, Error: entry.err.Error()})
			continue
		}

		s := BookSummary{
			ID:         id,
			Filename:   filepath.Base(path),
			Title:      stem,
			Format:     entry.book.Format.String(),
			ColorCount: len(entry.book.Colors),
			Colorspace: entry.book.ColorspaceName,
		}
		if mode == ModeExpert && entry.expert != nil {
			meta := entry.expert.Metadata
			s.Metadata = &meta
			s.DuplicateFamilyCount = len(entry.expert.Families)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// GetBookDetails returns the full color list for one book. In expert mode,
// each color carries its ExpertIndex Lab values and the book gains its
// metadata and duplicate families.
func (r *Repository) GetBookDetails(id string, mode Mode) (*BookDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path, b, err := r.requireBook(id)
	if err != nil {
		return nil, err
	}

	title := b.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	details := &BookDetails{
		ID:         id,
		Filename:   filepath.Base(path),
		Title:      title,
		Format:     b.Format.String(),
		ColorCount: len(b.Colors),
		Colorspace: b.ColorspaceName,
		Colors:     make([]ColorView, len(b.Colors)),
	}

	var expert *ExpertIndex
	if mode == ModeExpert {
		expert = r.cache[id].expert
	}

	for i, rec := range b.Colors {
		cv := ColorView{Name: rec.Name, Code: rec.Code, Hex: rec.Hex}
		if expert != nil && i < len(expert.Colors) {
			row := expert.Colors[i]
			cv.Expert = &ExpertColorRow{LabD50: row.LabD50}
		}
		details.Colors[i] = cv
	}

	if expert != nil {
		meta := expert.Metadata
		details.Metadata = &meta
		details.Families = expert.Families
		for famIdx, fam := range expert.Families {
			for _, member := range fam.Members {
				for i := range details.Colors {
					if details.Colors[i].Name == member.Name && details.Colors[i].Hex == member.Hex && details.Colors[i].Expert != nil {
						details.Colors[i].Expert.DuplicateFamilySize = expert.Families[famIdx].Size
					}
				}
			}
		}
	}

	return details, nil
}

// GetDefaultPaletteID returns the preferred default book id: the file
// literally named DefaultPaletteFilename, else the first .acb file, else
// the first catalog entry, else "" when the catalog is empty.
func (r *Repository) GetDefaultPaletteID() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.refreshCatalog(); err != nil {
		return "", err
	}

	var firstACB, first string
	for _, id := range r.order {
		path := r.idToPath[id]
		if strings.EqualFold(filepath.Base(path), DefaultPaletteFilename) {
			return id, nil
		}
		if first == "" {
			first = id
		}
		if firstACB == "" && strings.EqualFold(filepath.Ext(path), ".acb") {
			firstACB = id
		}
	}

	if firstACB != "" {
		return firstACB, nil
	}
	return first, nil
}

// GetPaletteTitle returns the display title for one book.
func (r *Repository) GetPaletteTitle(id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path, b, err := r.requireBook(id)
	if err != nil {
		return "", err
	}
	if b.Title != "" {
		return b.Title, nil
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), nil
}

// TextSearchResult is SearchBookText's paginated output.
type TextSearchResult struct {
	Query  string      `json:"query"`
	Total  int         `json:"total"`
	Offset int         `json:"offset"`
	Limit  int         `json:"limit"`
	Colors []ColorView `json:"colors"`
}

// SearchBookText performs a case-insensitive substring search over a
// book's name/code/hex fields, paginated by offset/limit.
func (r *Repository) SearchBookText(id, query string, offset, limit int, mode Mode) (*TextSearchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, b, err := r.requireBook(id)
	if err != nil {
		return nil, err
	}

	var expert *ExpertIndex
	if mode == ModeExpert {
		expert = r.cache[id].expert
	}

	needle := strings.ToLower(query)
	var matches []ColorView
	for i, rec := range b.Colors {
		if needle != "" &&
			!strings.Contains(strings.ToLower(rec.Name), needle) &&
			!strings.Contains(strings.ToLower(rec.Code), needle) &&
			!strings.Contains(strings.ToLower(rec.Hex), needle) {
			continue
		}
		cv := ColorView{Name: rec.Name, Code: rec.Code, Hex: rec.Hex}
		if expert != nil && i < len(expert.Colors) {
			cv.Expert = &ExpertColorRow{LabD50: expert.Colors[i].LabD50}
		}
		matches = append(matches, cv)
	}

	total := len(matches)
	if limit <= 0 {
		limit = total
	}
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &TextSearchResult{Query: query, Total: total, Offset: offset, Limit: limit, Colors: matches[start:end]}, nil
}

// ExactMatch is one exact (hex-equal) hit within SearchByHex.
type ExactMatch struct {
	BookID string `json:"book_id"`
	Name   string `json:"name"`
	Code   string `json:"code"`
	Hex    string `json:"hex"`
}

// ExpertMatchDetail carries the expert-mode-only annotation attached to a
// NearestMatch.
type ExpertMatchDetail struct {
	DeltaE      float64 `json:"delta_e"`
	Reliability string  `json:"reliability"`
	Score       float64 `json:"score"`
	Reason      string  `json:"reason"`
}

// NearestMatch is one ranked candidate within SearchByHex's nearest list,
// or NearestInBook's single result.
type NearestMatch struct {
	BookID   string             `json:"book_id"`
	BookTitle string            `json:"book_title"`
	Filename string             `json:"filename"`
	Name     string             `json:"name"`
	Code     string             `json:"code"`
	Hex      string             `json:"hex"`
	Distance float64            `json:"distance"`
	Expert   *ExpertMatchDetail `json:"expert,omitempty"`
}

// SearchResult is SearchByHex's output.
type SearchResult struct {
	Query        string         `json:"query"`
	TargetHex    string         `json:"target_hex"`
	Scope        string         `json:"scope"`
	ScopeBookID  string         `json:"scope_book_id,omitempty"`
	ExactCount   int            `json:"exact_count"`
	ExactMatches []ExactMatch   `json:"exact_matches"`
	Nearest      []NearestMatch `json:"nearest"`
	Top5         []NearestMatch `json:"top5,omitempty"`
	InputRGB     [3]uint8       `json:"input_rgb"`
}

func clampThreshold(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > maxAchromaticThreshold {
		return maxAchromaticThreshold
	}
	return v
}

func forcedAchromaticResult(query, targetHex string, rgb color.RGB, scope, scopeBookID, name string) *SearchResult {
	match := NearestMatch{Name: name, Hex: targetHex, Distance: 0}
	return &SearchResult{
		Query:        query,
		TargetHex:    targetHex,
		Scope:        scope,
		ScopeBookID:  scopeBookID,
		ExactCount:   1,
		ExactMatches: []ExactMatch{{Name: name, Hex: targetHex}},
		Nearest:      []NearestMatch{match},
		InputRGB:     [3]uint8{rgb.R, rgb.G, rgb.B},
	}
}

// SearchByHex implements spec.md §4.4's search algorithm: parse the input,
// resolve scope, try the forced- and probable-achromatic shortcuts, else
// rank every color in scope by (expert-adjusted) delta-E00.
func (r *Repository) SearchByHex(query, bookID string, mode Mode, thresholdWhite, thresholdBlack float64) (*SearchResult, error) {
	rgb, err := color.ParseColorInput(query)
	if err != nil {
		return nil, &ErrInvalidColorInput{Err: err}
	}
	targetHex := color.RGBToHex(rgb)
	targetLab := color.RGBToLabD50(rgb)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.refreshCatalog(); err != nil {
		return nil, err
	}

	ids, err := r.resolveScope(bookID)
	if err != nil {
		return nil, err
	}

	scope := bookID
	if scope == "" {
		scope = fmt.Sprintf("Todas las paletas (%d)", len(ids))
	}

	if targetHex == "#FFFFFF" {
		return forcedAchromaticResult(query, targetHex, rgb, scope, bookID, "BLANCO"), nil
	}
	if targetHex == "#000000" {
		return forcedAchromaticResult(query, targetHex, rgb, scope, bookID, "NEGRO"), nil
	}

	if mode == ModeExpert && r.probableAchromatic {
		thresholdWhite = clampThreshold(thresholdWhite)
		thresholdBlack = clampThreshold(thresholdBlack)

		if dw := color.DeltaE00(targetLab, labD50White); dw <= thresholdWhite {
			return probableAchromaticResult(query, targetHex, rgb, scope, bookID, "BLANCO (probable)", dw), nil
		}
		if db := color.DeltaE00(targetLab, labD50Black); db <= thresholdBlack {
			return probableAchromaticResult(query, targetHex, rgb, scope, bookID, "NEGRO (probable)", db), nil
		}
	}

	type candidate struct {
		bookID, bookTitle, filename, name, code, hex string
		rgbDistSq                                     float64
		deltaE                                        float64
		exact                                          bool
	}

	var candidates []candidate
	for _, id := range ids {
		path := r.idToPath[id]
		entry := r.loadCached(id, path)
		if entry.err != nil {
			continue
		}

		title := entry.book.Title
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}

		for _, rec := range entry.book.Colors {
			swatchRGB, parseErr := color.HexToRGB(rec.Hex)
			if parseErr != nil {
				continue
			}
			dr := float64(int(rgb.R) - int(swatchRGB.R))
			dg := float64(int(rgb.G) - int(swatchRGB.G))
			db := float64(int(rgb.B) - int(swatchRGB.B))

			candidates = append(candidates, candidate{
				bookID:    id,
				bookTitle: title,
				filename:  filepath.Base(path),
				name:      rec.Name,
				code:      rec.Code,
				hex:       rec.Hex,
				rgbDistSq: dr*dr + dg*dg + db*db,
				deltaE:    color.DeltaE00(targetLab, color.RGBToLabD50(swatchRGB)),
				exact:     strings.EqualFold(rec.Hex, targetHex),
			})
		}
	}

	var exactMatches []ExactMatch
	for _, c := range candidates {
		if c.exact {
			exactMatches = append(exactMatches, ExactMatch{BookID: c.bookID, Name: c.name, Code: c.code, Hex: c.hex})
		}
	}

	scored := make([]struct {
		candidate
		score float64
	}, len(candidates))
	for i, c := range candidates {
		score := c.deltaE
		if mode == ModeExpert {
			rarity := 0.0
			if c.code == "" {
				rarity = 0.2
			}
			usage := r.usage[usageKey{bookID: c.bookID, name: c.name}]
			bonus := 0.05 * float64(usage)
			if bonus > 2.0 {
				bonus = 2.0
			}
			score = c.deltaE + rarity - bonus
		}
		scored[i].candidate = c
		scored[i].score = score
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score < scored[j].score })

	if len(scored) > maxNearestResults {
		scored = scored[:maxNearestResults]
	}

	nearest := make([]NearestMatch, len(scored))
	for i, s := range scored {
		nearest[i] = NearestMatch{
			BookID:    s.bookID,
			BookTitle: s.bookTitle,
			Filename:  s.filename,
			Name:      s.name,
			Code:      s.code,
			Hex:       s.hex,
			Distance:  s.rgbDistSq,
		}
	}

	var top5 []NearestMatch
	top5Count := 0
	if mode == ModeExpert {
		top5Count = len(scored)
	}
	if top5Count > 5 {
		top5Count = 5
	}
	for i := 0; i < top5Count; i++ {
		s := scored[i]
		reliability := color.ReliabilityLabel(s.deltaE)
		reason := fmt.Sprintf("delta-E00 %.2f (%s)", s.deltaE, reliability)
		m := nearest[i]
		m.Expert = &ExpertMatchDetail{DeltaE: s.deltaE, Reliability: reliability, Score: s.score, Reason: reason}
		top5 = append(top5, m)
		if mode == ModeExpert {
			r.usage[usageKey{bookID: s.bookID, name: s.name}]++
		}
	}
	if mode == ModeExpert {
		for i := range nearest[:top5Count] {
			nearest[i] = top5[i]
		}
	}

	return &SearchResult{
		Query:        query,
		TargetHex:    targetHex,
		Scope:        scope,
		ScopeBookID:  bookID,
		ExactCount:   len(exactMatches),
		ExactMatches: exactMatches,
		Nearest:      nearest,
		Top5:         top5,
		InputRGB:     [3]uint8{rgb.R, rgb.G, rgb.B},
	}, nil
}

func probableAchromaticResult(query, targetHex string, rgb color.RGB, scope, scopeBookID, name string, deltaE float64) *SearchResult {
	reliability := color.ReliabilityLabel(deltaE)
	match := NearestMatch{
		Name:     name,
		Hex:      targetHex,
		Distance: deltaE,
		Expert:   &ExpertMatchDetail{DeltaE: deltaE, Reliability: reliability, Score: deltaE, Reason: "probable achromatic shortcut"},
	}
	return &SearchResult{
		Query:       query,
		TargetHex:   targetHex,
		Scope:       scope,
		ScopeBookID: scopeBookID,
		ExactCount:  0,
		Nearest:     []NearestMatch{match},
		InputRGB:    [3]uint8{rgb.R, rgb.G, rgb.B},
	}
}

// NearestInBook scans one book's colors for the minimum-delta-E00 match
// against rgb, applying the forced-achromatic shortcuts first. Ties break
// by source order (first wins).
func (r *Repository) NearestInBook(rgb color.RGB, bookID string, mode Mode, thresholdWhite, thresholdBlack float64) (*NearestMatch, error) {
	targetHex := color.RGBToHex(rgb)
	targetLab := color.RGBToLabD50(rgb)

	r.mu.Lock()
	defer r.mu.Unlock()

	path, b, err := r.requireBook(bookID)
	if err != nil {
		return nil, err
	}

	title := b.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	filename := filepath.Base(path)

	if targetHex == "#FFFFFF" {
		return &NearestMatch{BookID: bookID, BookTitle: title, Filename: filename, Name: "BLANCO", Hex: targetHex, Distance: 0}, nil
	}
	if targetHex == "#000000" {
		return &NearestMatch{BookID: bookID, BookTitle: title, Filename: filename, Name: "NEGRO", Hex: targetHex, Distance: 0}, nil
	}

	if mode == ModeExpert && r.probableAchromatic {
		thresholdWhite = clampThreshold(thresholdWhite)
		thresholdBlack = clampThreshold(thresholdBlack)
		if dw := color.DeltaE00(targetLab, labD50White); dw <= thresholdWhite {
			return &NearestMatch{BookID: bookID, BookTitle: title, Filename: filename, Name: "BLANCO (probable)", Hex: targetHex, Distance: dw,
				Expert: &ExpertMatchDetail{DeltaE: dw, Reliability: color.ReliabilityLabel(dw), Score: dw, Reason: "probable achromatic shortcut"}}, nil
		}
		if db := color.DeltaE00(targetLab, labD50Black); db <= thresholdBlack {
			return &NearestMatch{BookID: bookID, BookTitle: title, Filename: filename, Name: "NEGRO (probable)", Hex: targetHex, Distance: db,
				Expert: &ExpertMatchDetail{DeltaE: db, Reliability: color.ReliabilityLabel(db), Score: db, Reason: "probable achromatic shortcut"}}, nil
		}
	}

	if len(b.Colors) == 0 {
		return nil, &ErrEmptyBook{BookID: bookID}
	}

	bestIdx := -1
	bestDeltaE := 0.0
	for i, rec := range b.Colors {
		swatchRGB, parseErr := color.HexToRGB(rec.Hex)
		if parseErr != nil {
			continue
		}
		deltaE := color.DeltaE00(targetLab, color.RGBToLabD50(swatchRGB))
		if bestIdx == -1 || deltaE < bestDeltaE {
			bestIdx = i
			bestDeltaE = deltaE
		}
	}
	if bestIdx == -1 {
		return nil, &ErrEmptyBook{BookID: bookID}
	}

	rec := b.Colors[bestIdx]
	result := &NearestMatch{BookID: bookID, BookTitle: title, Filename: filename, Name: rec.Name, Code: rec.Code, Hex: rec.Hex, Distance: bestDeltaE}
	if mode == ModeExpert {
		reliability := color.ReliabilityLabel(bestDeltaE)
		result.Expert = &ExpertMatchDetail{DeltaE: bestDeltaE, Reliability: reliability, Score: bestDeltaE, Reason: fmt.Sprintf("delta-E00 %.2f (%s)", bestDeltaE, reliability)}
	}
	return result, nil
}
