package analysis

import (
	"sort"

	"github.com/kennyp/swatchmatch/color"
	"github.com/kennyp/swatchmatch/dominant"
	"github.com/kennyp/swatchmatch/repository"
)

// defaultAchromaticThreshold is passed to repository.NearestInBook for
// every cluster lookup the orchestrator performs.
const defaultAchromaticThreshold = 2.0

// ColorExpertDetail carries the expert-mode delta-E/reliability annotation
// attached to a matched LayerColor.
type ColorExpertDetail struct {
	DeltaE      float64 `json:"delta_e"`
	Reliability string  `json:"reliability"`
}

// LayerColor is one dominant cluster mapped to its nearest swatch. The
// cluster's accumulated weight is not exposed here (design note: strip the
// mutable weight field via a pipeline type rather than deleting it in
// place), and the cross-layer summary does not use it either: the summary
// score comes from the layer-state multipliers alone.
type LayerColor struct {
	DetectedHex string             `json:"detected_hex"`
	BookID      string             `json:"book_id"`
	Name        string             `json:"name"`
	Code        string             `json:"code"`
	SwatchHex   string             `json:"swatch_hex"`
	Distance    float64            `json:"distance"`
	Expert      *ColorExpertDetail `json:"expert,omitempty"`
}

// LayerResult is one entry of Result.Layers.
type LayerResult struct {
	LayerName      string       `json:"layer_name"`
	Visible        bool         `json:"visible"`
	PreviewDataURL string       `json:"preview_data_url,omitempty"`
	Colors         []LayerColor `json:"colors"`
	LayerState     string       `json:"layer_state"`
}

// SummaryColor is one cross-layer aggregate row, keyed by swatch identity
// (book_id, name, hex).
type SummaryColor struct {
	BookID        string   `json:"book_id"`
	Name          string   `json:"name"`
	Hex           string   `json:"hex"`
	Occurrences   int      `json:"occurrences"`
	Layers        []string `json:"layers"`
	WeightedScore float64  `json:"weighted_score,omitempty"`
}

// Options echoes the request parameters an analysis was run with.
type Options struct {
	Noise            int    `json:"noise"`
	IgnoreBackground bool   `json:"ignore_background"`
	MaxColors        int    `json:"max_colors"`
	Mode             string `json:"mode"`
	BookID           string `json:"book_id"`
}

// Result is Analyze's full output.
type Result struct {
	LayerCount    int            `json:"layer_count"`
	Layers        []LayerResult  `json:"layers"`
	SummaryColors []SummaryColor `json:"summary_colors"`
	Options       Options        `json:"options"`
}

type summaryKey struct {
	bookID, name, hex string
}

type summaryAccum struct {
	occurrences   int
	layers        []string
	layerSeen     map[string]bool
	weightedScore float64
}

// layerWeightMultiplier picks the weighted-score multiplier for a layer,
// per spec.md §4.6: visible 1.0, hidden 0.4, opacity-zero 0.2, clipped 0.7.
// A layer can only carry one state for scoring purposes; hidden takes
// priority over opacity-zero, which takes priority over clipped.
func layerWeightMultiplier(l Layer) float64 {
	switch {
	case !l.Visible:
		return 0.4
	case l.OpacityZero:
		return 0.2
	case l.Clipped:
		return 0.7
	default:
		return 1.0
	}
}

func layerStateLabel(l Layer) string {
	switch {
	case !l.Visible:
		return "hidden"
	case l.OpacityZero:
		return "opacity_zero"
	case l.Clipped:
		return "clipped"
	default:
		return "visible"
	}
}

func modeLabel(mode repository.Mode) string {
	if mode == repository.ModeExpert {
		return "expert"
	}
	return "normal"
}

// Analyze runs the dominant-color extractor over every layer the producer
// yields, maps each cluster to its nearest swatch in bookID, and
// aggregates a cross-layer summary.
func Analyze(repo *repository.Repository, producer LayerProducer, bookID string, mode repository.Mode, noise int, ignoreBackground bool, maxColors int) (*Result, error) {
	layers, err := producer.Layers()
	if err != nil {
		return nil, err
	}

	layerResults := make([]LayerResult, 0, len(layers))
	summaryAgg := map[summaryKey]*summaryAccum{}
	var summaryOrder []summaryKey

	for _, layer := range layers {
		clusters := dominant.Extract(layer.RGBA, noise, ignoreBackground, maxColors)
		multiplier := layerWeightMultiplier(layer)

		colors := make([]LayerColor, 0, len(clusters))
		for _, cl := range clusters {
			match, err := repo.NearestInBook(cl.RGB, bookID, mode, defaultAchromaticThreshold, defaultAchromaticThreshold)
			if err != nil {
				return nil, err
			}

			lc := LayerColor{
				DetectedHex: color.RGBToHex(cl.RGB),
				BookID:      match.BookID,
				Name:        match.Name,
				Code:        match.Code,
				SwatchHex:   match.Hex,
				Distance:    match.Distance,
			}
			if mode == repository.ModeExpert && match.Expert != nil {
				lc.Expert = &ColorExpertDetail{DeltaE: match.Expert.DeltaE, Reliability: match.Expert.Reliability}
			}
			colors = append(colors, lc)

			key := summaryKey{bookID: match.BookID, name: match.Name, hex: match.Hex}
			acc, ok := summaryAgg[key]
			if !ok {
				acc = &summaryAccum{layerSeen: map[string]bool{}}
				summaryAgg[key] = acc
				summaryOrder = append(summaryOrder, key)
			}
			if !acc.layerSeen[layer.Name] {
				acc.layerSeen[layer.Name] = true
				acc.layers = append(acc.layers, layer.Name)
				acc.occurrences++
				acc.weightedScore += multiplier
			}
		}

		layerResults = append(layerResults, LayerResult{
			LayerName:      layer.Name,
			Visible:        layer.Visible,
			PreviewDataURL: layer.PreviewDataURL,
			Colors:         colors,
			LayerState:     layerStateLabel(layer),
		})
	}

	summary := make([]SummaryColor, 0, len(summaryOrder))
	for _, key := range summaryOrder {
		acc := summaryAgg[key]
		summary = append(summary, SummaryColor{
			BookID:        key.bookID,
			Name:          key.name,
			Hex:           key.hex,
			Occurrences:   acc.occurrences,
			Layers:        acc.layers,
			WeightedScore: acc.weightedScore,
		})
	}

	if mode == repository.ModeExpert {
		sort.SliceStable(summary, func(i, j int) bool {
			if summary[i].WeightedScore != summary[j].WeightedScore {
				return summary[i].WeightedScore > summary[j].WeightedScore
			}
			if summary[i].Occurrences != summary[j].Occurrences {
				return summary[i].Occurrences > summary[j].Occurrences
			}
			return summary[i].Name < summary[j].Name
		})
	} else {
		sort.SliceStable(summary, func(i, j int) bool {
			if summary[i].Occurrences != summary[j].Occurrences {
				return summary[i].Occurrences > summary[j].Occurrences
			}
			return summary[i].Name < summary[j].Name
		})
	}

	if maxColors > 0 && len(summary) > maxColors {
		summary = summary[:maxColors]
	}

	return &Result{
		LayerCount:    len(layers),
		Layers:        layerResults,
		SummaryColors: summary,
		Options: Options{
			Noise:            noise,
			IgnoreBackground: ignoreBackground,
			MaxColors:        maxColors,
			Mode:             modeLabel(mode),
			BookID:           bookID,
		},
	}, nil
}
