// Package dominant extracts a small set of dominant colors from an RGBA
// raster, parameterized by a single "noise" dial that jointly controls
// cluster count, merge tolerance, channel quantization, and the minimum
// weight a cluster must carry to survive.
package dominant

import (
	"image"
	"log/slog"
	"math"

	"golang.org/x/image/draw"

	"github.com/kennyp/swatchmatch/color"
)

// Cluster is one dominant color and its accumulated weight.
type Cluster struct {
	RGB    color.RGB
	Weight float64
}

// maxPixels bounds the number of pixels scanned directly; larger rasters
// are bilinear-downscaled first.
const maxPixels = 220_000

// alphaSkipThreshold excludes near-fully-transparent pixels from both the
// main and border histograms.
const alphaSkipThreshold = 16

// Profile is the set of knobs derived from a single noise value in [0,100].
type Profile struct {
	AutoMaxColors   int
	MergeThresholdSq float64
	MinClusterRatio float64
	QuantShift      uint
}

// noiseProfile maps noise to every downstream knob. detail = n^1.15
// compresses the top end so behavior stays smooth as noise approaches 100.
func noiseProfile(noise int) Profile {
	n := float64(noise) / 100.0
	if n < 0 {
		n = 0
	}
	if n > 1 {
		n = 1
	}
	detail := math.Pow(n, 1.15)

	autoMax := int(math.Round(2 + detail*22))
	if autoMax < 2 {
		autoMax = 2
	}
	if autoMax > 24 {
		autoMax = 24
	}

	similarDistance := 22 - detail*18
	mergeThresholdSq := similarDistance * similarDistance * 3

	minClusterRatio := 0.24 - detail*0.232
	if minClusterRatio < 0.003 {
		minClusterRatio = 0.003
	}

	quantShift := int(math.Round((1 - detail) * 3))
	if quantShift < 0 {
		quantShift = 0
	}
	if quantShift > 3 {
		quantShift = 3
	}

	return Profile{
		AutoMaxColors:    autoMax,
		MergeThresholdSq: mergeThresholdSq,
		MinClusterRatio:  minClusterRatio,
		QuantShift:       uint(quantShift),
	}
}

type binKey struct{ r, g, b uint8 }

type binValue struct {
	sumWeight float64
	sumR      float64
	sumG      float64
	sumB      float64
}

// Extract runs the full noise-dial pipeline described for the dominant
// color extractor: downscale, bin, merge, optionally suppress a uniform
// background, filter by weight ratio, and truncate to the color cap.
func Extract(img image.Image, noise int, ignoreBackground bool, maxColorsCap int) []Cluster {
	profile := noiseProfile(noise)
	img = downscaleIfNeeded(img)

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	bins := map[binKey]*binValue{}
	border := map[binKey]*binValue{}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r32, g32, b32, a32 := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			alpha := uint8(a32 >> 8)
			if alpha < alphaSkipThreshold {
				continue
			}
			r, g, b := uint8(r32>>8), uint8(g32>>8), uint8(b32>>8)
			weight := float64(alpha) / 255.0

			key := binKey{r >> profile.QuantShift, g >> profile.QuantShift, b >> profile.QuantShift}
			accumulate(bins, key, r, g, b, weight)

			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				accumulate(border, key, r, g, b, weight)
			}
		}
	}

	centroids := centroidClusters(bins)
	merged := mergeClusters(centroids, profile.MergeThresholdSq)

	var totalWeight float64
	for _, c := range merged {
		totalWeight += c.Weight
	}
	if totalWeight == 0 {
		return nil
	}

	if ignoreBackground {
		merged = suppressBackground(merged, border, profile.MergeThresholdSq, totalWeight)
		totalWeight = 0
		for _, c := range merged {
			totalWeight += c.Weight
		}
	}

	filtered := filterByRatio(merged, totalWeight, profile.MinClusterRatio)

	cap := profile.AutoMaxColors
	if maxColorsCap > 0 && maxColorsCap < cap {
		cap = maxColorsCap
	}
	if len(filtered) > cap {
		filtered = filtered[:cap]
	}

	slog.Debug("dominant extraction complete", slog.Int("noise", noise), slog.Int("clusters", len(filtered)))
	return filtered
}

func accumulate(bins map[binKey]*binValue, key binKey, r, g, b uint8, weight float64) {
	v, ok := bins[key]
	if !ok {
		v = &binValue{}
		bins[key] = v
	}
	v.sumWeight += weight
	v.sumR += float64(r) * weight
	v.sumG += float64(g) * weight
	v.sumB += float64(b) * weight
}

func centroidOf(v *binValue) Cluster {
	if v.sumWeight == 0 {
		return Cluster{}
	}
	return Cluster{
		RGB: color.NewRGBFromFloat(
			v.sumR/v.sumWeight/255.0,
			v.sumG/v.sumWeight/255.0,
			v.sumB/v.sumWeight/255.0,
		),
		Weight: v.sumWeight,
	}
}

func centroidClusters(bins map[binKey]*binValue) []Cluster {
	clusters := make([]Cluster, 0, len(bins))
	for _, v := range bins {
		clusters = append(clusters, centroidOf(v))
	}
	sortByWeightDesc(clusters)
	return clusters
}

func sortByWeightDesc(clusters []Cluster) {
	for i := 1; i < len(clusters); i++ {
		for j := i; j > 0 && clusters[j].Weight > clusters[j-1].Weight; j-- {
			clusters[j], clusters[j-1] = clusters[j-1], clusters[j]
		}
	}
}

func rgbDistSq(a, b color.RGB) float64 {
	dr := float64(int(a.R) - int(b.R))
	dg := float64(int(a.G) - int(b.G))
	db := float64(int(a.B) - int(b.B))
	return dr*dr + dg*dg + db*db
}

// mergeClusters folds each cluster, in weight-descending order, into the
// first existing cluster within the merge threshold, else starts a new one.
func mergeClusters(clusters []Cluster, thresholdSq float64) []Cluster {
	var merged []struct {
		rgbSum [3]float64
		weight float64
	}

	for _, c := range clusters {
		placed := false
		for i := range merged {
			centroid := color.NewRGBFromFloat(
				merged[i].rgbSum[0]/merged[i].weight/255.0,
				merged[i].rgbSum[1]/merged[i].weight/255.0,
				merged[i].rgbSum[2]/merged[i].weight/255.0,
			)
			if rgbDistSq(c.RGB, centroid) <= thresholdSq {
				merged[i].rgbSum[0] += float64(c.RGB.R) * c.Weight
				merged[i].rgbSum[1] += float64(c.RGB.G) * c.Weight
				merged[i].rgbSum[2] += float64(c.RGB.B) * c.Weight
				merged[i].weight += c.Weight
				placed = true
				break
			}
		}
		if !placed {
			merged = append(merged, struct {
				rgbSum [3]float64
				weight float64
			}{
				rgbSum: [3]float64{float64(c.RGB.R) * c.Weight, float64(c.RGB.G) * c.Weight, float64(c.RGB.B) * c.Weight},
				weight: c.Weight,
			})
		}
	}

	result := make([]Cluster, len(merged))
	for i, m := range merged {
		result[i] = Cluster{
			RGB:    color.NewRGBFromFloat(m.rgbSum[0]/m.weight/255.0, m.rgbSum[1]/m.weight/255.0, m.rgbSum[2]/m.weight/255.0),
			Weight: m.weight,
		}
	}
	sortByWeightDesc(result)
	return result
}

// suppressBackground drops the top cluster when the border is dominated by
// one near-uniform color that also dominates the whole image.
func suppressBackground(clusters []Cluster, border map[binKey]*binValue, mergeThresholdSq, totalWeight float64) []Cluster {
	if len(clusters) == 0 {
		return clusters
	}

	var borderTotal float64
	var best *binValue
	var bestWeight float64
	for _, v := range border {
		borderTotal += v.sumWeight
		if v.sumWeight > bestWeight {
			bestWeight = v.sumWeight
			best = v
		}
	}
	if best == nil || borderTotal == 0 {
		return clusters
	}

	borderShare := bestWeight / borderTotal
	borderColor := centroidOf(best).RGB

	top := clusters[0]
	topRatio := top.Weight / totalWeight

	suppressThreshold := math.Max(120, 2*mergeThresholdSq)
	if topRatio >= 0.90 && borderShare >= 0.80 && rgbDistSq(top.RGB, borderColor) <= suppressThreshold {
		return clusters[1:]
	}
	return clusters
}

func filterByRatio(clusters []Cluster, totalWeight, minRatio float64) []Cluster {
	var kept []Cluster
	for _, c := range clusters {
		if c.Weight/totalWeight >= minRatio {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 && len(clusters) > 0 {
		return clusters[:1]
	}
	return kept
}

func downscaleIfNeeded(img image.Image) image.Image {
	bounds := img.Bounds()
	pixCount := bounds.Dx() * bounds.Dy()
	if pixCount <= maxPixels {
		return img
	}

	scale := math.Sqrt(float64(maxPixels) / float64(pixCount))
	newW := int(float64(bounds.Dx()) * scale)
	newH := int(float64(bounds.Dy()) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
