// Package features turns a road photo into the fixed-length ColorVector
// signature consumed by the quantum circuit and the entropy scorer.
package features

import (
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"math"
	"os"

	"github.com/rs/zerolog"
	_ "golang.org/x/image/bmp" // Register BMP decoder
	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/roadscan/internal/domain"
)

// Constants for the fixed-shape signature
const (
	CanvasSize = 120 // Images are resampled to CanvasSize x CanvasSize before any statistic

	HueBins      = 10
	HueRange     = 180.0 // 8-bit hue convention: degrees / 2
	SatBins      = 5
	ValBins      = 5
	ChannelRange = 255.0
	GrayBins     = 256

	CannyLow  = 100.0
	CannyHigh = 200.0

	// Number of leading bins taken from each histogram
	hueTake = 3
	satTake = 2
	valTake = 1
)

// Features holds every intermediate statistic of one image.
// Vector is the only part that leaves the extractor in the pipeline; it holds
// hue bins 0-2, saturation bins 0-1, value bin 0 and EdgeDensity, not GrayEntropy.
type Features struct {
	Hue         []float64 // HueBins, normalized by pixel count
	Saturation  []float64 // SatBins, normalized by pixel count
	Value       []float64 // ValBins, normalized by pixel count
	EdgeDensity float64   // edge pixels / total pixels
	GrayEntropy float64   // Shannon entropy of gray levels in bits, divided by 8; reported only
	Vector      domain.ColorVector
}

// Extractor computes ColorVectors from images.
type Extractor struct {
	size int
	low  float64
	high float64
	log  zerolog.Logger
}

// NewExtractor creates an extractor with the standard canvas and Canny thresholds.
func NewExtractor(log zerolog.Logger) *Extractor {
	return &Extractor{
		size: CanvasSize,
		low:  CannyLow,
		high: CannyHigh,
		log:  log.With().Str("component", "feature_extractor").Logger(),
	}
}

// Extract decodes the image at path and returns its ColorVector.
func (e *Extractor) Extract(path string) (domain.ColorVector, error) {
	f, err := e.ExtractFile(path)
	if err != nil {
		return nil, err
	}
	return f.Vector, nil
}

// ExtractFile decodes the image at path and returns all of its features.
func (e *Extractor) ExtractFile(path string) (*Features, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, domain.Wrap(domain.KindIO, "open image", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, domain.Wrap(domain.KindIO, "decode image", err)
	}

	e.log.Debug().
		Str("path", path).
		Str("format", format).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("Decoded image")

	return e.ExtractFeatures(img)
}

// ExtractImage returns the ColorVector of an already decoded image.
func (e *Extractor) ExtractImage(img image.Image) (domain.ColorVector, error) {
	f, err := e.ExtractFeatures(img)
	if err != nil {
		return nil, err
	}
	return f.Vector, nil
}

// ExtractFeatures runs the full feature pipeline on a decoded image.
func (e *Extractor) ExtractFeatures(img image.Image) (*Features, error) {
	if img == nil {
		return nil, domain.Errorf(domain.KindIO, "extract features", "no image data")
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, domain.Errorf(domain.KindShape, "extract features",
			"image has zero area (%dx%d)", bounds.Dx(), bounds.Dy())
	}

	canvas := resample(img, e.size)
	pixels := e.size * e.size

	hue := make([]float64, HueBins)
	sat := make([]float64, SatBins)
	val := make([]float64, ValBins)
	gray := make([]uint8, pixels)

	for y := 0; y < e.size; y++ {
		row := canvas.Pix[y*canvas.Stride:]
		for x := 0; x < e.size; x++ {
			r, g, b := row[x*4], row[x*4+1], row[x*4+2]

			h, s, v := rgbToHSV(r, g, b)
			hue[binIndex(float64(h), HueBins, HueRange)]++
			sat[binIndex(float64(s), SatBins, ChannelRange)]++
			val[binIndex(float64(v), ValBins, ChannelRange)]++

			gray[y*e.size+x] = luma(r, g, b)
		}
	}

	// Every histogram is divided by the pixel count, never by a per-bin total
	inv := 1 / float64(pixels)
	floats.Scale(inv, hue)
	floats.Scale(inv, sat)
	floats.Scale(inv, val)

	edges := CannyEdges(gray, e.size, e.size, e.low, e.high)
	edgeDensity := float64(countTrue(edges)) / float64(pixels)
	grayEntropy := grayLevelEntropy(gray)

	vector, err := assemble(hue, sat, val, edgeDensity, grayEntropy)
	if err != nil {
		return nil, err
	}

	return &Features{
		Hue:         hue,
		Saturation:  sat,
		Value:       val,
		EdgeDensity: edgeDensity,
		GrayEntropy: grayEntropy,
		Vector:      vector,
	}, nil
}

// assemble concatenates the fixed slices, keeps the first FeatureDim values
// and re-normalizes them to sum to 1.
//
// The concatenation has FeatureDim+1 entries; the trailing gray entropy is
// cut by the FeatureDim truncation and only survives in Features.GrayEntropy.
func assemble(hue, sat, val []float64, edgeDensity, grayEntropy float64) (domain.ColorVector, error) {
	raw := make([]float64, 0, hueTake+satTake+valTake+2)
	raw = append(raw, hue[:hueTake]...)
	raw = append(raw, sat[:satTake]...)
	raw = append(raw, val[:valTake]...)
	raw = append(raw, edgeDensity, grayEntropy)
	raw = raw[:domain.FeatureDim]

	sum := floats.Sum(raw)
	if sum <= 0 || math.IsNaN(sum) {
		return nil, domain.Errorf(domain.KindShape, "normalize features",
			"degenerate feature vector (sum=%g)", sum)
	}
	floats.Scale(1/sum, raw)

	return domain.ColorVector(raw), nil
}

// resample scales img onto a size x size RGBA canvas with bilinear filtering.
func resample(img image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// grayLevelEntropy returns the Shannon entropy of the 256-bin gray histogram
// in bits, divided by 8 so it lands in [0, 1].
func grayLevelEntropy(gray []uint8) float64 {
	hist := make([]float64, GrayBins)
	for _, g := range gray {
		hist[binIndex(float64(g), GrayBins, ChannelRange)]++
	}
	floats.Scale(1/float64(len(gray)), hist)

	bits := stat.Entropy(hist) / math.Ln2
	return math.Abs(bits) / 8
}

// binIndex maps x in [0, rng] onto one of bins equal-width bins; the last bin
// is closed on the right.
func binIndex(x float64, bins int, rng float64) int {
	i := int(x * float64(bins) / rng)
	if i >= bins {
		return bins - 1
	}
	if i < 0 {
		return 0
	}
	return i
}

func countTrue(mask []bool) int {
	n := 0
	for _, m := range mask {
		if m {
			n++
		}
	}
	return n
}
