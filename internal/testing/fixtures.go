package testing

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/roadscan/internal/domain"
)

// SolidImage returns a w×h image filled with c
func SolidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// SplitImage returns a w×h image whose left half is left and right half is right
func SplitImage(w, h int, left, right color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.Set(x, y, left)
			} else {
				img.Set(x, y, right)
			}
		}
	}
	return img
}

// Gray128 is mid gray; its feature vector is [0.5 0 0 0.5 0 0 0].
var Gray128 = color.RGBA{R: 128, G: 128, B: 128, A: 255}

// WritePNG encodes img as PNG at dir/name and returns the path
func WritePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
	return path
}

// WriteFile writes raw bytes at dir/name and returns the path
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// NewRecordFixtures returns n complete records with increasing timestamps
func NewRecordFixtures(n int) []domain.EncryptedRecord {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]domain.EncryptedRecord, n)
	for i := range out {
		out[i] = domain.EncryptedRecord{
			Timestamp:  base.Add(time.Duration(i) * time.Second),
			Ciphertext: "Y2lwaGVydGV4dA==" + string(rune('a'+i%26)),
			Entropy:    0.1 * float64(i+1),
		}
	}
	return out
}
