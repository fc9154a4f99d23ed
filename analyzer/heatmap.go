package analyzer

import (
	"fmt"
	"image"
	"image/color"
)

var missColor = color.NRGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xff}

func checkImageSize(count, width, height int) error {
	if width <= 0 || height <= 0 || count != width*height {
		return fmt.Errorf("analyzer: cannot map %d samples to a %dx%d image", count, width, height)
	}
	return nil
}

// Render hit barycentrics as an image. Row 0 of the ray grid is the bottom
// image row. Misses are drawn in dark grey.
func HitImage(hits []Hit, width, height int) (*image.NRGBA, error) {
	if err := checkImageSize(len(hits), width, height); err != nil {
		return nil, err
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			hit := hits[y*width+x]
			c := missColor
			if hit.IsHit() {
				c = color.NRGBA{G: uint8(hit.UV[0] * 255), B: uint8(hit.UV[1] * 255), A: 0xff}
			}
			img.SetNRGBA(x, height-1-y, c)
		}
	}
	return img, nil
}

// Render the number of box tests per ray as an image.
func TestsImage(stats []TraversalStats, width, height int) (*image.NRGBA, error) {
	if err := checkImageSize(len(stats), width, height); err != nil {
		return nil, err
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			tests := stats[y*width+x].AabbTests
			if tests > 0xff {
				tests = 0xff
			}
			img.SetNRGBA(x, height-1-y, color.NRGBA{R: uint8(tests), A: 0xff})
		}
	}
	return img, nil
}
