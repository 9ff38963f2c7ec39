// Package preprocess normalizes photographed receipt images before they are
// handed to the extraction model: contrast stretch, grayscale, denoise,
// sharpen, deskew and resize, re-encoded as JPEG.
package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
)

const (
	// target width after the final resize; aspect ratio is preserved
	targetWidth = 1200

	// fraction of total histogram mass clipped during contrast stretching,
	// split evenly between both tails
	clipHistPercent = 1.0

	// denoise parameters, comparable to fastNlMeansDenoising(10, 7, 21)
	denoiseStrength = 10.0
	denoiseWindow   = 7

	jpegQuality = 95
)

// DecodeError reports input bytes that could not be decoded as an image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Normalize runs the full preprocessing chain on raw encoded image bytes and
// returns JPEG bytes of the cleaned image. The only failure mode is a
// *DecodeError on undecodable input; every later stage is total.
func Normalize(raw []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	rgba := toRGBA(src)

	// 1. Auto brightness/contrast
	adjusted := autoContrast(rgba, clipHistPercent)

	// 2. Grayscale
	gray := grayscale(adjusted)

	// 3. Denoise
	denoised := denoise(gray, denoiseStrength, denoiseWindow)

	// 4. Sharpen
	sharpened := sharpen(denoised)

	// 5. Deskew
	deskewed := deskew(sharpened)

	// 6. Resize to a fixed width for consistent model input
	resized := resizeToWidth(deskewed, targetWidth)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	b := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	return rgba
}

// autoContrast linearly rescales intensities so that, after clipping
// clipPercent of the total histogram mass (half from each tail), the darkest
// remaining gray maps to 0 and the brightest to 255.
func autoContrast(img *image.RGBA, clipPercent float64) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var hist [256]float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			hist[lumaByte(img.Pix[i], img.Pix[i+1], img.Pix[i+2])]++
		}
	}

	var acc [256]float64
	acc[0] = hist[0]
	for i := 1; i < 256; i++ {
		acc[i] = acc[i-1] + hist[i]
	}

	maximum := acc[255]
	clip := maximum / 100.0 * clipPercent / 2.0

	minGray := 0
	for minGray < 255 && acc[minGray] < clip {
		minGray++
	}
	maxGray := 255
	for maxGray > 0 && acc[maxGray] >= maximum-clip {
		maxGray--
	}
	if maxGray <= minGray {
		return img
	}

	alpha := 255.0 / float64(maxGray-minGray)
	beta := -float64(minGray) * alpha

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			o := out.PixOffset(x, y)
			out.Pix[o] = clampByte(alpha*float64(img.Pix[i]) + beta)
			out.Pix[o+1] = clampByte(alpha*float64(img.Pix[i+1]) + beta)
			out.Pix[o+2] = clampByte(alpha*float64(img.Pix[i+2]) + beta)
			out.Pix[o+3] = img.Pix[i+3]
		}
	}
	return out
}

// grayscale converts to single-channel using the standard luma weighting.
func grayscale(img *image.RGBA) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			out.Pix[out.PixOffset(x, y)] = lumaByte(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
		}
	}
	return out
}

func lumaByte(r, g, b uint8) uint8 {
	return uint8(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b) + 0.5)
}

// denoise applies an edge-preserving bilateral filter at a strength
// comparable to non-local-means with filter strength h over the given
// window. Range weighting keeps text edges intact while flattening sensor
// noise on the paper background.
func denoise(img *image.Gray, strength float64, window int) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	radius := window / 2
	sigmaSpace := float64(window) / 4.0
	sigmaColor := 2.5 * strength

	// spatial kernel is fixed per offset
	size := window * window
	spatial := make([]float64, size)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d2 := float64(dx*dx + dy*dy)
			spatial[(dy+radius)*window+(dx+radius)] = math.Exp(-d2 / (2 * sigmaSpace * sigmaSpace))
		}
	}

	// range weights only depend on the intensity difference
	var rangeW [256]float64
	for d := 0; d < 256; d++ {
		rangeW[d] = math.Exp(-float64(d*d) / (2 * sigmaColor * sigmaColor))
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			center := img.Pix[img.PixOffset(x, y)]
			var sum, norm float64
			for dy := -radius; dy <= radius; dy++ {
				sy := clampInt(y+dy, 0, h-1)
				for dx := -radius; dx <= radius; dx++ {
					sx := clampInt(x+dx, 0, w-1)
					v := img.Pix[img.PixOffset(sx, sy)]
					diff := int(v) - int(center)
					if diff < 0 {
						diff = -diff
					}
					wgt := spatial[(dy+radius)*window+(dx+radius)] * rangeW[diff]
					sum += wgt * float64(v)
					norm += wgt
				}
			}
			out.Pix[out.PixOffset(x, y)] = clampByte(sum / norm)
		}
	}
	return out
}

// sharpen convolves with the 3x3 unsharp kernel
// [[0,-1,0],[-1,5,-1],[0,-1,0]], clamping to the valid pixel range.
func sharpen(img *image.Gray) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := float64(img.Pix[img.PixOffset(x, y)])
			up := float64(img.Pix[img.PixOffset(x, clampInt(y-1, 0, h-1))])
			down := float64(img.Pix[img.PixOffset(x, clampInt(y+1, 0, h-1))])
			left := float64(img.Pix[img.PixOffset(clampInt(x-1, 0, w-1), y)])
			right := float64(img.Pix[img.PixOffset(clampInt(x+1, 0, w-1), y)])
			out.Pix[out.PixOffset(x, y)] = clampByte(5*c - up - down - left - right)
		}
	}
	return out
}

// resizeToWidth scales to the target width preserving aspect ratio, using
// area averaging when shrinking and bilinear sampling when enlarging.
func resizeToWidth(img *image.Gray, width int) *image.Gray {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	if srcW == 0 || srcH == 0 || srcW == width {
		return img
	}

	ratio := float64(width) / float64(srcW)
	height := int(float64(srcH) * ratio)
	if height < 1 {
		height = 1
	}

	if width < srcW {
		return resizeArea(img, width, height)
	}
	return resizeBilinear(img, width, height)
}

// resizeArea computes each destination pixel as the coverage-weighted mean of
// the source rectangle it maps onto.
func resizeArea(img *image.Gray, width, height int) *image.Gray {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, width, height))

	xScale := float64(srcW) / float64(width)
	yScale := float64(srcH) / float64(height)

	for y := 0; y < height; y++ {
		sy0 := float64(y) * yScale
		sy1 := sy0 + yScale
		for x := 0; x < width; x++ {
			sx0 := float64(x) * xScale
			sx1 := sx0 + xScale

			var sum, area float64
			for sy := int(sy0); sy < int(math.Ceil(sy1)) && sy < srcH; sy++ {
				// vertical coverage of this source row
				cy := math.Min(sy1, float64(sy+1)) - math.Max(sy0, float64(sy))
				for sx := int(sx0); sx < int(math.Ceil(sx1)) && sx < srcW; sx++ {
					cx := math.Min(sx1, float64(sx+1)) - math.Max(sx0, float64(sx))
					wgt := cx * cy
					sum += wgt * float64(img.Pix[img.PixOffset(sx, sy)])
					area += wgt
				}
			}
			if area > 0 {
				out.Pix[out.PixOffset(x, y)] = clampByte(sum / area)
			}
		}
	}
	return out
}

func resizeBilinear(img *image.Gray, width, height int) *image.Gray {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, width, height))

	xScale := float64(srcW) / float64(width)
	yScale := float64(srcH) / float64(height)

	for y := 0; y < height; y++ {
		sy := (float64(y)+0.5)*yScale - 0.5
		y0 := clampInt(int(math.Floor(sy)), 0, srcH-1)
		y1 := clampInt(y0+1, 0, srcH-1)
		fy := sy - math.Floor(sy)
		for x := 0; x < width; x++ {
			sx := (float64(x)+0.5)*xScale - 0.5
			x0 := clampInt(int(math.Floor(sx)), 0, srcW-1)
			x1 := clampInt(x0+1, 0, srcW-1)
			fx := sx - math.Floor(sx)

			p00 := float64(img.Pix[img.PixOffset(x0, y0)])
			p10 := float64(img.Pix[img.PixOffset(x1, y0)])
			p01 := float64(img.Pix[img.PixOffset(x0, y1)])
			p11 := float64(img.Pix[img.PixOffset(x1, y1)])

			top := p00 + fx*(p10-p00)
			bottom := p01 + fx*(p11-p01)
			out.Pix[out.PixOffset(x, y)] = clampByte(top + fy*(bottom-top))
		}
	}
	return out
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
