package preprocess

import (
	"image"
	"math"
	"sort"
)

// deskew estimates the rotation of the receipt from the minimum-area
// rectangle enclosing all foreground pixels and rotates the image about its
// center to straighten it. Dimensions are unchanged.
func deskew(img *image.Gray) *image.Gray {
	pts := foregroundPoints(img)
	if len(pts) < 3 {
		return img
	}

	angle := minAreaRectAngle(pts)
	if angle < -45 {
		angle = -(90 + angle)
	} else {
		angle = -angle
	}
	if math.Abs(angle) < 1e-3 {
		return img
	}

	return rotate(img, angle)
}

type point struct {
	x, y float64
}

func foregroundPoints(img *image.Gray) []point {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	var pts []point
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if img.Pix[img.PixOffset(x, y)] > 0 {
				pts = append(pts, point{float64(x), float64(y)})
			}
		}
	}
	return pts
}

// minAreaRectAngle returns the rotation angle, in degrees within [-90, 0), of
// the minimum-area rectangle enclosing the points (rotating-calipers over the
// convex hull).
func minAreaRectAngle(pts []point) float64 {
	hull := convexHull(pts)
	if len(hull) < 3 {
		return -90
	}

	bestArea := math.Inf(1)
	bestTheta := 0.0

	for i := 0; i < len(hull); i++ {
		j := (i + 1) % len(hull)
		dx := hull[j].x - hull[i].x
		dy := hull[j].y - hull[i].y
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		// unit vectors along and across the edge
		ux, uy := dx/length, dy/length
		vx, vy := -uy, ux

		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			u := p.x*ux + p.y*uy
			v := p.x*vx + p.y*vy
			minU = math.Min(minU, u)
			maxU = math.Max(maxU, u)
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}

		area := (maxU - minU) * (maxV - minV)
		if area < bestArea {
			bestArea = area
			bestTheta = math.Atan2(uy, ux)
		}
	}

	// reduce the edge direction to [0, 90) degrees, then shift into [-90, 0)
	deg := bestTheta * 180 / math.Pi
	deg = math.Mod(deg, 90)
	if deg < 0 {
		deg += 90
	}
	return deg - 90
}

// convexHull computes the convex hull with the Andrew monotone chain
// algorithm, counterclockwise order.
func convexHull(pts []point) []point {
	if len(pts) < 3 {
		return pts
	}

	sorted := make([]point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].x != sorted[j].x {
			return sorted[i].x < sorted[j].x
		}
		return sorted[i].y < sorted[j].y
	})

	cross := func(o, a, b point) float64 {
		return (a.x-o.x)*(b.y-o.y) - (a.y-o.y)*(b.x-o.x)
	}

	var lower []point
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	var upper []point
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// rotate rotates the image by angle degrees (counterclockwise positive) about
// its center, sampling with bicubic interpolation and replicating edge pixels
// for coordinates that fall outside the source.
func rotate(img *image.Gray, angle float64) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	cx := float64(w / 2)
	cy := float64(h / 2)
	rad := angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// inverse mapping into source coordinates
			dx := float64(x) - cx
			dy := float64(y) - cy
			sx := cos*dx - sin*dy + cx
			sy := sin*dx + cos*dy + cy
			out.Pix[out.PixOffset(x, y)] = sampleBicubic(img, sx, sy)
		}
	}
	return out
}

// cubicWeight is the Catmull-Rom style kernel with a=-0.75, matching the
// usual cubic resampling coefficient for image warps.
func cubicWeight(t float64) float64 {
	const a = -0.75
	t = math.Abs(t)
	switch {
	case t <= 1:
		return (a+2)*t*t*t - (a+3)*t*t + 1
	case t < 2:
		return a*t*t*t - 5*a*t*t + 8*a*t - 4*a
	default:
		return 0
	}
}

func sampleBicubic(img *image.Gray, sx, sy float64) uint8 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	x0 := int(math.Floor(sx))
	y0 := int(math.Floor(sy))
	fx := sx - float64(x0)
	fy := sy - float64(y0)

	var sum, norm float64
	for m := -1; m <= 2; m++ {
		wy := cubicWeight(float64(m) - fy)
		if wy == 0 {
			continue
		}
		py := clampInt(y0+m, 0, h-1)
		for n := -1; n <= 2; n++ {
			wx := cubicWeight(float64(n) - fx)
			if wx == 0 {
				continue
			}
			px := clampInt(x0+n, 0, w-1)
			wgt := wx * wy
			sum += wgt * float64(img.Pix[img.PixOffset(px, py)])
			norm += wgt
		}
	}
	if norm == 0 {
		return 0
	}
	return clampByte(sum / norm)
}
