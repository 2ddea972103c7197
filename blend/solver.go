// Package blend derives layer weights from a position in a 2D blend space.
package blend

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Solve computes gradient band weights for sample against anchors. The
// result has one weight per anchor, in order, summing to 1. An empty anchor
// set gives an empty result.
func Solve(sample mgl64.Vec2, anchors []mgl64.Vec2) []float64 {
	weights := make([]float64, len(anchors))
	if len(anchors) == 0 {
		return weights
	}

	total := 0.0
	for i, pointI := range anchors {
		vecIS := sample.Sub(pointI)
		weight := 1.0

		for j, pointJ := range anchors {
			if j == i {
				continue
			}

			vecIJ := pointJ.Sub(pointI)
			lensqIJ := vecIJ.Dot(vecIJ)
			if lensqIJ == 0 {
				// Coincident anchors put no constraint on each other.
				continue
			}

			candidate := 1 - vecIS.Dot(vecIJ)/lensqIJ
			weight = math.Min(weight, clamp01(candidate))
		}

		weights[i] = weight
		total += weight
	}

	if total <= 0 {
		uniform := 1 / float64(len(weights))
		for i := range weights {
			weights[i] = uniform
		}
		return weights
	}

	for i := range weights {
		weights[i] /= total
	}
	return weights
}

// SignedAngle returns the angle in radians that rotates a onto b,
// positive counter-clockwise.
func SignedAngle(a, b mgl64.Vec2) float64 {
	return math.Atan2(a[0]*b[1]-a[1]*b[0], a[0]*b[0]+a[1]*b[1])
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
