// Package feature turns raw hand landmarks into the translation- and
// scale-invariant vectors the sign classifier consumes.
package feature

import (
	"math"

	"github.com/ayusman/yubimoji/internal/detector"
)

// Offset is one landmark's displacement from the reference landmark.
// It encodes to JSON as [x, y, z].
type Offset [3]float64

// Vector is the classifier input: one Offset per landmark after the first.
type Vector []Offset

// Normalize expresses every landmark after the first as an offset from the
// first one, divided by the largest offset length. When all landmarks
// coincide with the first one the offsets are returned undivided.
//
// The result has len(points)-1 entries; an empty input yields an empty
// vector. Rotation is left untouched.
func Normalize(points []detector.Point3D) Vector {
	if len(points) == 0 {
		return Vector{}
	}

	origin := points[0]
	offsets := make(Vector, 0, len(points)-1)
	maxSq := 0.0

	for _, p := range points[1:] {
		d := Offset{p.X - origin.X, p.Y - origin.Y, p.Z - origin.Z}
		if sq := d[0]*d[0] + d[1]*d[1] + d[2]*d[2]; sq > maxSq {
			maxSq = sq
		}
		offsets = append(offsets, d)
	}

	if maxSq <= 0 {
		return offsets
	}

	scale := math.Sqrt(maxSq)
	for i := range offsets {
		offsets[i][0] /= scale
		offsets[i][1] /= scale
		offsets[i][2] /= scale
	}

	return offsets
}
