package feature

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/ayusman/yubimoji/internal/detector"
)

const epsilon = 1e-9

func assertVectorsEqual(t *testing.T, got, want Vector) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		for axis := 0; axis < 3; axis++ {
			if math.Abs(got[i][axis]-want[i][axis]) > epsilon {
				t.Fatalf("offset %d axis %d = %f, want %f", i, axis, got[i][axis], want[i][axis])
			}
		}
	}
}

func TestNormalize_Length(t *testing.T) {
	tests := []struct {
		name   string
		points []detector.Point3D
		want   int
	}{
		{name: "empty", points: nil, want: 0},
		{name: "single landmark", points: []detector.Point3D{{X: 0.3, Y: 0.4}}, want: 0},
		{name: "one hand", points: detector.Flatten([]detector.HandLandmarks{detector.FistLandmarks()}), want: 20},
		{
			name: "two hands",
			points: detector.Flatten([]detector.HandLandmarks{
				detector.FistLandmarks(),
				detector.OpenPalmLandmarks(),
			}),
			want: 41,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.points)
			if got == nil {
				t.Fatal("Normalize returned nil")
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestNormalize_MaxOffsetIsUnitLength(t *testing.T) {
	hand := detector.OpenPalmLandmarks()
	vec := Normalize(hand.Points[:])

	maxLen := 0.0
	for _, d := range vec {
		maxLen = math.Max(maxLen, math.Sqrt(d[0]*d[0]+d[1]*d[1]+d[2]*d[2]))
	}
	if math.Abs(maxLen-1.0) > epsilon {
		t.Errorf("largest offset length = %f, want 1.0", maxLen)
	}
}

func TestNormalize_KnownValues(t *testing.T) {
	points := []detector.Point3D{
		{X: 1, Y: 1, Z: 1},
		{X: 1, Y: 3, Z: 1}, // offset (0,2,0), |d|=2
		{X: 2, Y: 1, Z: 1}, // offset (1,0,0)
	}

	got := Normalize(points)
	want := Vector{{0, 1, 0}, {0.5, 0, 0}}
	assertVectorsEqual(t, got, want)
}

func TestNormalize_TranslationInvariant(t *testing.T) {
	hand := detector.FistLandmarks()
	base := Normalize(hand.Points[:])

	shifted := make([]detector.Point3D, detector.NumLandmarks)
	for i, p := range hand.Points {
		shifted[i] = detector.Point3D{X: p.X + 0.17, Y: p.Y - 0.42, Z: p.Z + 3.5}
	}

	assertVectorsEqual(t, Normalize(shifted), base)
}

func TestNormalize_ScaleInvariant(t *testing.T) {
	hand := detector.OpenPalmLandmarks()
	base := Normalize(hand.Points[:])
	origin := hand.Points[detector.Wrist]

	for _, factor := range []float64{0.01, 0.5, 2, 250} {
		scaled := make([]detector.Point3D, detector.NumLandmarks)
		for i, p := range hand.Points {
			scaled[i] = detector.Point3D{
				X: origin.X + (p.X-origin.X)*factor,
				Y: origin.Y + (p.Y-origin.Y)*factor,
				Z: origin.Z + (p.Z-origin.Z)*factor,
			}
		}
		assertVectorsEqual(t, Normalize(scaled), base)
	}
}

func TestNormalize_Degenerate(t *testing.T) {
	points := make([]detector.Point3D, detector.NumLandmarks)
	for i := range points {
		points[i] = detector.Point3D{X: 0.4, Y: 0.6, Z: -0.1}
	}

	got := Normalize(points)
	if len(got) != detector.NumLandmarks-1 {
		t.Fatalf("len = %d, want %d", len(got), detector.NumLandmarks-1)
	}
	for i, d := range got {
		for axis := 0; axis < 3; axis++ {
			if d[axis] != 0 || math.IsNaN(d[axis]) {
				t.Errorf("offset %d axis %d = %f, want 0", i, axis, d[axis])
			}
		}
	}
}

func TestVector_JSONShape(t *testing.T) {
	data, err := json.Marshal(Vector{{0, 1, 0}, {0.5, 0, -0.25}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `[[0,1,0],[0.5,0,-0.25]]` {
		t.Errorf("json = %s", data)
	}
}
