package detector

import (
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-9

func extended(h HandLandmarks, tip, mcp int) bool {
	return Dist2D(h.Points[tip], h.Points[Wrist]) > Dist2D(h.Points[mcp], h.Points[Wrist])+0.05
}

func TestDist2D(t *testing.T) {
	d := Dist2D(Point3D{X: 0, Y: 0, Z: 5}, Point3D{X: 3, Y: 4, Z: -5})
	if math.Abs(d-5) > epsilon {
		t.Errorf("expected 5, got %f", d)
	}
}

func TestFaceLandmarks_Mouth(t *testing.T) {
	face := FaceWithMouthAt(0.4, 0.6)
	m := face.Mouth()
	if math.Abs(m.X-0.4) > epsilon || math.Abs(m.Y-0.6) > epsilon {
		t.Errorf("expected mouth at (0.4, 0.6), got (%f, %f)", m.X, m.Y)
	}
}

func TestLuma_At(t *testing.T) {
	l := &Luma{Width: 2, Height: 2, Pix: []uint8{0, 255, 51, 102}}

	tests := []struct {
		name string
		x, y float64
		want float64
	}{
		{"top left", 0.1, 0.1, 0},
		{"top right", 0.9, 0.1, 1},
		{"bottom left", 0.1, 0.9, 0.2},
		{"bottom right", 0.9, 0.9, 0.4},
		{"clamped below", -1, -1, 0},
		{"clamped above", 2, 2, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := l.At(tt.x, tt.y)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("At(%f, %f) = %f, want %f", tt.x, tt.y, got, tt.want)
			}
		})
	}

	t.Run("nil map", func(t *testing.T) {
		var nilMap *Luma
		if got := nilMap.At(0.5, 0.5); got != 0 {
			t.Errorf("expected 0 from nil map, got %f", got)
		}
	})
}

func TestParseResponse(t *testing.T) {
	t.Run("hands and face", func(t *testing.T) {
		hand := `{"points":[` + points(NumLandmarks) + `],"handedness":"Left","score":0.8}`
		face := `{"points":[` + points(NumFaceLandmarks) + `]}`
		line := []byte(`{"hands":[` + hand + `],"face":` + face + "}\n")

		res, err := parseResponse(line)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(res.Hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(res.Hands))
		}
		if res.Hands[0].Handedness != "Left" {
			t.Errorf("expected Left, got %s", res.Hands[0].Handedness)
		}
		if res.Hands[0].Points[PinkyTip].X != 0.5 {
			t.Errorf("expected last point x 0.5, got %f", res.Hands[0].Points[PinkyTip].X)
		}
		if res.Face == nil {
			t.Fatal("expected a face")
		}
	})

	t.Run("partial hand is dropped", func(t *testing.T) {
		line := []byte(`{"hands":[{"points":[` + points(5) + `]}],"face":null}`)
		res, err := parseResponse(line)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(res.Hands) != 0 || res.Face != nil {
			t.Errorf("expected empty result, got %+v", res)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		if _, err := parseResponse([]byte("{not json")); err == nil {
			t.Error("expected an error")
		}
	})
}

func points(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += ","
		}
		s += `{"x":0.5,"y":0.5,"z":0}`
	}
	return s
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty result by default", func(t *testing.T) {
		mock := NewMockDetector()

		res, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(res.Hands) != 0 || res.Face != nil {
			t.Errorf("expected empty result, got %+v", res)
		}
	})

	t.Run("returns configured hands and face", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands(ThumbsUpLandmarks(), OpenPalmLandmarks())
		mock.SetFace(FaceWithMouthAt(0.5, 0.5))

		res, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(res.Hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(res.Hands))
		}
		if res.Face == nil {
			t.Error("expected a face")
		}
		if mock.Calls() != 1 {
			t.Errorf("expected 1 call, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		res, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if res != nil {
			t.Errorf("expected nil result when error is set, got %v", res)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
	})
}

func TestHandPose(t *testing.T) {
	fingers := [4][2]int{{IndexTip, IndexMCP}, {MiddleTip, MiddleMCP}, {RingTip, RingMCP}, {PinkyTip, PinkyMCP}}

	tests := []struct {
		name string
		hand HandLandmarks
		want [4]bool
	}{
		{"open palm", OpenPalmLandmarks(), [4]bool{true, true, true, true}},
		{"fist", FistLandmarks(), [4]bool{}},
		{"point", PointLandmarks(), [4]bool{true, false, false, false}},
		{"rock", RockLandmarks(), [4]bool{true, false, false, true}},
		{"peace", PeaceLandmarks(), [4]bool{true, true, false, false}},
		{"three", ThreeLandmarks(), [4]bool{true, true, true, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for f, idx := range fingers {
				if got := extended(tt.hand, idx[0], idx[1]); got != tt.want[f] {
					t.Errorf("finger %d: extended = %v, want %v", f, got, tt.want[f])
				}
			}
		})
	}

	t.Run("thumb", func(t *testing.T) {
		if d := Dist2D(ThumbsUpLandmarks().Points[ThumbTip], ThumbsUpLandmarks().Points[IndexMCP]); d <= 0.08 {
			t.Errorf("thumbs up thumb should be extended, distance %f", d)
		}
		if d := Dist2D(FistLandmarks().Points[ThumbTip], FistLandmarks().Points[IndexMCP]); d > 0.08 {
			t.Errorf("fist thumb should be folded, distance %f", d)
		}
	})

	t.Run("pinch", func(t *testing.T) {
		h := PinchLandmarks()
		if d := Dist2D(h.Points[ThumbTip], h.Points[IndexTip]); d >= 0.05 {
			t.Errorf("pinch distance %f, want < 0.05", d)
		}
	})

	t.Run("translate", func(t *testing.T) {
		h := Translate(OpenPalmLandmarks(), 0.1, -0.1)
		if math.Abs(h.Points[Wrist].X-0.6) > epsilon || math.Abs(h.Points[Wrist].Y-0.7) > epsilon {
			t.Errorf("unexpected wrist %+v", h.Points[Wrist])
		}
	})
}
