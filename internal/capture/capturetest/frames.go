// Package capturetest builds synthetic camera frames for tests.
package capturetest

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Solid returns a width x height BGR frame filled with grey level v.
func Solid(width, height int, v uint8) *gocv.Mat {
	s := float64(v)
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(s, s, s, 0), height, width, gocv.MatTypeCV8UC3)
	return &m
}

// MovingSquare returns n black frames with a white square that steps across
// the picture, enough change per frame to count as motion.
func MovingSquare(n, width, height int) []*gocv.Mat {
	side := min(width, height) / 4
	step := 0
	if n > 1 {
		step = (width - side) / (n - 1)
	}

	frames := make([]*gocv.Mat, n)
	for i := range frames {
		m := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
		x := i * step
		y := (height - side) / 2
		gocv.Rectangle(&m, image.Rect(x, y, x+side, y+side), color.RGBA{255, 255, 255, 0}, -1)
		frames[i] = &m
	}
	return frames
}

// JPEG encodes frame, for feeding decoders that expect camera output.
func JPEG(frame *gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}

// Close releases every frame.
func Close(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
