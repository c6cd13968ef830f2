package capture

import (
	"errors"
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/nebula/internal/detector"
)

// Luma map size. Face colors and the light meter sample this map rather
// than the full frame.
const (
	LumaWidth  = 320
	LumaHeight = 240
)

// LumaMap converts frame to an 8-bit greyscale map of LumaWidth x LumaHeight.
func LumaMap(frame *gocv.Mat) (*detector.Luma, error) {
	if frame == nil || frame.Empty() {
		return nil, errors.New("empty frame")
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(gray, &small, image.Point{X: LumaWidth, Y: LumaHeight}, 0, 0, gocv.InterpolationArea)

	return &detector.Luma{Width: LumaWidth, Height: LumaHeight, Pix: small.ToBytes()}, nil
}
