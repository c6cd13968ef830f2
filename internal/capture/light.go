package capture

import "github.com/ayusman/nebula/internal/detector"

// Light meter defaults.
const (
	LightCheckInterval = 60
	LowLightThreshold  = 40
)

// LightMeter reports whether the centre of the picture is too dark for
// reliable tracking. It only measures every interval frames and holds its
// verdict in between.
type LightMeter struct {
	interval  int
	threshold float64
	frames    int
	low       bool
}

// NewLightMeter creates a LightMeter with the default interval and threshold.
func NewLightMeter() *LightMeter {
	return &LightMeter{interval: LightCheckInterval, threshold: LowLightThreshold}
}

// Observe counts one frame and, on every interval-th frame, measures l.
// A nil or empty map keeps the previous verdict.
func (m *LightMeter) Observe(l *detector.Luma) bool {
	m.frames++
	if m.frames%m.interval != 0 {
		return m.low
	}
	if avg, ok := CentreBrightness(l); ok {
		m.low = avg < m.threshold
	}
	return m.low
}

// Low returns the last verdict.
func (m *LightMeter) Low() bool {
	return m.low
}

// CentreBrightness averages every tenth pixel of the centre 100x100 region
// of a 320x240 map, scaled to the map's actual size. The result is in 0..255.
func CentreBrightness(l *detector.Luma) (float64, bool) {
	if l == nil || l.Width == 0 || l.Height == 0 || len(l.Pix) < l.Width*l.Height {
		return 0, false
	}

	x0 := l.Width * 110 / LumaWidth
	x1 := l.Width * 210 / LumaWidth
	y0 := l.Height * 70 / LumaHeight
	y1 := l.Height * 170 / LumaHeight

	var sum float64
	var n int
	for y := y0; y < y1 && y < l.Height; y++ {
		for x := x0; x < x1 && x < l.Width; x++ {
			if ((y-y0)*(x1-x0)+(x-x0))%10 != 0 {
				continue
			}
			sum += float64(l.Pix[y*l.Width+x])
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
