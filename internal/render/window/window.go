// Package window is a desktop renderer for the particle field.
package window

import (
	"image"
	"image/color"
	"sync"

	"github.com/chewxy/math32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/ayusman/nebula/internal/orbit"
	"github.com/ayusman/nebula/internal/render"
)

// Key bindings forwarded to the command handler.
const (
	CommandPause = "pause"
	CommandNext  = "next"
	CommandQuit  = "quit"
)

var bindings = map[ebiten.Key]string{
	ebiten.KeySpace:  CommandPause,
	ebiten.KeyN:      CommandNext,
	ebiten.KeyEscape: CommandQuit,
}

// Window keeps a copy of the latest frame and draws it at the display rate.
type Window struct {
	width, height int

	mu        sync.Mutex
	onCommand func(string)
	pos       []float32
	col       []float32
	size      []float32
	yaw       float32
	pose      orbit.Pose
	blur      float64
	status    string
	gesture   string
	tier      string
	low       bool
	closed    bool

	pix []byte
	tex *ebiten.Image
}

// New creates a window of the given size. onCommand may be nil.
func New(width, height int, onCommand func(string)) *Window {
	return &Window{
		width:     width,
		height:    height,
		onCommand: onCommand,
		pix:       make([]byte, 4*width*height),
	}
}

// SetOnCommand replaces the key command handler.
func (w *Window) SetOnCommand(fn func(string)) {
	w.mu.Lock()
	w.onCommand = fn
	w.mu.Unlock()
}

// Render implements render.Renderer.
func (w *Window) Render(f *render.Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pos = append(w.pos[:0], f.Positions...)
	w.col = append(w.col[:0], f.Colors...)
	w.size = append(w.size[:0], f.Sizes...)
	w.yaw = f.Yaw
	w.pose = f.Camera
	w.blur = f.Blur
	w.status = f.Status
	w.gesture = f.Gesture
	w.tier = f.Tier
	w.low = f.LowLight
	return nil
}

// Close makes Run return after the current frame.
func (w *Window) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

// Run opens the window and blocks until it is closed. It must be called
// from the main goroutine.
func (w *Window) Run(title string) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(w.width, w.height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	return ebiten.RunGame(w)
}

// Update implements ebiten.Game.
func (w *Window) Update() error {
	w.mu.Lock()
	onCommand, closed := w.onCommand, w.closed
	w.mu.Unlock()

	for key, cmd := range bindings {
		if inpututil.IsKeyJustPressed(key) && onCommand != nil {
			onCommand(cmd)
		}
	}
	if closed {
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game.
func (w *Window) Draw(screen *ebiten.Image) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.tex == nil {
		w.tex = ebiten.NewImage(w.width, w.height)
	}
	Splat(w.pix, w.width, w.height, w.pos, w.col, w.size, render.NewProjector(w.pose, w.yaw, w.width, w.height), w.blur)
	w.tex.WritePixels(w.pix)
	screen.DrawImage(w.tex, nil)

	ebitenutil.DebugPrintAt(screen, w.status, 8, 8)
	ebitenutil.DebugPrintAt(screen, w.gesture, 8, 24)
	ebitenutil.DebugPrintAt(screen, w.tier, w.width-64, 8)
	if w.low {
		ebitenutil.DebugPrintAt(screen, "LOW LIGHT", 8, w.height-24)
	}
}

// Layout implements ebiten.Game.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return w.width, w.height
}

// Splat draws particles additively into an RGBA buffer. With blur > 0 the
// previous contents fade by that factor instead of being cleared, which
// leaves trails.
func Splat(pix []byte, width, height int, pos, col, size []float32, p render.Projector, blur float64) {
	keep := float32(blur)
	if keep <= 0 {
		clear(pix)
	} else {
		for i := range pix {
			pix[i] = uint8(float32(pix[i]) * keep)
		}
	}
	for i := 3; i < len(pix); i += 4 {
		pix[i] = 0xff
	}

	n := min(len(pos)/3, len(col)/3, len(size))
	for i := 0; i < n; i++ {
		sx, sy, depth, ok := p.Project(pos[3*i], pos[3*i+1], pos[3*i+2])
		if !ok {
			continue
		}
		r := size[i] * p.Scale(depth) * 0.5
		c := color.RGBA{
			R: unit(col[3*i]),
			G: unit(col[3*i+1]),
			B: unit(col[3*i+2]),
			A: 0xff,
		}
		dot(pix, width, height, sx, sy, r, c)
	}
}

func dot(pix []byte, width, height int, sx, sy, r float32, c color.RGBA) {
	if r < 0.5 {
		r = 0.5
	}
	b := image.Rect(
		int(math32.Floor(sx-r)), int(math32.Floor(sy-r)),
		int(math32.Ceil(sx+r)), int(math32.Ceil(sy+r)),
	).Intersect(image.Rect(0, 0, width, height))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			o := 4 * (y*width + x)
			pix[o] = add(pix[o], c.R)
			pix[o+1] = add(pix[o+1], c.G)
			pix[o+2] = add(pix[o+2], c.B)
		}
	}
}

func add(a, b uint8) uint8 {
	if s := int(a) + int(b); s < 0xff {
		return uint8(s)
	}
	return 0xff
}

func unit(v float32) uint8 {
	switch {
	case !(v > 0):
		return 0
	case v >= 1:
		return 0xff
	}
	return uint8(v * 0xff)
}
