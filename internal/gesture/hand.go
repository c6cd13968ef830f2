package gesture

// HandSmoothing is the per-frame rate at which the pointer follows the
// fingertip.
const HandSmoothing = 0.15

// HandState is the tracked hand as the rest of the frame sees it. X and Y
// are in [-1, 1], mirrored horizontally so that moving the hand right moves
// the pointer right on screen, and Y grows upward.
type HandState struct {
	Present bool    `json:"present"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Gesture Symbol  `json:"gesture"`
}

// Apply folds an observation into the hand. The pointer only moves when the
// observation carries one.
func (h *HandState) Apply(o Observation) {
	h.Present = o.Present
	h.Gesture = o.Symbol
	if !o.HasPointer {
		return
	}
	rawX := (1-o.Pointer.X)*2 - 1
	rawY := -(o.Pointer.Y*2 - 1)
	h.X += (rawX - h.X) * HandSmoothing
	h.Y += (rawY - h.Y) * HandSmoothing
}
