package tray

import (
	"testing"

	"github.com/ayusman/nebula/internal/render"
)

func TestRenderTracksStatus(t *testing.T) {
	tr := New()
	if err := tr.Render(&render.Frame{Status: "SUPERNOVA", Shape: "Torus"}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := tr.Status(); got != "SUPERNOVA" {
		t.Errorf("Status() = %q, want SUPERNOVA", got)
	}
}

func TestTitles(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{statusTitle(""), "Mode: starting"},
		{statusTitle("STEALTH"), "Mode: STEALTH"},
		{shapeTitle(""), "Shape: none"},
		{shapeTitle("DNA"), "Shape: DNA"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("title = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestCallbacks(t *testing.T) {
	tr := New()
	var calls []string
	tr.OnNext(func() { calls = append(calls, "next") })
	tr.OnPause(func() { calls = append(calls, "pause") })
	tr.OnOpen(func() { calls = append(calls, "open") })

	tr.call(func() func() { return tr.onNext })
	tr.call(func() func() { return tr.onPause })
	tr.call(func() func() { return tr.onOpen })
	tr.call(func() func() { return tr.onQuit })

	if len(calls) != 3 || calls[0] != "next" || calls[1] != "pause" || calls[2] != "open" {
		t.Errorf("calls = %v", calls)
	}
}
