package plugin

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestPlugin_ObjSampler_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	pluginDir := findPluginDir("obj-sampler")
	if pluginDir == "" {
		t.Skip("obj-sampler plugin not built")
	}
	if _, err := os.Stat(filepath.Join(pluginDir, "obj-sampler")); err != nil {
		t.Skip("obj-sampler binary not built")
	}

	mgr := NewManager(filepath.Dir(pluginDir))
	if err := mgr.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	plug, err := mgr.Get("obj-sampler")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(plug.Manifest.Shapes) == 0 {
		t.Fatal("obj-sampler should declare shapes")
	}

	shape := plug.Manifest.Shapes[0]
	if _, err := os.Stat(filepath.Join(pluginDir, "models", shape+".obj")); err != nil {
		t.Skipf("no mesh for %s", shape)
	}

	pts, err := mgr.Sample(context.Background(), shape, 500)
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if len(pts) != 1500 {
		t.Fatalf("expected 1500 values, got %d", len(pts))
	}
	for i, v := range pts {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("value %d is not finite", i)
		}
	}
}

func findPluginDir(name string) string {
	candidates := []string{
		filepath.Join("../../plugins", name),
		filepath.Join("../../../plugins", name),
	}

	for _, dir := range candidates {
		manifest := filepath.Join(dir, "plugin.json")
		if _, err := os.Stat(manifest); err == nil {
			return dir
		}
	}
	return ""
}
