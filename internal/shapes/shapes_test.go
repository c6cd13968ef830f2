package shapes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogOrder(t *testing.T) {
	names := Names()
	require.NotEmpty(t, names)
	assert.Equal(t, "Sphere", names[0])
	assert.Equal(t, "Galaxy", names[len(names)-1])
	assert.Equal(t, "Saturn", names[len(names)-2])
	assert.Equal(t, "Tesseract", names[Index("Saddle Surface")+1])
	assert.Equal(t, -1, Index("Secret"))

	seen := map[string]bool{}
	for _, e := range Catalog() {
		assert.False(t, seen[e.Name], "duplicate %s", e.Name)
		seen[e.Name] = true
		if e.Kind == Procedural {
			assert.True(t, HasGenerator(e.Name), e.Name)
		}
		assert.Greater(t, e.Scale, float32(0), e.Name)
	}
}

func TestLookup(t *testing.T) {
	e, ok := Lookup("Skull")
	require.True(t, ok)
	assert.Equal(t, Sampled, e.Kind)
	assert.InDelta(t, 1.15, e.Scale, 1e-6)
	assert.InDelta(t, -math32.Pi/2, e.Rotation.X, 1e-6)

	_, ok = Lookup("Nope")
	assert.False(t, ok)
}

func TestGenerateAllFinite(t *testing.T) {
	for _, e := range Catalog() {
		if e.Kind != Procedural {
			continue
		}
		t.Run(e.Name, func(t *testing.T) {
			pts, err := Generate(e.Name, 1000)
			require.NoError(t, err)
			require.Len(t, pts, 3000)
			for i, v := range pts {
				require.True(t, finite(v), "point %d", i/3)
				require.Less(t, math32.Abs(v), float32(200), "point %d", i/3)
			}
		})
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate("Torus", 500)
	require.NoError(t, err)
	b, err := Generate("Torus", 500)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Generate("Sphere", 500)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestGenerateUnknown(t *testing.T) {
	_, err := Generate("Nope", 10)
	assert.ErrorIs(t, err, ErrUnknownShape)

	_, err = Generate("Brain", 10)
	assert.ErrorIs(t, err, ErrUnknownShape)
}

func TestSphereRadius(t *testing.T) {
	pts, err := Generate("Sphere", 200)
	require.NoError(t, err)
	for i := 0; i < 200; i++ {
		x, y, z := pts[i*3], pts[i*3+1], pts[i*3+2]
		assert.InDelta(t, 35, math32.Sqrt(x*x+y*y+z*z), 1e-3)
	}
}

func TestPolyhedronEdges(t *testing.T) {
	assert.Len(t, edges(tetrahedron), 6)
	assert.Len(t, edges(octahedron), 12)
	assert.Len(t, edges(icosahedron), 30)
	assert.Len(t, edges(dodecahedron), 30)
}

func TestSecret(t *testing.T) {
	for _, n := range []int{1, 7, 6000, 20000} {
		pts := Secret(n)
		require.Len(t, pts, n*3)
		for _, v := range pts {
			require.True(t, finite(v))
		}
	}
	assert.Equal(t, Secret(100), Secret(100))
}

func TestPlaceholder(t *testing.T) {
	human := Placeholder("Human", 300)
	brain := Placeholder("Brain", 300)
	require.Len(t, human, 900)
	require.Len(t, brain, 900)
	assert.NotEqual(t, human, brain)
	for i := 0; i < 300; i++ {
		x, y, z := brain[i*3], brain[i*3+1], brain[i*3+2]
		assert.LessOrEqual(t, math32.Sqrt(x*x+y*y+z*z), float32(40.01))
	}
}

func TestLibraryRoundTrip(t *testing.T) {
	lib := NewLibrary(nil)
	dst := make([]float32, 3*2000)

	ready, err := lib.Load(context.Background(), "Cube", dst)
	require.NoError(t, err)
	require.True(t, ready)
	first := append([]float32(nil), dst...)

	_, err = lib.Load(context.Background(), "Heart", dst)
	require.NoError(t, err)
	assert.NotEqual(t, first, dst)

	_, err = lib.Load(context.Background(), "Cube", dst)
	require.NoError(t, err)
	assert.Equal(t, first, dst)
}

func TestLibraryUnknown(t *testing.T) {
	lib := NewLibrary(nil)
	dst := []float32{1, 2, 3}
	_, err := lib.Load(context.Background(), "Nope", dst)
	assert.ErrorIs(t, err, ErrUnknownShape)
	assert.Equal(t, []float32{1, 2, 3}, dst)
}

type gatedSampler struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	points  []float32
	err     error
}

func (s *gatedSampler) Sample(ctx context.Context, name string, count int) ([]float32, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.points, s.err
}

func (s *gatedSampler) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func pollUntil(t *testing.T, lib *Library, name string, dst []float32) {
	t.Helper()
	require.Eventually(t, func() bool {
		lib.Poll(name, dst)
		return !lib.Pending(name, len(dst)/3)
	}, 2*time.Second, 5*time.Millisecond)
}

func TestLibraryAsyncModel(t *testing.T) {
	s := &gatedSampler{release: make(chan struct{}), points: []float32{0, 0, 0, 2, 0, 0}}
	lib := NewLibrary(s)
	dst := make([]float32, 3*4)
	ctx := context.Background()

	ready, err := lib.Load(ctx, "Gear", dst)
	require.NoError(t, err)
	assert.False(t, ready)
	assert.Equal(t, Placeholder("Gear", 4), dst)
	assert.True(t, lib.Pending("Gear", 4))

	// A second request while loading does not start another sample.
	_, err = lib.Load(ctx, "Gear", dst)
	require.NoError(t, err)

	close(s.release)
	pollUntil(t, lib, "Gear", dst)
	assert.Equal(t, 1, s.Calls())

	// Two points fitted to radius 40 and scaled by 1.5, repeated to fill.
	want := []float32{-60, 0, 0, 60, 0, 0, -60, 0, 0, 60, 0, 0}
	assert.InDeltaSlice(t, want, dst, 1e-3)

	ready, err = lib.Load(ctx, "Gear", dst)
	require.NoError(t, err)
	assert.True(t, ready)
	assert.Equal(t, 1, s.Calls())
}

func TestLibraryStaleResultNotApplied(t *testing.T) {
	s := &gatedSampler{release: make(chan struct{}), points: []float32{1, 1, 1}}
	lib := NewLibrary(s)
	dst := make([]float32, 3*2)
	ctx := context.Background()

	_, err := lib.Load(ctx, "Gear", dst)
	require.NoError(t, err)
	_, err = lib.Load(ctx, "Cube", dst)
	require.NoError(t, err)
	cube := append([]float32(nil), dst...)

	close(s.release)
	require.Eventually(t, func() bool {
		assert.False(t, lib.Poll("Cube", dst))
		return !lib.Pending("Gear", 2)
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, cube, dst)
}

func TestLibraryFailureKeepsPlaceholder(t *testing.T) {
	s := &gatedSampler{release: make(chan struct{}), err: errors.New("boom")}
	lib := NewLibrary(s)
	dst := make([]float32, 3*8)

	_, err := lib.Load(context.Background(), "Skull", dst)
	require.NoError(t, err)
	close(s.release)
	pollUntil(t, lib, "Skull", dst)
	assert.Equal(t, Placeholder("Skull", 8), dst)
}

func TestFit(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := Fit(nil, 3, Rotation{}, 1)
		assert.ErrorIs(t, err, ErrEmptyCloud)
		nan := math32.NaN()
		_, err = Fit([]float32{nan, 0, 0}, 3, Rotation{}, 1)
		assert.ErrorIs(t, err, ErrEmptyCloud)
	})

	t.Run("rotation", func(t *testing.T) {
		out, err := Fit([]float32{0, 0, -1, 0, 0, 1}, 2, Rotation{X: -math32.Pi / 2}, 1)
		require.NoError(t, err)
		// Rotating -90 degrees about X maps +Z to +Y.
		assert.InDeltaSlice(t, []float32{0, -40, 0, 0, 40, 0}, out, 1e-3)
	})

	t.Run("single point", func(t *testing.T) {
		out, err := Fit([]float32{5, 5, 5}, 2, Rotation{}, 1.5)
		require.NoError(t, err)
		assert.Equal(t, []float32{0, 0, 0, 0, 0, 0}, out)
	})
}

type memCache struct {
	clouds map[string][]float32
	puts   int
}

func (c *memCache) GetCloud(_ context.Context, name string, _ int) ([]float32, error) {
	if pts, ok := c.clouds[name]; ok {
		return pts, nil
	}
	return nil, errors.New("miss")
}

func (c *memCache) PutCloud(_ context.Context, name string, _ int, pts []float32) error {
	c.clouds[name] = pts
	c.puts++
	return nil
}

func TestCachingSampler(t *testing.T) {
	calls := 0
	next := SamplerFunc(func(ctx context.Context, name string, count int) ([]float32, error) {
		calls++
		return []float32{1, 2, 3}, nil
	})
	cache := &memCache{clouds: map[string][]float32{}}
	s := CachingSampler{Cache: cache, Next: next}

	for i := 0; i < 3; i++ {
		pts, err := s.Sample(context.Background(), "Gear", 10)
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 2, 3}, pts)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, cache.puts)
}
