package shapes

import (
	"context"

	"github.com/ayusman/nebula/internal/log"
)

// CloudCache persists sampled clouds between runs.
type CloudCache interface {
	GetCloud(ctx context.Context, name string, count int) ([]float32, error)
	PutCloud(ctx context.Context, name string, count int, points []float32) error
}

// CachingSampler consults Cache before Next and stores what Next returns.
// Cache errors are treated as misses.
type CachingSampler struct {
	Cache CloudCache
	Next  Sampler
}

// Sample implements Sampler.
func (s CachingSampler) Sample(ctx context.Context, name string, count int) ([]float32, error) {
	if pts, err := s.Cache.GetCloud(ctx, name, count); err == nil && len(pts) >= 3 {
		log.Debug("cloud cache hit", "shape", name, "count", count)
		return pts, nil
	}
	pts, err := s.Next.Sample(ctx, name, count)
	if err != nil {
		return nil, err
	}
	if err := s.Cache.PutCloud(ctx, name, count, pts); err != nil {
		log.Warn("cloud cache write failed", "shape", name, "err", err)
	}
	return pts, nil
}
