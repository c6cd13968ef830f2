package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Cloud is a stored point cloud for one shape at one particle count.
type Cloud struct {
	ID        string
	Shape     string
	Count     int
	Points    []float32
	CreatedAt time.Time
}

// CloudRepository caches sampled shape clouds. It satisfies
// shapes.CloudCache.
type CloudRepository struct {
	db *sql.DB
}

// Clouds returns the cloud repository for this store.
func (s *Store) Clouds() *CloudRepository {
	return &CloudRepository{db: s.db}
}

// GetCloud returns the cloud stored for shape at count.
func (r *CloudRepository) GetCloud(ctx context.Context, shape string, count int) ([]float32, error) {
	var blob []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT points FROM shape_clouds WHERE shape = ? AND count = ?`,
		shape, count,
	).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodePoints(blob)
}

// PutCloud stores points for shape at count, replacing any previous cloud.
func (r *CloudRepository) PutCloud(ctx context.Context, shape string, count int, points []float32) error {
	if count <= 0 {
		return fmt.Errorf("cloud count %d must be positive", count)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shape_clouds (id, shape, count, points, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(shape, count) DO UPDATE SET points = excluded.points, created_at = excluded.created_at`,
		uuid.New().String(), shape, count, encodePoints(points), time.Now(),
	)
	return err
}

// List returns every stored cloud without its points, newest first.
func (r *CloudRepository) List(ctx context.Context) ([]*Cloud, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, shape, count, created_at FROM shape_clouds ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clouds []*Cloud
	for rows.Next() {
		c := &Cloud{}
		if err := rows.Scan(&c.ID, &c.Shape, &c.Count, &c.CreatedAt); err != nil {
			return nil, err
		}
		clouds = append(clouds, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return clouds, nil
}

// DeleteShape drops every cached cloud of shape and reports how many were
// removed.
func (r *CloudRepository) DeleteShape(ctx context.Context, shape string) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM shape_clouds WHERE shape = ?`, shape)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

func encodePoints(points []float32) []byte {
	buf := make([]byte, 4*len(points))
	for i, v := range points {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodePoints(blob []byte) ([]float32, error) {
	if len(blob)%12 != 0 {
		return nil, fmt.Errorf("cloud blob of %d bytes is not a list of points", len(blob))
	}
	points := make([]float32, len(blob)/4)
	for i := range points {
		points[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return points, nil
}
