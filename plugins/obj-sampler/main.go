// Package main provides a shape sampler plugin.
// It reads models/<shape>.obj and scatters points over the mesh surface,
// picking triangles in proportion to their area.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Shape  string          `json:"shape"`
	Count  int             `json:"count"`
	Config json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
	Points  []float32 `json:"points,omitempty"`
}

type vec [3]float64

type mesh struct {
	verts []vec
	tris  [][3]int
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Action != "sample" {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}
	if req.Count <= 0 {
		writeErrorResponse("count must be positive")
		return
	}
	if strings.ContainsAny(req.Shape, `/\`) || req.Shape == "" {
		writeErrorResponse(fmt.Sprintf("invalid shape name %q", req.Shape))
		return
	}

	f, err := os.Open(filepath.Join("models", req.Shape+".obj"))
	if err != nil {
		writeErrorResponse(fmt.Sprintf("no mesh for %s: %v", req.Shape, err))
		return
	}
	defer f.Close()

	m, err := parseOBJ(f)
	if err != nil {
		writeErrorResponse(fmt.Sprintf("parse %s: %v", req.Shape, err))
		return
	}

	pts, err := sample(m, req.Count, seed(req.Shape, req.Count))
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}

	json.NewEncoder(os.Stdout).Encode(Response{Success: true, Points: pts})
}

// parseOBJ reads vertices and faces. Polygons are fan-triangulated and
// negative indices count back from the last vertex.
func parseOBJ(r io.Reader) (*mesh, error) {
	m := &mesh{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs 3 coordinates", line)
			}
			var v vec
			for i := range v {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				v[i] = f
			}
			m.verts = append(m.verts, v)
		case "f":
			idx := make([]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				i, err := strconv.Atoi(strings.SplitN(tok, "/", 2)[0])
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				if i < 0 {
					i = len(m.verts) + i
				} else {
					i--
				}
				if i < 0 || i >= len(m.verts) {
					return nil, fmt.Errorf("line %d: vertex index out of range", line)
				}
				idx = append(idx, i)
			}
			for k := 1; k+1 < len(idx); k++ {
				m.tris = append(m.tris, [3]int{idx[0], idx[k], idx[k+1]})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func sample(m *mesh, count int, s uint64) ([]float32, error) {
	r := rand.New(rand.NewPCG(s, uint64(count)))
	out := make([]float32, 0, 3*count)

	if len(m.tris) == 0 {
		if len(m.verts) == 0 {
			return nil, errors.New("mesh has no geometry")
		}
		// Point cloud only.
		for i := 0; i < count; i++ {
			v := m.verts[r.IntN(len(m.verts))]
			out = append(out, float32(v[0]), float32(v[1]), float32(v[2]))
		}
		return out, nil
	}

	cum := make([]float64, len(m.tris))
	total := 0.0
	for i, t := range m.tris {
		total += area(m.verts[t[0]], m.verts[t[1]], m.verts[t[2]])
		cum[i] = total
	}
	if total <= 0 {
		return nil, errors.New("mesh has zero surface area")
	}

	for i := 0; i < count; i++ {
		k := sort.SearchFloat64s(cum, r.Float64()*total)
		if k >= len(cum) {
			k = len(cum) - 1
		}
		t := m.tris[k]
		a, b, c := m.verts[t[0]], m.verts[t[1]], m.verts[t[2]]

		u, v := r.Float64(), r.Float64()
		if u+v > 1 {
			u, v = 1-u, 1-v
		}
		for j := 0; j < 3; j++ {
			out = append(out, float32(a[j]+u*(b[j]-a[j])+v*(c[j]-a[j])))
		}
	}
	return out, nil
}

func area(a, b, c vec) float64 {
	ab := vec{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	ac := vec{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	x := ab[1]*ac[2] - ab[2]*ac[1]
	y := ab[2]*ac[0] - ab[0]*ac[2]
	z := ab[0]*ac[1] - ab[1]*ac[0]
	return 0.5 * math.Sqrt(x*x+y*y+z*z)
}

func seed(shape string, count int) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s:%d", shape, count)
	return h.Sum64()
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
