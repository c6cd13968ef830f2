package render

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// Wire layout of a binary frame message:
//
//	uint32  length of the JSON header (little endian)
//	[]byte  JSON header (Frame fields)
//	padding to a multiple of 4
//	float32 positions, 3 per particle
//	float32 colors, 3 per particle
//	float32 sizes, 1 per particle
//
// The padding lets browsers view the tail as a Float32Array directly.

// MarshalBinary encodes f in the wire layout.
func (f *Frame) MarshalBinary() ([]byte, error) {
	return f.AppendBinary(nil)
}

// AppendBinary appends the wire encoding of f to buf.
func (f *Frame) AppendBinary(buf []byte) ([]byte, error) {
	if len(f.Positions) != 3*f.Count || len(f.Colors) != 3*f.Count || len(f.Sizes) != f.Count {
		return buf, fmt.Errorf("frame buffers do not match %d particles", f.Count)
	}
	head, err := json.Marshal(f)
	if err != nil {
		return buf, fmt.Errorf("encode frame header: %w", err)
	}

	pad := (4 - (4+len(head))%4) % 4
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(head)))
	buf = append(buf, head...)
	for i := 0; i < pad; i++ {
		buf = append(buf, ' ')
	}
	for _, s := range [][]float32{f.Positions, f.Colors, f.Sizes} {
		for _, v := range s {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	return buf, nil
}

// UnmarshalBinary decodes a wire frame. The particle slices are freshly
// allocated.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("frame too short: %d bytes", len(data))
	}
	n := int(binary.LittleEndian.Uint32(data))
	if 4+n > len(data) {
		return fmt.Errorf("frame header of %d bytes overruns %d byte message", n, len(data))
	}
	var head Frame
	if err := json.Unmarshal(data[4:4+n], &head); err != nil {
		return fmt.Errorf("decode frame header: %w", err)
	}

	off := 4 + n
	off += (4 - off%4) % 4
	body := data[min(off, len(data)):]
	if head.Count < 0 || len(body) != 4*7*head.Count {
		return fmt.Errorf("frame body of %d bytes does not hold %d particles", len(body), head.Count)
	}

	floats := make([]float32, len(body)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[4*i:]))
	}
	c := head.Count
	head.Positions = floats[:3*c]
	head.Colors = floats[3*c : 6*c]
	head.Sizes = floats[6*c:]
	*f = head
	return nil
}
