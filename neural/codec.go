package neural

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
)

// ErrCorruptBlob is returned when UnmarshalBinary cannot decode a blob.
var ErrCorruptBlob = errors.New("neural: corrupt network blob")

// Blob layout, little endian:
//
//	magic "EVNN" | version u8 | layer count u32 | layer sizes u32...
//	per neuron: bias f32 | per connection: source u32, weight f32
const (
	blobVersion  = 1
	maxLayerSize = 1 << 16
	maxLayers    = 64
)

var blobMagic = [4]byte{'E', 'V', 'N', 'N'}

// MarshalBinary encodes the structure and every weight and bias bit for bit.
func (n *Network) MarshalBinary() ([]byte, error) {
	sizes := n.Sizes()
	buf := make([]byte, 0, 9+4*len(sizes)+8*n.Params())
	buf = append(buf, blobMagic[:]...)
	buf = append(buf, blobVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(sizes)))
	for _, s := range sizes {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(s))
	}
	for _, layer := range n.layers {
		for _, neuron := range layer {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(neuron.Bias))
			for _, c := range neuron.Connections {
				buf = binary.LittleEndian.AppendUint32(buf, uint32(c.Source))
				buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c.Weight))
			}
		}
	}
	return buf, nil
}

// UnmarshalBinary replaces n with the network encoded in data.
func (n *Network) UnmarshalBinary(data []byte) error {
	r := reader{data: data}
	var magic [4]byte
	copy(magic[:], r.bytes(4))
	if r.err != nil || magic != blobMagic {
		return fmt.Errorf("%w: bad magic", ErrCorruptBlob)
	}
	if v := r.u8(); r.err != nil || v != blobVersion {
		return fmt.Errorf("%w: unsupported version", ErrCorruptBlob)
	}

	count := r.u32()
	if r.err != nil || count < 3 || count > maxLayers {
		return fmt.Errorf("%w: layer count %d", ErrCorruptBlob, count)
	}
	sizes := make([]int, count)
	for i := range sizes {
		s := r.u32()
		if r.err != nil || s == 0 || s > maxLayerSize {
			return fmt.Errorf("%w: layer %d size %d", ErrCorruptBlob, i, s)
		}
		sizes[i] = int(s)
	}

	var want int
	for i := 1; i < len(sizes); i++ {
		want += sizes[i] * (4 + 8*sizes[i-1])
	}
	if r.remaining() != want {
		return fmt.Errorf("%w: expected %d payload bytes, got %d", ErrCorruptBlob, want, r.remaining())
	}

	layers := make([][]Neuron, len(sizes)-1)
	for li := range layers {
		prev := sizes[li]
		layer := make([]Neuron, sizes[li+1])
		for i := range layer {
			bias := math.Float32frombits(r.u32())
			conns := make([]Connection, prev)
			for j := range conns {
				src := r.u32()
				if src >= uint32(prev) {
					return fmt.Errorf("%w: connection source %d out of range", ErrCorruptBlob, src)
				}
				conns[j] = Connection{Source: int(src), Weight: math.Float32frombits(r.u32())}
			}
			layer[i] = Neuron{Bias: bias, Connections: conns}
		}
		layers[li] = layer
	}

	n.inputs = sizes[0]
	n.layers = layers
	n.allocValues()
	return nil
}

// Decode is a convenience wrapper around UnmarshalBinary.
func Decode(data []byte) (*Network, error) {
	n := &Network{}
	if err := n.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return n, nil
}

type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) remaining() int { return len(r.data) - r.off }

func (r *reader) bytes(k int) []byte {
	if r.err != nil || r.remaining() < k {
		r.err = ErrCorruptBlob
		return nil
	}
	b := r.data[r.off : r.off+k]
	r.off += k
	return b
}

func (r *reader) u8() uint8 {
	b := r.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// WriteFile saves the network's binary encoding to path.
func (n *Network) WriteFile(path string) error {
	data, err := n.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing network: %w", err)
	}
	return nil
}

// ReadFile loads a network written by WriteFile.
func ReadFile(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading network: %w", err)
	}
	n, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return n, nil
}
