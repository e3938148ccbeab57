package neural

import (
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func newTestNetwork(t *testing.T, seed int64) *Network {
	t.Helper()
	n, err := New(5, []int{4, 3}, 4, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return n
}

func sampleInputs(rng *rand.Rand) []float32 {
	in := make([]float32, 5)
	for i := range in {
		in[i] = rng.Float32() * 200
	}
	return in
}

func TestNewStructure(t *testing.T) {
	n := newTestNetwork(t, 1)

	sizes := n.Sizes()
	want := []int{5, 4, 3, 4}
	if len(sizes) != len(want) {
		t.Fatalf("Sizes() = %v, want %v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("Sizes() = %v, want %v", sizes, want)
		}
	}
	if got, want := n.Params(), 4*(5+1)+3*(4+1)+4*(3+1); got != want {
		t.Errorf("Params() = %d, want %d", got, want)
	}

	for li, layer := range n.Layers() {
		prev := sizes[li]
		for i, neuron := range layer {
			if len(neuron.Connections) != prev {
				t.Fatalf("layer %d neuron %d has %d connections, want %d", li, i, len(neuron.Connections), prev)
			}
			if neuron.Bias < -1 || neuron.Bias > 1 {
				t.Errorf("bias %v outside [-1, 1]", neuron.Bias)
			}
			for j, c := range neuron.Connections {
				if c.Source != j {
					t.Errorf("connection %d points at %d", j, c.Source)
				}
				if c.Weight < -1 || c.Weight > 1 {
					t.Errorf("weight %v outside [-1, 1]", c.Weight)
				}
			}
		}
	}
}

func TestNewRejectsDegenerate(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tests := []struct {
		name    string
		inputs  int
		hidden  []int
		outputs int
	}{
		{"no inputs", 0, []int{4}, 4},
		{"no outputs", 5, []int{4}, 0},
		{"no hidden layers", 5, nil, 4},
		{"empty hidden layer", 5, []int{4, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.inputs, tt.hidden, tt.outputs, rng)
			if !errors.Is(err, ErrDegenerateNetwork) {
				t.Errorf("err = %v, want ErrDegenerateNetwork", err)
			}
		})
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	n := newTestNetwork(t, 2)
	rng := rand.New(rand.NewSource(3))
	a := sampleInputs(rng)
	b := sampleInputs(rng)

	first := n.Evaluate(a)
	_ = n.Evaluate(b)
	second := n.Evaluate(a)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("output %d changed between calls: %v vs %v", i, first[i], second[i])
		}
		if first[i] < 0 || first[i] > 1 {
			t.Errorf("output %d = %v outside [0, 1]", i, first[i])
		}
	}
}

func TestTraceMatchesEvaluate(t *testing.T) {
	n := newTestNetwork(t, 9)
	in := sampleInputs(rand.New(rand.NewSource(9)))

	trace := n.Trace(in)
	if len(trace) != 4 {
		t.Fatalf("trace has %d layers, want 4", len(trace))
	}
	for i, v := range in {
		if trace[0][i] != v {
			t.Fatalf("trace input %d = %v, want %v", i, trace[0][i], v)
		}
	}
	out := n.Evaluate(in)
	for i, v := range out {
		if trace[3][i] != v {
			t.Errorf("trace output %d = %v, Evaluate = %v", i, trace[3][i], v)
		}
	}
	trace[1][0] = 42
	if again := n.Trace(in); again[1][0] == 42 {
		t.Error("Trace returned the internal value cache")
	}
}

func TestEvaluateClampsNonFinite(t *testing.T) {
	n := newTestNetwork(t, 4)
	in := []float32{float32(math.Inf(1)), float32(math.Inf(-1)), 0, 1, float32(math.NaN())}
	for i, v := range n.Evaluate(in) {
		if math.IsNaN(float64(v)) || v < 0 || v > 1 {
			t.Errorf("output %d = %v, want a value in [0, 1]", i, v)
		}
	}
}

func TestEvaluatePanicsOnWrongInputCount(t *testing.T) {
	n := newTestNetwork(t, 5)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for mismatched input count")
		}
	}()
	n.Evaluate(make([]float32, 3))
}

func TestCloneWithMutationZeroScale(t *testing.T) {
	n := newTestNetwork(t, 6)
	c := n.CloneWithMutation(rand.New(rand.NewSource(7)), 0)

	rng := rand.New(rand.NewSource(8))
	for k := 0; k < 20; k++ {
		in := sampleInputs(rng)
		a, b := n.Evaluate(in), c.Evaluate(in)
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("clone output %d = %v, source %v", i, b[i], a[i])
			}
		}
	}

	c.Layers()[0][0].Connections[0].Weight = 99
	if n.Layers()[0][0].Connections[0].Weight == 99 {
		t.Error("clone shares connection storage with its source")
	}
}

func TestCloneWithMutationChangesWeights(t *testing.T) {
	n := newTestNetwork(t, 9)
	c := n.CloneWithMutation(rand.New(rand.NewSource(10)), 2.5)

	src, dst := n.Layers(), c.Layers()
	if len(src) != len(dst) {
		t.Fatalf("layer count changed: %d -> %d", len(src), len(dst))
	}
	changed := 0
	for li := range src {
		if len(src[li]) != len(dst[li]) {
			t.Fatalf("layer %d width changed", li)
		}
		for i := range src[li] {
			if src[li][i].Bias != dst[li][i].Bias {
				changed++
			}
			if d := math.Abs(float64(dst[li][i].Bias - src[li][i].Bias)); d > 2.5 {
				t.Errorf("bias delta %v exceeds scale", d)
			}
			for j := range src[li][i].Connections {
				s, d := src[li][i].Connections[j], dst[li][i].Connections[j]
				if s.Source != d.Source {
					t.Fatalf("topology changed at layer %d neuron %d connection %d", li, i, j)
				}
				if s.Weight != d.Weight {
					changed++
				}
			}
		}
	}
	if changed < n.Params()*9/10 {
		t.Errorf("only %d of %d values changed", changed, n.Params())
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	n := newTestNetwork(t, 11)
	blob, err := n.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	restored, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	in := []float32{12, 40.5, 3, 800, 0}
	a, b := n.Evaluate(in), restored.Evaluate(in)
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			t.Errorf("output %d differs after round trip: %v vs %v", i, a[i], b[i])
		}
	}

	again, _ := restored.MarshalBinary()
	if string(again) != string(blob) {
		t.Error("re-encoding a decoded network changed the blob")
	}
}

func TestUnmarshalRejectsCorrupt(t *testing.T) {
	n := newTestNetwork(t, 12)
	blob, _ := n.MarshalBinary()

	badMagic := append([]byte{}, blob...)
	badMagic[0] = 'X'
	badSource := append([]byte{}, blob...)
	// first connection source of the first neuron sits after magic, version, count and sizes
	off := 4 + 1 + 4 + 4*4 + 4
	badSource[off] = 200

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", badMagic},
		{"truncated", blob[:len(blob)-3]},
		{"trailing bytes", append(append([]byte{}, blob...), 0)},
		{"source out of range", badSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.data); !errors.Is(err, ErrCorruptBlob) {
				t.Errorf("err = %v, want ErrCorruptBlob", err)
			}
		})
	}
}

func BenchmarkEvaluate(b *testing.B) {
	n, _ := New(5, []int{4}, 4, rand.New(rand.NewSource(42)))
	in := []float32{10, 20, 30, 40, 50}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n.Evaluate(in)
	}
}

func TestFileRoundTrip(t *testing.T) {
	n := newTestNetwork(t, 15)
	dir := t.TempDir()
	path := filepath.Join(dir, "champion.evnn")
	if err := n.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	loaded, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	in := []float32{5, 10, 15, 20, 25}
	a, b := n.Evaluate(in), loaded.Evaluate(in)
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			t.Errorf("output %d = %v after reload, want %v", i, b[i], a[i])
		}
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.evnn")); err == nil {
		t.Error("expected error for a missing file")
	}
	junk := filepath.Join(dir, "junk.evnn")
	if err := os.WriteFile(junk, []byte("not a network"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(junk); !errors.Is(err, ErrCorruptBlob) {
		t.Errorf("ReadFile(junk) error = %v, want ErrCorruptBlob", err)
	}
}
