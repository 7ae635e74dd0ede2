package cpu

import (
	"math"
	"math/rand"
	"testing"

	"github.com/gridcv/gridcv/internal/launch"
	"github.com/gridcv/gridcv/internal/tensor"
)

func randomRaw(t *testing.T, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	data := raw.AsFloat32()
	for i := range data {
		data[i] = rng.Float32()
	}
	return raw
}

func TestSigmoidMatchesMath(t *testing.T) {
	b := NewSequential()

	in, err := tensor.NewRaw(tensor.Shape{5}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	copy(in.AsFloat32(), []float32{-2, -1, 0, 1, 2})

	out, err := b.Sigmoid(in, launch.Grid1D(5, 1))
	if err != nil {
		t.Fatalf("Sigmoid failed: %v", err)
	}

	for i, x := range in.AsFloat32() {
		want := 1 / (1 + math.Exp(-float64(x)))
		if diff := math.Abs(float64(out.AsFloat32()[i]) - want); diff > 1e-6 {
			t.Errorf("sigmoid(%v) = %v, want %v", x, out.AsFloat32()[i], want)
		}
	}
}

func TestSigmoidRejectsIntDType(t *testing.T) {
	b := New()
	in, err := tensor.NewRaw(tensor.Shape{4}, tensor.Int32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	if _, err := b.Sigmoid(in, launch.Grid1D(4, 1)); err == nil {
		t.Fatal("Sigmoid accepted int32 input")
	}
}

func TestArgmaxChannelKnownInput(t *testing.T) {
	b := NewSequential()

	// [1, 3, 1, 2]
	in, err := tensor.NewRaw(tensor.Shape{1, 3, 1, 2}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	copy(in.AsFloat32(), []float32{
		0.1, 0.9,
		0.8, 0.2,
		0.3, 0.4,
	})

	score, index, err := b.ArgmaxChannel(in, tensor.Int32, launch.Grid1D(2, 1))
	if err != nil {
		t.Fatalf("ArgmaxChannel failed: %v", err)
	}

	if !score.Shape().Equal(tensor.Shape{1, 1, 2}) {
		t.Errorf("score shape = %v, want [1 1 2]", score.Shape())
	}
	if got := index.AsInt32(); got[0] != 1 || got[1] != 0 {
		t.Errorf("indices = %v, want [1 0]", got)
	}
	if got := score.AsFloat32(); got[0] != 0.8 || got[1] != 0.9 {
		t.Errorf("scores = %v, want [0.8 0.9]", got)
	}
}

func TestArgmaxChannelRejectsWrongRank(t *testing.T) {
	b := New()
	in := randomRaw(t, tensor.Shape{3, 4})
	if _, _, err := b.ArgmaxChannel(in, tensor.Int32, launch.Grid1D(12, 1)); err == nil {
		t.Fatal("ArgmaxChannel accepted rank-2 input")
	}
}

func TestDecodeBoxesRejectsWrongChannelCount(t *testing.T) {
	b := New()
	in := randomRaw(t, tensor.Shape{1, 3, 2, 2})
	p := tensor.BoxParams{Stride: 32, ImageWidth: 64, ImageHeight: 64}
	if _, err := b.DecodeBoxes(in, p, launch.Grid1D(4, 1)); err == nil {
		t.Fatal("DecodeBoxes accepted a 3-channel regression tensor")
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	seq := NewSequential()
	par := New()

	shape := tensor.Shape{1, 16, 20, 20}
	in := randomRaw(t, shape)
	total := shape.NumElements()

	for _, groupSize := range []int{1, 32, 256} {
		grid := launch.Grid1D(total, groupSize)

		outSeq, err := seq.Sigmoid(in, grid)
		if err != nil {
			t.Fatalf("sequential Sigmoid failed: %v", err)
		}
		outPar, err := par.Sigmoid(in, grid)
		if err != nil {
			t.Fatalf("parallel Sigmoid failed: %v", err)
		}

		s, p := outSeq.AsFloat32(), outPar.AsFloat32()
		for i := range s {
			if s[i] != p[i] {
				t.Fatalf("groupSize %d: mismatch at %d: %v vs %v", groupSize, i, s[i], p[i])
			}
		}
	}
}

func TestParallelArgmaxMatchesSequential(t *testing.T) {
	seq := NewSequential()
	par := New()

	shape := tensor.Shape{1, 8, 20, 20}
	in := randomRaw(t, shape)
	grid := launch.Grid1D(400, 32)

	scoreSeq, indexSeq, err := seq.ArgmaxChannel(in, tensor.Int32, grid)
	if err != nil {
		t.Fatalf("sequential ArgmaxChannel failed: %v", err)
	}
	scorePar, indexPar, err := par.ArgmaxChannel(in, tensor.Int32, grid)
	if err != nil {
		t.Fatalf("parallel ArgmaxChannel failed: %v", err)
	}

	ss, sp := scoreSeq.AsFloat32(), scorePar.AsFloat32()
	is, ip := indexSeq.AsInt32(), indexPar.AsInt32()
	for i := range ss {
		if ss[i] != sp[i] || is[i] != ip[i] {
			t.Fatalf("mismatch at %d: (%v, %d) vs (%v, %d)", i, ss[i], is[i], sp[i], ip[i])
		}
	}
}

func TestBackendMetadata(t *testing.T) {
	if New().Device() != tensor.CPU {
		t.Error("Device() != CPU")
	}
	if New().Name() == NewSequential().Name() {
		t.Error("parallel and sequential backends share a name")
	}
}
