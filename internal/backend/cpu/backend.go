// Package cpu implements the host backend: the decode kernels dispatched
// over goroutine groups, or sequentially for the reference oracle.
package cpu

import (
	"fmt"

	"github.com/gridcv/gridcv/internal/kernel"
	"github.com/gridcv/gridcv/internal/launch"
	"github.com/gridcv/gridcv/internal/tensor"
)

// CPUBackend implements the decode operations in pure Go.
type CPUBackend struct {
	device tensor.Device
	cfg    launch.Config
}

// New creates a CPU backend that distributes launch groups across
// goroutines.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		cfg:    launch.DefaultConfig(),
	}
}

// NewSequential creates a CPU backend that executes every worker on the
// calling goroutine in index order. This variant is the reference oracle
// the parallel paths are verified against.
func NewSequential() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		cfg:    launch.Sequential(),
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	if !cpu.cfg.Parallel {
		return "CPU (sequential)"
	}
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Sigmoid applies the logistic function elementwise into a fresh tensor
// with the same shape and strides as x.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor, grid launch.Grid) (*tensor.RawTensor, error) {
	out, err := tensor.NewRawLike(x)
	if err != nil {
		return nil, fmt.Errorf("cpu: sigmoid: %w", err)
	}

	switch x.DType() {
	case tensor.Float32:
		err = runSigmoid[float32](cpu.cfg, grid, x, out)
	case tensor.Float64:
		err = runSigmoid[float64](cpu.cfg, grid, x, out)
	default:
		return nil, fmt.Errorf("cpu: sigmoid: unsupported dtype %s", x.DType())
	}
	if err != nil {
		return nil, fmt.Errorf("cpu: sigmoid: %w", err)
	}
	return out, nil
}

// ArgmaxChannel reduces the class axis of a [N, C, H, W] tensor to a
// per-location (score, index) pair. Ties resolve to the lowest channel.
func (cpu *CPUBackend) ArgmaxChannel(x *tensor.RawTensor, indexType tensor.DataType, grid launch.Grid) (*tensor.RawTensor, *tensor.RawTensor, error) {
	shape := x.Shape()
	if len(shape) != 4 {
		return nil, nil, fmt.Errorf("cpu: argmax-channel: expected rank 4, got shape %v", shape)
	}
	n, h, w := shape[0], shape[2], shape[3]

	score, err := tensor.NewRaw(tensor.Shape{n, h, w}, x.DType(), cpu.device)
	if err != nil {
		return nil, nil, fmt.Errorf("cpu: argmax-channel: %w", err)
	}
	index, err := tensor.NewRaw(tensor.Shape{n, h, w}, indexType, cpu.device)
	if err != nil {
		return nil, nil, fmt.Errorf("cpu: argmax-channel: %w", err)
	}

	switch x.DType() {
	case tensor.Float32:
		err = runClassifyIndexed[float32](cpu.cfg, grid, x, score, index, indexType)
	case tensor.Float64:
		err = runClassifyIndexed[float64](cpu.cfg, grid, x, score, index, indexType)
	default:
		return nil, nil, fmt.Errorf("cpu: argmax-channel: unsupported dtype %s", x.DType())
	}
	if err != nil {
		return nil, nil, fmt.Errorf("cpu: argmax-channel: %w", err)
	}
	return score, index, nil
}

// DecodeBoxes reconstructs normalized (xmin, ymin, xmax, ymax) boxes from a
// [N, 4, H, W] regression tensor.
func (cpu *CPUBackend) DecodeBoxes(reg *tensor.RawTensor, p tensor.BoxParams, grid launch.Grid) (*tensor.RawTensor, error) {
	shape := reg.Shape()
	if len(shape) != 4 || shape[1] != 4 {
		return nil, fmt.Errorf("cpu: decode-boxes: expected shape [N, 4, H, W], got %v", shape)
	}

	bbox, err := tensor.NewRaw(shape.Clone(), reg.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("cpu: decode-boxes: %w", err)
	}

	switch reg.DType() {
	case tensor.Float32:
		err = runDecodeBoxes[float32](cpu.cfg, grid, reg, bbox, p)
	case tensor.Float64:
		err = runDecodeBoxes[float64](cpu.cfg, grid, reg, bbox, p)
	default:
		return nil, fmt.Errorf("cpu: decode-boxes: unsupported dtype %s", reg.DType())
	}
	if err != nil {
		return nil, fmt.Errorf("cpu: decode-boxes: %w", err)
	}
	return bbox, nil
}

func runSigmoid[F tensor.Float](cfg launch.Config, grid launch.Grid, in, out *tensor.RawTensor) error {
	inView := tensor.ViewOf[F](in, 1)
	outView := tensor.ViewOf[F](out, 1)
	return launch.Run(grid, cfg, func(idx int) {
		kernel.Sigmoid(idx, inView, outView)
	})
}

func runClassifyIndexed[F tensor.Float](cfg launch.Config, grid launch.Grid, cls, score, index *tensor.RawTensor, indexType tensor.DataType) error {
	switch indexType {
	case tensor.Int32:
		return runClassify[F, int32](cfg, grid, cls, score, index)
	case tensor.Int64:
		return runClassify[F, int64](cfg, grid, cls, score, index)
	default:
		return fmt.Errorf("unsupported index dtype %s", indexType)
	}
}

func runClassify[F tensor.Float, I tensor.Int](cfg launch.Config, grid launch.Grid, cls, score, index *tensor.RawTensor) error {
	clsView := tensor.ViewOf[F](cls, 1)
	scoreView := tensor.ViewOf[F](score, 1)
	indexView := tensor.ViewOf[I](index, 1)
	return launch.Run(grid, cfg, func(idx int) {
		kernel.Classify(idx, clsView, scoreView, indexView)
	})
}

func runDecodeBoxes[F tensor.Float](cfg launch.Config, grid launch.Grid, reg, bbox *tensor.RawTensor, p tensor.BoxParams) error {
	regView := tensor.ViewOf[F](reg, 1)
	bboxView := tensor.ViewOf[F](bbox, 1)
	stride := F(p.Stride)
	width := F(p.ImageWidth)
	height := F(p.ImageHeight)
	return launch.Run(grid, cfg, func(idx int) {
		kernel.DecodeBox(idx, regView, bboxView, stride, width, height)
	})
}
