package tensor

import "github.com/gridcv/gridcv/internal/launch"

// BoxParams carries the scalar inputs of the box-decode operation: the
// detection stride (grid-cell size in pixels) and the target image size.
type BoxParams struct {
	Stride      float64
	ImageWidth  float64
	ImageHeight float64
}

// Backend defines the interface that all compute backends must implement.
// A backend realizes the capability set {allocate, copyIn, copyOut,
// dispatch}: allocation and host transfer live on Buffer/RawTensor, and
// each operation below is a dispatch over the supplied launch grid.
//
// Implementations:
//   - CPU: pure Go, sequential (reference oracle) or goroutine-parallel
//   - WebGPU: WGSL compute shaders via go-webgpu
//
// Every operation allocates its own output tensors and either returns
// fully-written outputs or an error, never a partial result.
type Backend interface {
	// Sigmoid applies the logistic function elementwise, into a fresh
	// tensor of identical shape and strides.
	Sigmoid(x *RawTensor, grid launch.Grid) (*RawTensor, error)

	// ArgmaxChannel reduces a [N, C, H, W] tensor across the class axis,
	// producing per-location best score [N, H, W] and best channel index
	// [N, H, W] of the given integer type. Ties resolve to the lowest
	// channel. Arbitrary stride layouts are honored.
	ArgmaxChannel(x *RawTensor, indexType DataType, grid launch.Grid) (score, index *RawTensor, err error)

	// DecodeBoxes transforms a [N, 4, H, W] regression tensor
	// (cx, cy, cw, ch) into normalized (xmin, ymin, xmax, ymax) boxes
	// of the same shape, clamped to [0, 1].
	DecodeBoxes(reg *RawTensor, p BoxParams, grid launch.Grid) (*RawTensor, error)

	// Metadata
	Name() string
	Device() Device
}
