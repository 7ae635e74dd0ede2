// Package postprocess decodes the raw dense output of a single-stage
// detector into per-location scores, class indices and normalized boxes.
package postprocess

import (
	"errors"
	"fmt"

	"github.com/gridcv/gridcv/internal/launch"
	"github.com/gridcv/gridcv/internal/tensor"
)

var (
	// ErrInvalidInputShape indicates a classification or regression tensor
	// whose rank or dimensions do not fit the dense detection grid layout.
	// It is raised before any allocation happens.
	ErrInvalidInputShape = errors.New("invalid input shape")

	// ErrLaunch wraps a kernel dispatch failure from the backend.
	ErrLaunch = errors.New("kernel dispatch failed")

	// ErrConfig indicates an invalid decoder configuration.
	ErrConfig = errors.New("invalid decoder configuration")
)

// Config builds a Decoder. Zero value is not useful; start from
// DefaultConfig and chain the With* setters.
type Config struct {
	width     int
	height    int
	groupSize int
}

// DefaultConfig returns the decoder defaults: a 640×640 target image and
// launch groups of one worker.
func DefaultConfig() Config {
	return Config{
		width:     640,
		height:    640,
		groupSize: 1,
	}
}

// WithShape sets the target image size in pixels.
func (c Config) WithShape(width, height int) Config {
	c.width = width
	c.height = height
	return c
}

// WithGroupSize sets the number of logical workers per launch group.
func (c Config) WithGroupSize(groupSize int) Config {
	c.groupSize = groupSize
	return c
}

// Build validates the configuration and returns a Decoder.
func (c Config) Build() (*Decoder, error) {
	if c.width <= 0 || c.height <= 0 {
		return nil, fmt.Errorf("%w: image size %dx%d", ErrConfig, c.width, c.height)
	}
	if c.groupSize < 1 {
		return nil, fmt.Errorf("%w: group size %d", ErrConfig, c.groupSize)
	}
	return &Decoder{
		width:     c.width,
		height:    c.height,
		groupSize: c.groupSize,
	}, nil
}

// Decoder runs the three-stage decode pipeline. It carries no state across
// calls; every Execute allocates fresh buffers.
type Decoder struct {
	width     int
	height    int
	groupSize int
}

// Result bundles the three decode outputs.
type Result[F tensor.Float, I tensor.Int] struct {
	Score *tensor.Buffer[F] // [N, H, W], best post-sigmoid class probability
	Index *tensor.Buffer[I] // [N, H, W], argmax class id
	BBox  *tensor.Buffer[F] // [N, 4, H, W], (xmin, ymin, xmax, ymax) in [0, 1]
}

// Execute decodes one detector output.
//
// cls holds raw pre-activation logits of shape [N, numClasses, H, W]; reg
// holds grid-relative regression values of shape [N, 4, H, W] in channel
// order (cx, cy, cw, ch). stride is the pixel size of one grid cell.
//
// The sigmoid stage completes before classification starts; box decode has
// no data dependency on either but completes before Execute returns. A
// failed dispatch aborts the pipeline without yielding partial results.
func Execute[F tensor.Float, I tensor.Int](d *Decoder, b tensor.Backend, cls, reg *tensor.Buffer[F], stride F) (*Result[F, I], error) {
	clsShape := cls.Shape()
	if len(clsShape) != 4 {
		return nil, fmt.Errorf("%w: classification tensor must be [N, numClasses, H, W], got %v",
			ErrInvalidInputShape, clsShape)
	}
	n, _, h, w := clsShape[0], clsShape[1], clsShape[2], clsShape[3]

	regShape := reg.Shape()
	if len(regShape) != 4 || regShape[1] != 4 {
		return nil, fmt.Errorf("%w: regression tensor must be [N, 4, H, W], got %v",
			ErrInvalidInputShape, regShape)
	}
	if regShape[0] != n || regShape[2] != h || regShape[3] != w {
		return nil, fmt.Errorf("%w: regression tensor %v does not match classification grid %v",
			ErrInvalidInputShape, regShape, clsShape)
	}

	clsSigmoid, err := b.Sigmoid(cls.Raw(), launch.Grid1D(clsShape.NumElements(), d.groupSize))
	if err != nil {
		return nil, fmt.Errorf("%w: sigmoid: %w", ErrLaunch, err)
	}
	defer clsSigmoid.Release()

	grid := launch.Grid1D(n*h*w, d.groupSize)

	score, index, err := b.ArgmaxChannel(clsSigmoid, tensor.TypeOf[I](), grid)
	if err != nil {
		return nil, fmt.Errorf("%w: classify: %w", ErrLaunch, err)
	}

	bbox, err := b.DecodeBoxes(reg.Raw(), tensor.BoxParams{
		Stride:      float64(stride),
		ImageWidth:  float64(d.width),
		ImageHeight: float64(d.height),
	}, grid)
	if err != nil {
		score.Release()
		index.Release()
		return nil, fmt.Errorf("%w: decode-boxes: %w", ErrLaunch, err)
	}

	return &Result[F, I]{
		Score: tensor.Wrap[F](score),
		Index: tensor.Wrap[I](index),
		BBox:  tensor.Wrap[F](bbox),
	}, nil
}
