// Package kernel holds the per-worker decode kernels.
//
// Each kernel is a free function of one logical worker index plus strided
// views; the backends map the index range onto whichever parallelism they
// offer. Kernels ignore indices past the output length, so launch grids may
// overshoot. Workers write disjoint output slots and never synchronize.
package kernel

import (
	"math"

	"github.com/chewxy/math32"

	"github.com/gridcv/gridcv/internal/tensor"
)

// expE computes e^x without leaving the element type: the float32 path
// stays in float32 so results match a float32 reference exactly.
func expE[F tensor.Float](x F) F {
	switch v := any(x).(type) {
	case float32:
		return F(math32.Exp(v))
	case float64:
		return F(math.Exp(v))
	default:
		panic("unsupported float type")
	}
}

func clamp[F tensor.Float](v, lo, hi F) F {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sigmoid computes out[idx] = 1 / (1 + e^(-in[idx])).
// Pure elementwise function; no dependency between elements.
func Sigmoid[F tensor.Float](idx int, in, out tensor.View[F]) {
	if idx >= out.Len() {
		return
	}
	out.Data[idx] = 1 / (1 + expE(-in.Data[idx]))
}

// Classify scans the class axis of a [N, C, H, W] tensor at one output
// location and writes the best value and its channel. The comparison is
// strict greater-than, so the lowest-indexed channel wins ties. Addressing
// goes through the view's actual strides; the layout may be non-compact.
func Classify[F tensor.Float, I tensor.Int](idx int, cls tensor.View[F], score tensor.View[F], index tensor.View[I]) {
	nhw := score.Len()
	if idx >= nhw {
		return
	}

	cDim := cls.Dim(1)
	hDim := cls.Dim(2)
	wDim := cls.Dim(3)

	// idx = n*H*W + h*W + w
	hw := hDim * wDim
	nIdx := idx / hw
	rem := idx % hw
	hIdx := rem / wDim
	wIdx := rem % wDim

	base := nIdx*cls.Stride(0) + hIdx*cls.Stride(2) + wIdx*cls.Stride(3)
	strideC := cls.Stride(1)

	bestC := 0
	bestVal := cls.Data[base]
	for c := 1; c < cDim; c++ {
		v := cls.Data[base+c*strideC]
		if v > bestVal {
			bestVal = v
			bestC = c
		}
	}

	score.Data[idx] = bestVal
	index.Data[idx] = I(bestC)
}

// DecodeBox reconstructs one location's bounding box from the regression
// channels (cx, cy, cw, ch): grid-cell center plus offsets, scaled by the
// detection stride, clamped to the image, then normalized to [0, 1]. The
// four outputs land in channel-major planes (xmin, ymin, xmax, ymax), each
// of size N*H*W.
func DecodeBox[F tensor.Float](idx int, reg, bbox tensor.View[F], stride, imageWidth, imageHeight F) {
	nhw := bbox.Len() / 4 // four coordinates per location
	if idx >= nhw {
		return
	}

	hDim := reg.Dim(2)
	wDim := reg.Dim(3)

	// idx = n*H*W + h*W + w
	hw := hDim * wDim
	nIdx := idx / hw
	rem := idx % hw
	hIdx := rem / wDim
	wIdx := rem % wDim

	base := nIdx*reg.Stride(0) + hIdx*reg.Stride(2) + wIdx*reg.Stride(3)
	strideC := reg.Stride(1)

	cx := reg.Data[base]
	cy := reg.Data[base+strideC]
	cw := reg.Data[base+2*strideC]
	ch := reg.Data[base+3*strideC]

	gridX := F(wIdx) + 0.5
	gridY := F(hIdx) + 0.5

	xmin := clamp((gridX-cx)*stride, 0, imageWidth)
	ymin := clamp((gridY-cy)*stride, 0, imageHeight)
	xmax := clamp((gridX+cw)*stride, 0, imageWidth)
	ymax := clamp((gridY+ch)*stride, 0, imageHeight)

	bbox.Data[idx] = clamp(xmin/imageWidth, 0, 1)
	bbox.Data[idx+nhw] = clamp(ymin/imageHeight, 0, 1)
	bbox.Data[idx+2*nhw] = clamp(xmax/imageWidth, 0, 1)
	bbox.Data[idx+3*nhw] = clamp(ymax/imageHeight, 0, 1)
}
