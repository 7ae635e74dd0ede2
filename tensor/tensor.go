// Copyright 2026 GridCV Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the GridCV buffer types.
//
// The package defines the storage primitive of the decode pipeline:
//   - Buffer[T]: typed, reference-counted device buffer
//   - RawTensor: low-level untyped buffer for backend implementations
//   - Backend: interface for device-specific compute implementations
//   - Shape, DataType, Device: core type definitions
//
// Example:
//
//	cls, err := tensor.FromSlice(logits, tensor.Shape{1, 8, 20, 20}, tensor.CPU)
//	if err != nil {
//	    log.Fatal(err)
//	}
package tensor

import (
	"github.com/gridcv/gridcv/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for buffer element types.
// Supported types: float32, float64, int32, int64, uint8.
type DType = tensor.DType

// Float is the floating-point subset of DType.
type Float = tensor.Float

// Int is the integer subset of DType.
type Int = tensor.Int

// DataType represents the underlying data type of a buffer.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
)

// Device represents the device where buffer data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a buffer.
// Example: Shape{1, 8, 20, 20} is a [N, C, H, W] detection grid.
type Shape = tensor.Shape

// RawTensor is the low-level buffer representation used by backends.
type RawTensor = tensor.RawTensor

// Buffer is a typed, reference-counted device buffer.
type Buffer[T DType] = tensor.Buffer[T]

// View is a non-owning kernel-launch descriptor.
type View[T DType] = tensor.View[T]

// Backend is the compute-backend interface; see backend.go.
type Backend = tensor.Backend

// BoxParams carries the scalar inputs of the box-decode operation.
type BoxParams = tensor.BoxParams

// Buffer contract errors.
var (
	ErrCreation     = tensor.ErrCreation
	ErrInvalidShape = tensor.ErrInvalidShape
	ErrInvalidData  = tensor.ErrInvalidData
	ErrRuntime      = tensor.ErrRuntime
)

// FromSlice creates a buffer from a host slice. The slice is copied into
// the buffer's allocation.
func FromSlice[T DType](data []T, shape Shape, device Device) (*Buffer[T], error) {
	return tensor.FromSlice(data, shape, device)
}

// WithShape creates an uninitialized buffer with compact row-major strides.
func WithShape[T DType](shape Shape, device Device) (*Buffer[T], error) {
	return tensor.WithShape[T](shape, device)
}

// NewRaw creates a new RawTensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// TypeOf returns the runtime DataType for a generic element type.
func TypeOf[T DType]() DataType {
	return tensor.TypeOf[T]()
}
