// Copyright 2026 GridCV Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for GPU-accelerated decoding.
//
// The backend dispatches the decode kernels as WGSL compute shaders through
// go-webgpu. Only float32 tensors (with int32 class indices) are supported.
//
// Example:
//
//	gpu, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gpu.Release()
//
//	result, err := postprocess.Execute[float32, int32](decoder, gpu, cls, reg, 32)
package webgpu

import (
	internalwebgpu "github.com/gridcv/gridcv/internal/backend/webgpu"
	"github.com/gridcv/gridcv/tensor"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new WebGPU backend.
//
// This initializes the WebGPU device and returns a backend ready for
// dispatch. Call Release when done to free GPU resources. Returns an error
// if WebGPU initialization fails (e.g. no compatible GPU).
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
