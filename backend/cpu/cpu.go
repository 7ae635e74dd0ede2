// Copyright 2026 GridCV Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go host backend for the decode pipeline.
//
// Two variants exist: New distributes launch groups across goroutines;
// NewSequential runs every worker in index order on the calling goroutine
// and serves as the reference oracle for the parallel paths.
package cpu

import (
	internalcpu "github.com/gridcv/gridcv/internal/backend/cpu"
	"github.com/gridcv/gridcv/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a CPU backend that runs launch groups on multiple goroutines.
//
// Example:
//
//	backend := cpu.New()
//	result, err := postprocess.Execute[float32, int32](decoder, backend, cls, reg, 32)
func New() *Backend {
	return internalcpu.New()
}

// NewSequential creates the single-goroutine reference backend.
func NewSequential() *Backend {
	return internalcpu.NewSequential()
}
