// Copyright 2026 GridCV Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package postprocess provides the public API for dense-detection decoding.
//
// The pipeline turns a single-stage detector's raw output — classification
// logits [N, numClasses, H, W] and box regression [N, 4, H, W] — into
// per-location best-class scores, class indices and normalized boxes:
//
//	decoder, err := postprocess.DefaultConfig().
//	    WithShape(640, 640).
//	    WithGroupSize(256).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := postprocess.Execute[float32, int32](decoder, cpu.New(), cls, reg, 32)
package postprocess

import (
	"github.com/gridcv/gridcv/internal/postprocess"
	"github.com/gridcv/gridcv/tensor"
)

// Config builds a Decoder; start from DefaultConfig and chain the setters.
type Config = postprocess.Config

// Decoder runs the three-stage decode pipeline.
type Decoder = postprocess.Decoder

// Result bundles the three decode outputs.
type Result[F tensor.Float, I tensor.Int] = postprocess.Result[F, I]

// Decode errors.
var (
	ErrInvalidInputShape = postprocess.ErrInvalidInputShape
	ErrLaunch            = postprocess.ErrLaunch
	ErrConfig            = postprocess.ErrConfig
)

// DefaultConfig returns the decoder defaults: a 640×640 target image and
// launch groups of one worker.
func DefaultConfig() Config {
	return postprocess.DefaultConfig()
}

// Execute decodes one detector output on the given backend. See the
// package example above; F is the float element type of the inputs, I the
// integer type of the class-index output.
func Execute[F tensor.Float, I tensor.Int](d *Decoder, b tensor.Backend, cls, reg *tensor.Buffer[F], stride F) (*Result[F, I], error) {
	return postprocess.Execute[F, I](d, b, cls, reg, stride)
}
