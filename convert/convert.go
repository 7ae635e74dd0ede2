// Copyright 2026 GridCV Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package convert carries image data in and out of the decode pipeline.
//
// ImageTensor is a plain data carrier in HWC (height, width, channels)
// layout with values normalized to [0, 1]. The pipeline itself never
// interprets pixels; it only reads shapes.
package convert

import (
	"fmt"

	"github.com/gridcv/gridcv/tensor"
)

// ImageTensor represents an image as a flat pixel buffer plus dimensions.
type ImageTensor struct {
	Width    int
	Height   int
	Channels int
	Data     []float32
}

// NewImageTensor creates an ImageTensor from raw data.
// Fails when the data length does not match the dimensions.
func NewImageTensor(width, height, channels int, data []float32) (*ImageTensor, error) {
	if width <= 0 || height <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: image dimensions %dx%dx%d", tensor.ErrInvalidShape, width, height, channels)
	}
	if len(data) != width*height*channels {
		return nil, fmt.Errorf("%w: data length %d does not match %dx%dx%d",
			tensor.ErrInvalidData, len(data), width, height, channels)
	}
	return &ImageTensor{
		Width:    width,
		Height:   height,
		Channels: channels,
		Data:     data,
	}, nil
}

// ToBuffer copies the image into a device buffer of shape [H, W, C].
func (img *ImageTensor) ToBuffer(device tensor.Device) (*tensor.Buffer[float32], error) {
	return tensor.FromSlice(img.Data, tensor.Shape{img.Height, img.Width, img.Channels}, device)
}

// FromBuffer reads an [H, W, C] buffer back into an ImageTensor,
// consuming the buffer.
func FromBuffer(b *tensor.Buffer[float32]) (*ImageTensor, error) {
	shape := b.Shape()
	if len(shape) != 3 {
		return nil, fmt.Errorf("%w: expected [H, W, C] buffer, got %v", tensor.ErrInvalidShape, shape)
	}
	h, w, c := shape[0], shape[1], shape[2]

	data, err := b.IntoSlice()
	if err != nil {
		return nil, err
	}
	return &ImageTensor{
		Width:    w,
		Height:   h,
		Channels: c,
		Data:     data,
	}, nil
}
