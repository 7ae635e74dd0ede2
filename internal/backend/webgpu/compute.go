package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/gridcv/gridcv/internal/launch"
	"github.com/gridcv/gridcv/internal/tensor"
)

// storageUsage is the usage set for pooled tensor buffers: bound as
// storage, uploadable via the queue, readable back through a staging copy.
const storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// acquireStorage takes a pooled storage buffer and optionally uploads data.
func (b *Backend) acquireStorage(size uint64, data []byte) *wgpu.Buffer {
	buffer := b.pool.Acquire(size, storageUsage)
	if data != nil {
		b.queue.WriteBuffer(buffer, 0, data)
	}
	return buffer
}

// createUniformBuffer creates a uniform buffer with proper alignment.
// Uniform buffers require 16-byte alignment for struct fields.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15 // Round up to 16-byte boundary

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// readBuffer reads data back from a GPU buffer to CPU memory. Blocks until
// all previously submitted work affecting the buffer has completed.
// Uses a staging buffer since storage buffers can't be mapped directly.
func (b *Backend) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	stagingBuffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer stagingBuffer.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	err := stagingBuffer.MapAsync(b.device, wgpu.MapModeRead, 0, size)
	if err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)

	stagingBuffer.Unmap()

	return result, nil
}

// dispatch runs one compute pass over the launch grid with the given
// bindings and waits for submission.
func (b *Backend) dispatch(pipeline *wgpu.ComputePipeline, entries []wgpu.BindGroupEntry, grid launch.Grid) error {
	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, entries)
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)

	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	//nolint:gosec // G115: group count is non-negative
	computePass.DispatchWorkgroups(uint32(grid.Groups), 1, 1)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)
	return nil
}

// pipelineFor returns the cached pipeline for a kernel at the grid's
// workgroup size, compiling the shader on first use.
func (b *Backend) pipelineFor(name, template string, grid launch.Grid) *wgpu.ComputePipeline {
	key := shaderKey(name, grid.GroupSize)
	shader := b.compileShader(key, shaderSource(template, grid.GroupSize))
	return b.getOrCreatePipeline(key, shader)
}

// Sigmoid applies the logistic function elementwise on the GPU.
func (b *Backend) Sigmoid(x *tensor.RawTensor, grid launch.Grid) (*tensor.RawTensor, error) {
	if x.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: sigmoid: only float32 is supported, got %s", x.DType())
	}

	pipeline := b.pipelineFor("sigmoid", sigmoidShader, grid)

	//nolint:gosec // G115: ByteSize() returns non-negative int
	size := uint64(x.ByteSize())
	bufferInput := b.acquireStorage(size, x.Data()[:x.ByteSize()])
	defer b.pool.Release(bufferInput, size, storageUsage)

	bufferOutput := b.acquireStorage(size, nil)
	defer b.pool.Release(bufferOutput, size, storageUsage)

	params := make([]byte, 16)
	//nolint:gosec // G115: NumElements() returns non-negative int
	binary.LittleEndian.PutUint32(params[0:4], uint32(x.NumElements()))
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	err := b.dispatch(pipeline, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferInput, 0, size),
		wgpu.BufferBindingEntry(1, bufferOutput, 0, size),
		wgpu.BufferBindingEntry(2, bufferParams, 0, 16),
	}, grid)
	if err != nil {
		return nil, fmt.Errorf("webgpu: sigmoid: %w", err)
	}

	resultData, err := b.readBuffer(bufferOutput, size)
	if err != nil {
		return nil, fmt.Errorf("webgpu: sigmoid: %w", err)
	}

	out, err := tensor.NewRawLike(x)
	if err != nil {
		return nil, fmt.Errorf("webgpu: sigmoid: %w", err)
	}
	copy(out.Data(), resultData)
	return out, nil
}

// ArgmaxChannel reduces the class axis of a [N, C, H, W] tensor on the GPU.
// The class index is produced as int32; other index types are rejected.
func (b *Backend) ArgmaxChannel(x *tensor.RawTensor, indexType tensor.DataType, grid launch.Grid) (*tensor.RawTensor, *tensor.RawTensor, error) {
	if x.DType() != tensor.Float32 {
		return nil, nil, fmt.Errorf("webgpu: argmax-channel: only float32 is supported, got %s", x.DType())
	}
	if indexType != tensor.Int32 {
		return nil, nil, fmt.Errorf("webgpu: argmax-channel: only int32 indices are supported, got %s", indexType)
	}
	shape := x.Shape()
	if len(shape) != 4 {
		return nil, nil, fmt.Errorf("webgpu: argmax-channel: expected rank 4, got shape %v", shape)
	}
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	strides := x.Strides()
	nhw := n * h * w

	pipeline := b.pipelineFor("classify", classifyShader, grid)

	//nolint:gosec // G115: ByteSize() returns non-negative int
	inSize := uint64(x.ByteSize())
	bufferCls := b.acquireStorage(inSize, x.Data()[:x.ByteSize()])
	defer b.pool.Release(bufferCls, inSize, storageUsage)

	outSize := uint64(nhw) * 4 // float32 scores, int32 indices
	bufferScore := b.acquireStorage(outSize, nil)
	defer b.pool.Release(bufferScore, outSize, storageUsage)
	bufferIndex := b.acquireStorage(outSize, nil)
	defer b.pool.Release(bufferIndex, outSize, storageUsage)

	params := make([]byte, 32)
	for i, v := range []int{c, h, w, nhw, strides[0], strides[1], strides[2], strides[3]} {
		//nolint:gosec // G115: shape and stride values are non-negative
		binary.LittleEndian.PutUint32(params[i*4:i*4+4], uint32(v))
	}
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	err := b.dispatch(pipeline, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferCls, 0, inSize),
		wgpu.BufferBindingEntry(1, bufferScore, 0, outSize),
		wgpu.BufferBindingEntry(2, bufferIndex, 0, outSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 32),
	}, grid)
	if err != nil {
		return nil, nil, fmt.Errorf("webgpu: argmax-channel: %w", err)
	}

	scoreData, err := b.readBuffer(bufferScore, outSize)
	if err != nil {
		return nil, nil, fmt.Errorf("webgpu: argmax-channel: %w", err)
	}
	indexData, err := b.readBuffer(bufferIndex, outSize)
	if err != nil {
		return nil, nil, fmt.Errorf("webgpu: argmax-channel: %w", err)
	}

	score, err := tensor.NewRaw(tensor.Shape{n, h, w}, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, nil, fmt.Errorf("webgpu: argmax-channel: %w", err)
	}
	index, err := tensor.NewRaw(tensor.Shape{n, h, w}, tensor.Int32, tensor.WebGPU)
	if err != nil {
		score.Release()
		return nil, nil, fmt.Errorf("webgpu: argmax-channel: %w", err)
	}
	copy(score.Data(), scoreData)
	copy(index.Data(), indexData)
	return score, index, nil
}

// DecodeBoxes reconstructs normalized boxes from a [N, 4, H, W] regression
// tensor on the GPU.
func (b *Backend) DecodeBoxes(reg *tensor.RawTensor, p tensor.BoxParams, grid launch.Grid) (*tensor.RawTensor, error) {
	if reg.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: decode-boxes: only float32 is supported, got %s", reg.DType())
	}
	shape := reg.Shape()
	if len(shape) != 4 || shape[1] != 4 {
		return nil, fmt.Errorf("webgpu: decode-boxes: expected shape [N, 4, H, W], got %v", shape)
	}
	n, h, w := shape[0], shape[2], shape[3]
	strides := reg.Strides()
	nhw := n * h * w

	pipeline := b.pipelineFor("bbox", bboxShader, grid)

	//nolint:gosec // G115: ByteSize() returns non-negative int
	size := uint64(reg.ByteSize())
	bufferReg := b.acquireStorage(size, reg.Data()[:reg.ByteSize()])
	defer b.pool.Release(bufferReg, size, storageUsage)

	bufferBBox := b.acquireStorage(size, nil)
	defer b.pool.Release(bufferBBox, size, storageUsage)

	params := make([]byte, 48)
	for i, v := range []int{h, w, nhw, strides[0], strides[1], strides[2], strides[3], 0} {
		//nolint:gosec // G115: shape and stride values are non-negative
		binary.LittleEndian.PutUint32(params[i*4:i*4+4], uint32(v))
	}
	binary.LittleEndian.PutUint32(params[32:36], math.Float32bits(float32(p.Stride)))
	binary.LittleEndian.PutUint32(params[36:40], math.Float32bits(float32(p.ImageWidth)))
	binary.LittleEndian.PutUint32(params[40:44], math.Float32bits(float32(p.ImageHeight)))
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	err := b.dispatch(pipeline, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferReg, 0, size),
		wgpu.BufferBindingEntry(1, bufferBBox, 0, size),
		wgpu.BufferBindingEntry(2, bufferParams, 0, 48),
	}, grid)
	if err != nil {
		return nil, fmt.Errorf("webgpu: decode-boxes: %w", err)
	}

	resultData, err := b.readBuffer(bufferBBox, size)
	if err != nil {
		return nil, fmt.Errorf("webgpu: decode-boxes: %w", err)
	}

	bbox, err := tensor.NewRaw(shape.Clone(), tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, fmt.Errorf("webgpu: decode-boxes: %w", err)
	}
	copy(bbox.Data(), resultData)
	return bbox, nil
}
