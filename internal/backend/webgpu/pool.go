package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// maxPooledBuffers bounds how many idle buffers the pool keeps alive.
const maxPooledBuffers = 32

// pooledBuffer wraps a GPU buffer with the metadata needed for reuse.
type pooledBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  wgpu.BufferUsage
}

// bufferPool reuses storage buffers across dispatches. The decode pipeline
// allocates the same handful of buffer sizes on every Execute call, so a
// small pool removes most allocation traffic.
type bufferPool struct {
	device *wgpu.Device

	mu   sync.Mutex
	idle []*pooledBuffer

	hits   uint64
	misses uint64
}

func newBufferPool(device *wgpu.Device) *bufferPool {
	return &bufferPool{
		device: device,
		idle:   make([]*pooledBuffer, 0, maxPooledBuffers),
	}
}

// Acquire returns a buffer of at least size bytes with the requested usage,
// reusing an idle one when possible.
func (p *bufferPool) Acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	p.mu.Lock()
	for i, pb := range p.idle {
		if pb.size >= size && pb.usage&usage == usage {
			p.idle = append(p.idle[:i], p.idle[i+1:]...)
			p.hits++
			p.mu.Unlock()
			return pb.buffer
		}
	}
	p.misses++
	p.mu.Unlock()

	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
}

// Release returns a buffer to the pool, or frees it when the pool is full.
func (p *bufferPool) Release(buffer *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	if len(p.idle) < maxPooledBuffers {
		p.idle = append(p.idle, &pooledBuffer{buffer: buffer, size: size, usage: usage})
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	buffer.Release()
}

// Stats reports pool hit/miss counts and the idle buffer count.
func (p *bufferPool) Stats() (hits, misses uint64, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits, p.misses, len(p.idle)
}

// Clear releases every idle buffer. Called when the backend is released.
func (p *bufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pb := range p.idle {
		pb.buffer.Release()
	}
	p.idle = p.idle[:0]
}
