package tensor

import "fmt"

// Buffer is a typed handle over a RawTensor allocation.
//
// Type Parameters:
//   - T: Element type (must satisfy DType constraint)
//
// A Buffer owns one reference to its allocation. Clone shares the
// allocation (cheap, reference-counted); IntoSlice consumes the buffer
// and transfers ownership of the data back to the host.
type Buffer[T DType] struct {
	raw *RawTensor
}

// FromSlice creates a buffer from a host slice. The slice is copied into
// the buffer's allocation. Fails when the data length disagrees with the
// declared shape.
func FromSlice[T DType](data []T, shape Shape, device Device) (*Buffer[T], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, but got %d",
			ErrInvalidShape, shape, shape.NumElements(), len(data))
	}

	b, err := WithShape[T](shape, device)
	if err != nil {
		return nil, err
	}
	copy(b.hostData(), data)
	return b, nil
}

// WithShape creates an uninitialized buffer with compact row-major strides,
// sized product(shape) × element size.
func WithShape[T DType](shape Shape, device Device) (*Buffer[T], error) {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), device)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreation, err)
	}
	return &Buffer[T]{raw: raw}, nil
}

// Wrap takes ownership of a RawTensor and returns it as a typed buffer.
// Panics if T does not match the tensor's dtype.
func Wrap[T DType](raw *RawTensor) *Buffer[T] {
	var dummy T
	if dt := inferDataType(dummy); dt != raw.DType() {
		panic(fmt.Sprintf("cannot wrap %s tensor as Buffer[%s]", raw.DType(), dt))
	}
	return &Buffer[T]{raw: raw}
}

// EmptyLike creates a new uninitialized buffer with the same shape, strides
// and byte size as this one.
func (b *Buffer[T]) EmptyLike() (*Buffer[T], error) {
	if b.raw == nil {
		return nil, fmt.Errorf("%w: buffer already consumed", ErrRuntime)
	}
	raw, err := NewRaw(b.raw.Shape(), b.raw.DType(), b.raw.Device())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreation, err)
	}
	raw.stride = append([]int(nil), b.raw.stride...)
	return &Buffer[T]{raw: raw}, nil
}

// Shape returns the buffer's shape.
func (b *Buffer[T]) Shape() Shape {
	return b.raw.Shape()
}

// Strides returns the buffer's strides in element-count units.
func (b *Buffer[T]) Strides() []int {
	return b.raw.Strides()
}

// Raw returns the underlying RawTensor.
// Used by backend implementations for low-level operations.
func (b *Buffer[T]) Raw() *RawTensor {
	return b.raw
}

// Clone returns a new buffer sharing the same allocation. The allocation
// is released only when the last referencing buffer is dropped.
func (b *Buffer[T]) Clone() *Buffer[T] {
	return &Buffer[T]{raw: b.raw.Clone()}
}

// Release drops this buffer's reference to the allocation.
func (b *Buffer[T]) Release() {
	if b.raw != nil {
		b.raw.Release()
		b.raw = nil
	}
}

// View returns a non-owning launch descriptor for this buffer. The view
// must not outlive the buffer it was created from.
func (b *Buffer[T]) View(lineWidth int) View[T] {
	return View[T]{
		Data:      b.hostData(),
		Shape:     b.raw.Shape(),
		Strides:   b.raw.Strides(),
		LineWidth: lineWidth,
	}
}

// IntoSlice reads the allocation back into a host slice, consuming the
// buffer. The buffer's reference is released; further use of the buffer
// fails with ErrRuntime.
func (b *Buffer[T]) IntoSlice() ([]T, error) {
	if b.raw == nil {
		return nil, fmt.Errorf("%w: buffer already consumed", ErrRuntime)
	}
	if b.raw.Released() {
		return nil, fmt.Errorf("%w: allocation released before readback", ErrRuntime)
	}

	out := make([]T, b.raw.NumElements())
	copy(out, b.hostData())

	b.raw.Release()
	b.raw = nil
	return out, nil
}

// hostData returns the typed element slice backing this buffer.
func (b *Buffer[T]) hostData() []T {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return any(b.raw.AsFloat32()).([]T)
	case float64:
		return any(b.raw.AsFloat64()).([]T)
	case int32:
		return any(b.raw.AsInt32()).([]T)
	case int64:
		return any(b.raw.AsInt64()).([]T)
	case uint8:
		return any(b.raw.AsUint8()).([]T)
	default:
		panic("unsupported type")
	}
}

// String returns a human-readable representation of the buffer.
func (b *Buffer[T]) String() string {
	if b.raw == nil {
		return "Buffer(consumed)"
	}
	return fmt.Sprintf("Buffer[%s]%v on %s", b.raw.DType(), b.raw.Shape(), b.raw.Device())
}
