package tensor

// View is a non-owning kernel-launch descriptor: typed data plus shape,
// strides and line width. Views are consumed by kernel dispatch and must
// never be persisted past the call.
type View[T DType] struct {
	Data      []T
	Shape     Shape
	Strides   []int
	LineWidth int
}

// Len returns the total number of elements addressed by the view.
func (v View[T]) Len() int {
	return v.Shape.NumElements()
}

// Dim returns the size of dimension i.
func (v View[T]) Dim(i int) int {
	return v.Shape[i]
}

// Stride returns the stride of dimension i in element-count units.
func (v View[T]) Stride(i int) int {
	return v.Strides[i]
}

// ViewOf builds a typed view over a RawTensor. Used by backends that
// receive untyped tensors and dispatch typed kernels.
func ViewOf[T DType](r *RawTensor, lineWidth int) View[T] {
	b := Buffer[T]{raw: r}
	return b.View(lineWidth)
}
