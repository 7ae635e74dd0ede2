package tensor

import (
	"errors"
	"testing"
)

// Test helpers

func assertEqualShape(t *testing.T, expected, actual Shape, msg string) {
	t.Helper()
	if !expected.Equal(actual) {
		t.Errorf("%s: expected shape %v, got %v", msg, expected, actual)
	}
}

// DType Tests

func TestDataTypeSize(t *testing.T) {
	tests := []struct {
		dtype DataType
		size  int
	}{
		{Float32, 4},
		{Float64, 8},
		{Int32, 4},
		{Int64, 8},
		{Uint8, 1},
	}

	for _, tt := range tests {
		if got := tt.dtype.Size(); got != tt.size {
			t.Errorf("%s.Size() = %d, want %d", tt.dtype, got, tt.size)
		}
	}
}

func TestDataTypeString(t *testing.T) {
	tests := []struct {
		dtype DataType
		str   string
	}{
		{Float32, "float32"},
		{Float64, "float64"},
		{Int32, "int32"},
		{Int64, "int64"},
		{Uint8, "uint8"},
	}

	for _, tt := range tests {
		if got := tt.dtype.String(); got != tt.str {
			t.Errorf("%s.String() = %q, want %q", tt.dtype, got, tt.str)
		}
	}
}

func TestTypeOf(t *testing.T) {
	if dt := TypeOf[float32](); dt != Float32 {
		t.Errorf("TypeOf[float32]() = %v, want Float32", dt)
	}
	if dt := TypeOf[float64](); dt != Float64 {
		t.Errorf("TypeOf[float64]() = %v, want Float64", dt)
	}
	if dt := TypeOf[int32](); dt != Int32 {
		t.Errorf("TypeOf[int32]() = %v, want Int32", dt)
	}
	if dt := TypeOf[int64](); dt != Int64 {
		t.Errorf("TypeOf[int64]() = %v, want Int64", dt)
	}
}

// Shape Tests

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		shape    Shape
		expected int
	}{
		{Shape{}, 1}, // Scalar
		{Shape{5}, 5},
		{Shape{3, 4}, 12},
		{Shape{1, 8, 20, 20}, 3200},
		{Shape{1, 1, 1}, 1},
	}

	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.expected {
			t.Errorf("Shape%v.NumElements() = %d, want %d", tt.shape, got, tt.expected)
		}
	}
}

func TestShapeValidate(t *testing.T) {
	if err := (Shape{2, 3, 4}).Validate(); err != nil {
		t.Errorf("valid shape rejected: %v", err)
	}
	if err := (Shape{2, 0, 4}).Validate(); err == nil {
		t.Error("zero-sized dimension accepted")
	}
	if err := (Shape{-1}).Validate(); err == nil {
		t.Error("negative dimension accepted")
	}
}

func TestShapeComputeStrides(t *testing.T) {
	tests := []struct {
		shape    Shape
		expected []int
	}{
		{Shape{1, 8, 20, 20}, []int{3200, 400, 20, 1}},
		{Shape{3, 4}, []int{4, 1}},
		{Shape{5}, []int{1}},
	}

	for _, tt := range tests {
		got := tt.shape.ComputeStrides()
		for i := range tt.expected {
			if got[i] != tt.expected[i] {
				t.Errorf("Shape%v.ComputeStrides() = %v, want %v", tt.shape, got, tt.expected)
				break
			}
		}
	}
}

// RawTensor Tests

func TestNewRaw(t *testing.T) {
	r, err := NewRaw(Shape{2, 3}, Float32, CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	assertEqualShape(t, Shape{2, 3}, r.Shape(), "NewRaw shape")
	if r.ByteSize() != 24 {
		t.Errorf("ByteSize() = %d, want 24", r.ByteSize())
	}
	if r.DType() != Float32 {
		t.Errorf("DType() = %v, want Float32", r.DType())
	}
}

func TestNewRawInvalidShape(t *testing.T) {
	_, err := NewRaw(Shape{2, 0}, Float32, CPU)
	if err == nil {
		t.Fatal("NewRaw accepted zero-sized dimension")
	}
	if !errors.Is(err, ErrInvalidShape) {
		t.Errorf("error %v is not ErrInvalidShape", err)
	}
}

func TestRawTensorCloneSharesAllocation(t *testing.T) {
	r, err := NewRaw(Shape{4}, Float32, CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	clone := r.Clone()
	if r.IsUnique() {
		t.Error("original still unique after Clone")
	}

	// A write through the original is visible through the clone.
	r.AsFloat32()[2] = 42
	if clone.AsFloat32()[2] != 42 {
		t.Error("clone does not share the allocation")
	}

	clone.Release()
	if !r.IsUnique() {
		t.Error("original not unique after clone released")
	}
}

func TestRawTensorReleaseFreesAtZero(t *testing.T) {
	r, err := NewRaw(Shape{4}, Float32, CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	clone := r.Clone()

	r.Release()
	if clone.Released() {
		t.Error("allocation freed while a reference remains")
	}
	clone.Release()
	if !clone.Released() {
		t.Error("allocation not freed after last release")
	}
}

func TestAsFloat32WrongDTypePanics(t *testing.T) {
	r, err := NewRaw(Shape{4}, Int32, CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("AsFloat32 on int32 tensor did not panic")
		}
	}()
	r.AsFloat32()
}

// Buffer Tests

func TestFromSlice(t *testing.T) {
	b, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, CPU)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	assertEqualShape(t, Shape{2, 3}, b.Shape(), "FromSlice shape")

	data, err := b.IntoSlice()
	if err != nil {
		t.Fatalf("IntoSlice failed: %v", err)
	}
	if data[0] != 1 || data[5] != 6 {
		t.Errorf("round trip mismatch: %v", data)
	}
}

func TestFromSliceLengthMismatch(t *testing.T) {
	_, err := FromSlice([]float32{1, 2, 3}, Shape{2, 3}, CPU)
	if err == nil {
		t.Fatal("FromSlice accepted mismatched data length")
	}
	if !errors.Is(err, ErrInvalidShape) {
		t.Errorf("error %v is not ErrInvalidShape", err)
	}
}

func TestWithShapeStrides(t *testing.T) {
	b, err := WithShape[float32](Shape{1, 4, 20, 20}, CPU)
	if err != nil {
		t.Fatalf("WithShape failed: %v", err)
	}

	want := []int{1600, 400, 20, 1}
	got := b.Strides()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Strides() = %v, want %v", got, want)
			break
		}
	}
}

func TestEmptyLikeMatchesSource(t *testing.T) {
	b, err := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2}, CPU)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	like, err := b.EmptyLike()
	if err != nil {
		t.Fatalf("EmptyLike failed: %v", err)
	}
	assertEqualShape(t, b.Shape(), like.Shape(), "EmptyLike shape")
	if like.Raw().ByteSize() != b.Raw().ByteSize() {
		t.Error("EmptyLike byte size differs from source")
	}
	// Separate allocation
	if !like.Raw().IsUnique() {
		t.Error("EmptyLike shares the source allocation")
	}
}

func TestBufferCloneSharesAllocation(t *testing.T) {
	b, err := FromSlice([]int32{1, 2, 3}, Shape{3}, CPU)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	clone := b.Clone()
	if b.Raw().IsUnique() {
		t.Error("buffer still unique after Clone")
	}

	data, err := clone.IntoSlice()
	if err != nil {
		t.Fatalf("IntoSlice failed: %v", err)
	}
	if data[1] != 2 {
		t.Errorf("clone data mismatch: %v", data)
	}
}

func TestIntoSliceConsumesBuffer(t *testing.T) {
	b, err := FromSlice([]float32{1, 2}, Shape{2}, CPU)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	if _, err := b.IntoSlice(); err != nil {
		t.Fatalf("first IntoSlice failed: %v", err)
	}

	_, err = b.IntoSlice()
	if err == nil {
		t.Fatal("second IntoSlice on consumed buffer succeeded")
	}
	if !errors.Is(err, ErrRuntime) {
		t.Errorf("error %v is not ErrRuntime", err)
	}
}

func TestViewDescribesBuffer(t *testing.T) {
	b, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, CPU)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	v := b.View(1)
	if v.Len() != 6 {
		t.Errorf("View.Len() = %d, want 6", v.Len())
	}
	if v.Dim(0) != 2 || v.Dim(1) != 3 {
		t.Errorf("View dims = %v", v.Shape)
	}
	if v.Stride(0) != 3 || v.Stride(1) != 1 {
		t.Errorf("View strides = %v", v.Strides)
	}
	if v.LineWidth != 1 {
		t.Errorf("View.LineWidth = %d, want 1", v.LineWidth)
	}
	if v.Data[4] != 5 {
		t.Errorf("View data mismatch: %v", v.Data)
	}
}
