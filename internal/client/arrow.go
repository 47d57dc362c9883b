package client

import (
	"errors"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/longbow-half/internal/half"
	"github.com/23skdu/longbow-half/internal/simd"
)

var (
	// ErrNoFloat32Column is returned by NarrowRecord when a batch has nothing to narrow.
	ErrNoFloat32Column = errors.New("client: record has no float32 column")
	// ErrNoFloat16Column is returned by WidenRecord when a batch has nothing to widen.
	ErrNoFloat16Column = errors.New("client: record has no float16 column")
)

// RecordBatchBuilder creates Arrow RecordBatches of binary16 vectors.
type RecordBatchBuilder struct {
	mem memory.Allocator
}

// NewRecordBatchBuilder creates a new builder.
func NewRecordBatchBuilder(mem memory.Allocator) *RecordBatchBuilder {
	return &RecordBatchBuilder{mem: mem}
}

// BuildRecordBatch narrows each vector and returns a batch with a single
// list<float16> column named "vector". It returns nil for empty input.
func (b *RecordBatchBuilder) BuildRecordBatch(vectors [][]float32) (arrow.RecordBatch, error) {
	if len(vectors) == 0 {
		return nil, nil
	}

	var flat []float32
	offsets := make([]int32, 0, len(vectors)+1)
	offsets = append(offsets, 0)
	for _, v := range vectors {
		flat = append(flat, v...)
		offsets = append(offsets, int32(len(flat)))
	}

	values := narrowValues(b.mem, flat, nil)
	defer values.Release()

	offsetBuf := memory.NewBufferBytes(arrow.Int32Traits.CastToBytes(offsets))
	listType := arrow.ListOf(arrow.FixedWidthTypes.Float16)
	data := array.NewData(listType, len(vectors), []*memory.Buffer{nil, offsetBuf}, []arrow.ArrayData{values.Data()}, 0, 0)
	defer data.Release()

	col := array.NewListData(data)
	defer col.Release()

	schema := arrow.NewSchema([]arrow.Field{{Name: "vector", Type: listType}}, nil)
	return array.NewRecordBatch(schema, []arrow.Array{col}, int64(len(vectors))), nil
}

// NarrowArray rounds every value of src to binary16. Nulls are preserved.
func NarrowArray(mem memory.Allocator, src *array.Float32) *array.Float16 {
	var valid func(int) bool
	if src.NullN() > 0 {
		valid = src.IsValid
	}
	return narrowValues(mem, src.Float32Values(), valid)
}

func narrowValues(mem memory.Allocator, vals []float32, valid func(int) bool) *array.Float16 {
	n := len(vals)
	halves := make([]half.Half, n)
	simd.NarrowParallel(halves, vals, 0)

	buf := memory.NewResizableBuffer(mem)
	defer buf.Release()
	buf.Resize(arrow.Uint16Traits.BytesRequired(n))
	out := arrow.Uint16Traits.CastFromBytes(buf.Bytes())
	for i, h := range halves {
		out[i] = h.Bits()
	}

	var nullBuf *memory.Buffer
	nulls := 0
	if valid != nil {
		nullBuf = memory.NewResizableBuffer(mem)
		defer nullBuf.Release()
		nullBuf.Resize(int(bitutil.BytesForBits(int64(n))))
		bm := nullBuf.Bytes()
		memory.Set(bm, 0)
		for i := 0; i < n; i++ {
			if valid(i) {
				bitutil.SetBit(bm, i)
			} else {
				nulls++
			}
		}
	}

	data := array.NewData(arrow.FixedWidthTypes.Float16, n, []*memory.Buffer{nullBuf, buf}, nil, nulls, 0)
	defer data.Release()
	return array.NewFloat16Data(data)
}

// WidenArray converts every value of src to float32. Nulls are preserved.
func WidenArray(mem memory.Allocator, src *array.Float16) *array.Float32 {
	n := src.Len()
	halves := make([]half.Half, n)
	for i, v := range src.Values() {
		halves[i] = half.FromBits(v.Uint16())
	}
	vals := make([]float32, n)
	simd.Widen(vals, halves)

	var valid []bool
	if src.NullN() > 0 {
		valid = make([]bool, n)
		for i := range valid {
			valid[i] = src.IsValid(i)
		}
	}

	bldr := array.NewFloat32Builder(mem)
	defer bldr.Release()
	bldr.AppendValues(vals, valid)
	return bldr.NewFloat32Array()
}

// NarrowRecord returns a copy of rec with every float32 column, and every
// list or fixed-size list of float32, converted to float16. Other columns
// are shared with rec.
func NarrowRecord(mem memory.Allocator, rec arrow.RecordBatch) (arrow.RecordBatch, error) {
	return convertRecord(rec, arrow.FLOAT32, arrow.FixedWidthTypes.Float16, ErrNoFloat32Column, func(a arrow.Array) arrow.Array {
		return NarrowArray(mem, a.(*array.Float32))
	})
}

// WidenRecord is the inverse of NarrowRecord.
func WidenRecord(mem memory.Allocator, rec arrow.RecordBatch) (arrow.RecordBatch, error) {
	return convertRecord(rec, arrow.FLOAT16, arrow.PrimitiveTypes.Float32, ErrNoFloat16Column, func(a arrow.Array) arrow.Array {
		return WidenArray(mem, a.(*array.Float16))
	})
}

// HasFloat16Column reports whether rec has a float16 column, or a list or
// fixed-size list of float16.
func HasFloat16Column(rec arrow.RecordBatch) bool {
	for _, f := range rec.Schema().Fields() {
		t := f.Type
		switch lt := t.(type) {
		case *arrow.ListType:
			t = lt.Elem()
		case *arrow.FixedSizeListType:
			t = lt.Elem()
		}
		if t.ID() == arrow.FLOAT16 {
			return true
		}
	}
	return false
}

func convertRecord(rec arrow.RecordBatch, from arrow.Type, to arrow.DataType, none error, conv func(arrow.Array) arrow.Array) (arrow.RecordBatch, error) {
	schema := rec.Schema()
	fields := make([]arrow.Field, len(schema.Fields()))
	cols := make([]arrow.Array, len(fields))
	var created []arrow.Array
	defer func() {
		for _, c := range created {
			c.Release()
		}
	}()

	for i, f := range schema.Fields() {
		fields[i] = f
		cols[i] = rec.Column(i)

		out := convertColumn(rec.Column(i), from, to, conv)
		if out == nil {
			continue
		}
		created = append(created, out)
		cols[i] = out
		fields[i].Type = out.DataType()
	}

	if len(created) == 0 {
		return nil, none
	}

	md := schema.Metadata()
	return array.NewRecordBatch(arrow.NewSchema(fields, &md), cols, rec.NumRows()), nil
}

// convertColumn returns nil when col holds no values of type from.
func convertColumn(col arrow.Array, from arrow.Type, to arrow.DataType, conv func(arrow.Array) arrow.Array) arrow.Array {
	switch c := col.(type) {
	case *array.List:
		child := c.ListValues()
		if child.DataType().ID() != from {
			return nil
		}
		values := conv(child)
		defer values.Release()

		// Offsets and validity are reused as-is; only the child changes.
		d := c.Data()
		data := array.NewData(arrow.ListOf(to), d.Len(), d.Buffers(), []arrow.ArrayData{values.Data()}, d.NullN(), d.Offset())
		defer data.Release()
		return array.NewListData(data)

	case *array.FixedSizeList:
		child := c.ListValues()
		if child.DataType().ID() != from {
			return nil
		}
		values := conv(child)
		defer values.Release()

		size := c.DataType().(*arrow.FixedSizeListType).Len()
		d := c.Data()
		data := array.NewData(arrow.FixedSizeListOf(size, to), d.Len(), d.Buffers(), []arrow.ArrayData{values.Data()}, d.NullN(), d.Offset())
		defer data.Release()
		return array.NewFixedSizeListData(data)
	}

	if col.DataType().ID() != from {
		return nil
	}
	return conv(col)
}
