// Package rawio reads and writes headerless little-endian streams of float32
// and binary16 values, the layout used by raw tensor dumps.
package rawio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/23skdu/longbow-half/internal/half"
	"github.com/23skdu/longbow-half/internal/simd"
)

var (
	// ErrTruncated is returned when a stream ends in the middle of a value.
	ErrTruncated = errors.New("rawio: stream length is not a multiple of the element size")
)

// ReadFloat32s reads little-endian float32 values until EOF.
func ReadFloat32s(r io.Reader) ([]float32, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes of float32", ErrTruncated, len(raw))
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}

// ReadHalves reads little-endian binary16 values until EOF.
func ReadHalves(r io.Reader) ([]half.Half, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("%w: %d bytes of binary16", ErrTruncated, len(raw))
	}
	out := make([]half.Half, len(raw)/2)
	for i := range out {
		out[i] = half.FromBits(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return out, nil
}

// WriteFloat32s writes vals as little-endian float32.
func WriteFloat32s(w io.Writer, vals []float32) error {
	return binary.Write(w, binary.LittleEndian, vals)
}

// WriteHalves writes vals as little-endian binary16.
func WriteHalves(w io.Writer, vals []half.Half) error {
	buf := make([]byte, len(vals)*2)
	for i, h := range vals {
		binary.LittleEndian.PutUint16(buf[i*2:], h.Bits())
	}
	_, err := w.Write(buf)
	return err
}

// NarrowFile reads a float32 file at inPath and writes the binary16 encoding
// of every value to outPath. It returns the number of values converted.
func NarrowFile(inPath, outPath string) (int, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	vals, err := ReadFloat32s(bufio.NewReader(in))
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", inPath, err)
	}

	halves := make([]half.Half, len(vals))
	simd.NarrowParallel(halves, vals, 0)

	if err := writeFile(outPath, func(w io.Writer) error { return WriteHalves(w, halves) }); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return len(vals), nil
}

// WidenFile reads a binary16 file at inPath and writes the float32 value of
// every element to outPath. It returns the number of values converted.
func WidenFile(inPath, outPath string) (int, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	halves, err := ReadHalves(bufio.NewReader(in))
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", inPath, err)
	}

	vals := make([]float32, len(halves))
	simd.Widen(vals, halves)

	if err := writeFile(outPath, func(w io.Writer) error { return WriteFloat32s(w, vals) }); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return len(halves), nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
