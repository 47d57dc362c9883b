package rawio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/longbow-half/internal/half"
)

func TestReadFloat32s(t *testing.T) {
	var buf bytes.Buffer
	for _, v := range []float32{1.0, -2.0, 0.5} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}

	vals, err := ReadFloat32s(&buf)
	require.NoError(t, err)
	assert.Equal(t, []float32{1.0, -2.0, 0.5}, vals)
}

func TestReadFloat32s_Truncated(t *testing.T) {
	_, err := ReadFloat32s(bytes.NewReader([]byte{0, 0, 0x80, 0x3f, 0x00}))
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestHalves_RoundTrip(t *testing.T) {
	in := []half.Half{half.One, half.NegativeZero, half.MaxValue, 0x7c01}

	var buf bytes.Buffer
	require.NoError(t, WriteHalves(&buf, in))
	// 1.0 in FP16 = 0x3c00, little endian
	assert.Equal(t, []byte{0x00, 0x3c}, buf.Bytes()[:2])

	out, err := ReadHalves(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadHalves_Truncated(t *testing.T) {
	_, err := ReadHalves(bytes.NewReader([]byte{0x00, 0x3c, 0x00}))
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestNarrowAndWidenFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.f32")
	mid := filepath.Join(dir, "mid.f16")
	dst := filepath.Join(dir, "out.f32")

	var buf bytes.Buffer
	require.NoError(t, WriteFloat32s(&buf, []float32{1.0, -2.0, 70000, 0.1}))
	require.NoError(t, os.WriteFile(src, buf.Bytes(), 0644))

	n, err := NarrowFile(src, mid)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	raw, err := os.ReadFile(mid)
	require.NoError(t, err)
	require.Len(t, raw, 8)
	assert.Equal(t, uint16(0xc000), binary.LittleEndian.Uint16(raw[2:]))
	assert.Equal(t, uint16(0x7c00), binary.LittleEndian.Uint16(raw[4:]))

	n, err = WidenFile(mid, dst)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	vals, err := ReadFloat32s(f)
	require.NoError(t, err)
	assert.Equal(t, float32(1), vals[0])
	assert.Equal(t, float32(-2), vals[1])
	assert.True(t, vals[2] > 65504)
	assert.Equal(t, half.FromFloat32(0.1).Float32(), vals[3])
}

func TestNarrowFile_Missing(t *testing.T) {
	_, err := NarrowFile("non_existent_file", filepath.Join(t.TempDir(), "out"))
	assert.Error(t, err)
}
