package simd

import (
	"runtime"
	"sync"

	"github.com/23skdu/longbow-half/internal/cache"
	"github.com/23skdu/longbow-half/internal/half"
)

// parallelThreshold is the slice length below which NarrowParallel stays on
// the calling goroutine.
const parallelThreshold = 1 << 14

func checkLen(dst, src int) {
	if dst < src {
		panic("simd: destination shorter than source")
	}
}

// Widen writes the float32 value of every src element into dst.
// dst must be at least as long as src.
func Widen(dst []float32, src []half.Half) {
	checkLen(len(dst), len(src))
	lut := cache.Default()

	// Unrolled loop for better pipelining
	i := 0
	for ; i <= len(src)-4; i += 4 {
		dst[i] = lut.Get(src[i])
		dst[i+1] = lut.Get(src[i+1])
		dst[i+2] = lut.Get(src[i+2])
		dst[i+3] = lut.Get(src[i+3])
	}
	for ; i < len(src); i++ {
		dst[i] = lut.Get(src[i])
	}
}

// Narrow rounds every src element to the nearest Half.
func Narrow(dst []half.Half, src []float32) {
	checkLen(len(dst), len(src))
	i := 0
	for ; i <= len(src)-4; i += 4 {
		dst[i] = half.FromFloat32(src[i])
		dst[i+1] = half.FromFloat32(src[i+1])
		dst[i+2] = half.FromFloat32(src[i+2])
		dst[i+3] = half.FromFloat32(src[i+3])
	}
	for ; i < len(src); i++ {
		dst[i] = half.FromFloat32(src[i])
	}
}

// NarrowFloat64 rounds every src element to the nearest Half with a single
// rounding step.
func NarrowFloat64(dst []half.Half, src []float64) {
	checkLen(len(dst), len(src))
	for i, v := range src {
		dst[i] = half.FromFloat64(v)
	}
}

// NarrowParallel is Narrow split across workers goroutines. workers <= 0
// uses runtime.NumCPU().
func NarrowParallel(dst []half.Half, src []float32, workers int) {
	checkLen(len(dst), len(src))
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers == 1 || len(src) < parallelThreshold {
		Narrow(dst, src)
		return
	}

	var wg sync.WaitGroup
	chunkSize := (len(src) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		if start >= len(src) {
			break
		}
		end := start + chunkSize
		if end > len(src) {
			end = len(src)
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			Narrow(dst[s:e], src[s:e])
		}(start, end)
	}
	wg.Wait()
}

// Dot computes the dot product of two Half vectors, accumulating in float32.
func Dot(a, b []half.Half) float32 {
	checkLen(len(b), len(a))
	lut := cache.Default()

	var sum float32
	i := 0
	for ; i <= len(a)-4; i += 4 {
		sum += lut.Get(a[i]) * lut.Get(b[i])
		sum += lut.Get(a[i+1]) * lut.Get(b[i+1])
		sum += lut.Get(a[i+2]) * lut.Get(b[i+2])
		sum += lut.Get(a[i+3]) * lut.Get(b[i+3])
	}
	for ; i < len(a); i++ {
		sum += lut.Get(a[i]) * lut.Get(b[i])
	}
	return sum
}

// Sum adds the widened values of src in float32.
func Sum(src []half.Half) float32 {
	lut := cache.Default()
	var sum float32
	for _, h := range src {
		sum += lut.Get(h)
	}
	return sum
}

// HasNaN reports whether any element of src is a NaN.
func HasNaN(src []half.Half) bool {
	for _, h := range src {
		if h.IsNaN() {
			return true
		}
	}
	return false
}
