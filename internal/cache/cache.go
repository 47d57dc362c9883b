package cache

import (
	"sync"

	"github.com/23skdu/longbow-half/internal/half"
)

// LUT maps each of the 65536 binary16 encodings to its float32 value. It
// is read-only once built and safe for concurrent use.
type LUT struct {
	data [1 << 16]float32
}

func NewLUT() *LUT {
	l := &LUT{}
	for i := range l.data {
		l.data[i] = half.Half(i).Float32()
	}
	return l
}

func (l *LUT) Get(h half.Half) float32 {
	return l.data[h]
}

func (l *LUT) Size() int {
	return len(l.data)
}

var (
	defaultLUT  *LUT
	defaultOnce sync.Once
)

// Default returns the process-wide LUT, building it on first use.
func Default() *LUT {
	defaultOnce.Do(func() {
		defaultLUT = NewLUT()
	})
	return defaultLUT
}

