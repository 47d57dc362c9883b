package cache

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/longbow-half/internal/half"
)

func TestLUT_MatchesCodec(t *testing.T) {
	l := NewLUT()
	require.Equal(t, 1<<16, l.Size())

	for i := 0; i < 1<<16; i++ {
		h := half.Half(i)
		want := math.Float32bits(h.Float32())
		require.Equal(t, want, math.Float32bits(l.Get(h)), "%#04x", i)
	}
}

func TestDefault_Shared(t *testing.T) {
	var wg sync.WaitGroup
	tables := make([]*LUT, 8)
	for i := range tables {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tables[i] = Default()
		}(i)
	}
	wg.Wait()

	for _, tb := range tables {
		assert.Same(t, tables[0], tb)
	}
	assert.Equal(t, float32(1), Default().Get(half.One))
}
