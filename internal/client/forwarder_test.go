package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockPutter struct {
	mock.Mock
}

func (m *mockPutter) DoPut(ctx context.Context, datasetName string, record arrow.RecordBatch) error {
	args := m.Called(ctx, datasetName, record)
	return args.Error(0)
}

func TestForwarder_Forward(t *testing.T) {
	rb := float32Record(t, []float32{1})
	defer rb.Release()

	put := new(mockPutter)
	put.On("DoPut", mock.Anything, "halves", rb).Return(nil).Once()

	f := NewForwarder(put, NewCircuitBreaker(2, time.Minute), "halves")
	assert.NoError(t, f.Forward(context.Background(), rb))
	put.AssertExpectations(t)
}

func TestForwarder_OpensCircuit(t *testing.T) {
	rb := float32Record(t, []float32{1})
	defer rb.Release()

	downstream := errors.New("connection refused")
	put := new(mockPutter)
	put.On("DoPut", mock.Anything, "halves", rb).Return(downstream).Twice()

	breaker := NewCircuitBreaker(2, time.Minute)
	f := NewForwarder(put, breaker, "halves")

	assert.ErrorIs(t, f.Forward(context.Background(), rb), downstream)
	assert.ErrorIs(t, f.Forward(context.Background(), rb), downstream)
	assert.Equal(t, StateOpen, breaker.State())

	// The downstream is not called while the circuit is open.
	assert.ErrorIs(t, f.Forward(context.Background(), rb), ErrCircuitOpen)
	put.AssertNumberOfCalls(t, "DoPut", 2)
}
