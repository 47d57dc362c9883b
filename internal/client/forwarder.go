package client

import (
	"context"
	"errors"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/rs/zerolog/log"
)

// ErrCircuitOpen is returned when forwarding is suspended after repeated failures.
var ErrCircuitOpen = errors.New("client: circuit breaker open")

// Putter is the subset of FlightClient used for forwarding.
type Putter interface {
	DoPut(ctx context.Context, datasetName string, record arrow.RecordBatch) error
}

// Forwarder sends narrowed batches to a downstream dataset, backing off
// through a CircuitBreaker when the downstream keeps failing.
type Forwarder struct {
	put     Putter
	breaker *CircuitBreaker
	dataset string
}

// NewForwarder creates a Forwarder writing to dataset.
func NewForwarder(put Putter, breaker *CircuitBreaker, dataset string) *Forwarder {
	return &Forwarder{put: put, breaker: breaker, dataset: dataset}
}

// Forward sends record downstream.
func (f *Forwarder) Forward(ctx context.Context, record arrow.RecordBatch) error {
	if !f.breaker.Allow() {
		return ErrCircuitOpen
	}
	if err := f.put.DoPut(ctx, f.dataset, record); err != nil {
		f.breaker.Failure()
		log.Error().Err(err).Str("dataset", f.dataset).Msg("Failed to forward batch")
		return err
	}
	f.breaker.Success()
	return nil
}
