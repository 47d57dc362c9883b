package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/fxamacker/cbor/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	"github.com/23skdu/longbow-half/internal/client"
	"github.com/23skdu/longbow-half/internal/half"
)

type FlightClientInterface interface {
	DoPut(ctx context.Context, datasetName string, record arrow.RecordBatch) error
	Close() error
}

// Forwarding is suspended for breakerTimeout after breakerFailures
// consecutive downstream errors.
const (
	breakerFailures = 5
	breakerTimeout  = 30 * time.Second
)

type Server struct {
	forwarder *client.Forwarder
	alloc     memory.Allocator
	sem       *semaphore.Weighted
	maxBody   int64
}

func NewServer(fc FlightClientInterface, dataset string, maxConcurrent int, maxBody int64) *Server {
	s := &Server{
		alloc:   memory.NewGoAllocator(),
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		maxBody: maxBody,
	}
	if fc != nil {
		s.forwarder = client.NewForwarder(fc, client.NewCircuitBreaker(breakerFailures, breakerTimeout), dataset)
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/narrow", s.handleNarrow)
	mux.HandleFunc("/narrow/arrow", s.handleNarrowArrow)
	mux.HandleFunc("/widen", s.handleWiden)
	mux.HandleFunc("/compare", s.handleCompare)
	mux.HandleFunc("/eval", s.handleEval)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func startServer(addr string, fc FlightClientInterface, dataset string, maxConcurrent int, maxBody int64) {
	srv := NewServer(fc, dataset, maxConcurrent, maxBody)

	log.Info().Str("addr", addr).Msg("Starting halfconv HTTP server")
	if fc != nil {
		log.Info().Str("dataset", dataset).Msg("Forwarding narrowed batches to Flight server")
	}

	if err := http.ListenAndServe(addr, srv.routes()); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

var tracer = otel.Tracer("halfconv-server")

type narrowResponse struct {
	Halves    []half.Half `cbor:"halves"`
	Precision []string    `cbor:"precision"`
}

type compareRequest struct {
	A half.Half `cbor:"a"`
	B half.Half `cbor:"b"`
}

type compareResponse struct {
	Ordering     string `cbor:"ordering"`
	Equal        bool   `cbor:"eq"`
	NotEqual     bool   `cbor:"ne"`
	Less         bool   `cbor:"lt"`
	LessEqual    bool   `cbor:"le"`
	Greater      bool   `cbor:"gt"`
	GreaterEqual bool   `cbor:"ge"`
	TotalCmp     int    `cbor:"total_cmp"`
}

type evalRequest struct {
	Op string    `cbor:"op"`
	A  half.Half `cbor:"a"`
	B  half.Half `cbor:"b"`
}

type evalResponse struct {
	Result float32 `cbor:"result"`
}

var errUnknownOp = errors.New("unknown operator")

func evalOp(op string, a, b half.Half) (float32, error) {
	switch op {
	case "+", "add":
		return a.Add(b), nil
	case "-", "sub":
		return a.Sub(b), nil
	case "*", "mul":
		return a.Mul(b), nil
	case "/", "div":
		return a.Div(b), nil
	case "%", "rem":
		return a.Rem(b), nil
	case "^", "pow":
		return a.Pow(b), nil
	}
	return 0, fmt.Errorf("%w %q", errUnknownOp, op)
}

// decode reads a CBOR request body into v, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	body := r.Body
	if s.maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, s.maxBody)
	}
	if err := cbor.NewDecoder(body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("Bad Request (CBOR decode): %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeCBOR(w http.ResponseWriter, v any) {
	data, err := cbor.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/cbor")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleNarrow(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "handleNarrow")
	defer span.End()

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues("narrow").Observe(time.Since(start).Seconds())
	}()

	var vals []float64
	if !s.decode(w, r, &vals) {
		return
	}
	span.SetAttributes(attribute.Int("value_count", len(vals)))

	// Admission Control
	weight := int64(len(vals))
	if !s.sem.TryAcquire(weight) {
		log.Warn().Int64("weight", weight).Msg("Rejecting narrow request")
		http.Error(w, "Server busy", http.StatusServiceUnavailable)
		return
	}
	defer s.sem.Release(weight)

	resp := narrowResponse{
		Halves:    make([]half.Half, len(vals)),
		Precision: make([]string, len(vals)),
	}
	for i, v := range vals {
		resp.Halves[i] = half.FromFloat64(v)
		p := half.PrecisionFromFloat64(v)
		resp.Precision[i] = p.String()
		observeNarrowed(p)
	}
	writeCBOR(w, resp)
}

func (s *Server) handleWiden(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "handleWiden")
	defer span.End()

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues("widen").Observe(time.Since(start).Seconds())
	}()

	var halves []half.Half
	if !s.decode(w, r, &halves) {
		return
	}
	span.SetAttributes(attribute.Int("value_count", len(halves)))

	out := make([]float32, len(halves))
	for i, h := range halves {
		out[i] = h.Float32()
	}
	observeWidened(len(out))
	writeCBOR(w, out)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "handleCompare")
	defer span.End()

	var req compareRequest
	if !s.decode(w, r, &req) {
		return
	}
	a, b := req.A, req.B
	writeCBOR(w, compareResponse{
		Ordering:     a.Compare(b).String(),
		Equal:        a.Equal(b),
		NotEqual:     a.NotEqual(b),
		Less:         a.Less(b),
		LessEqual:    a.LessEqual(b),
		Greater:      a.Greater(b),
		GreaterEqual: a.GreaterEqual(b),
		TotalCmp:     half.TotalCmp(a, b),
	})
}

func (s *Server) handleEval(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "handleEval")
	defer span.End()

	var req evalRequest
	if !s.decode(w, r, &req) {
		return
	}
	span.SetAttributes(attribute.String("op", req.Op))

	res, err := evalOp(req.Op, req.A, req.B)
	if err != nil {
		span.RecordError(err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeCBOR(w, evalResponse{Result: res})
}

// handleNarrowArrow narrows every float32 column of an Arrow IPC stream and
// writes the converted batches back as an IPC stream. When a downstream
// Flight server is configured each converted batch is also forwarded.
func (s *Server) handleNarrowArrow(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleNarrowArrow")
	defer span.End()

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues("narrow_arrow").Observe(time.Since(start).Seconds())
	}()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body := r.Body
	if s.maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, s.maxBody)
	}
	reader, err := ipc.NewReader(body, ipc.WithAllocator(s.alloc))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to create IPC reader: %v", err), http.StatusBadRequest)
		return
	}
	defer reader.Release()

	var writer *ipc.Writer
	totalRows := int64(0)
	for reader.Next() {
		out, err := client.NarrowRecord(s.alloc, reader.Record())
		if err != nil {
			if writer == nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			log.Warn().Err(err).Msg("Skipping batch without float32 columns")
			continue
		}

		if writer == nil {
			w.Header().Set("Content-Type", "application/vnd.apache.arrow.stream")
			writer = ipc.NewWriter(w, ipc.WithSchema(out.Schema()), ipc.WithAllocator(s.alloc))
		}
		err = writer.Write(out)
		if err == nil {
			s.forward(ctx, out)
		}
		totalRows += out.NumRows()
		out.Release()
		if err != nil {
			log.Error().Err(err).Msg("Failed to write Arrow batch")
			return
		}
	}

	if reader.Err() != nil {
		log.Error().Err(reader.Err()).Msg("Error reading Arrow stream")
		if writer == nil {
			http.Error(w, "Stream error", http.StatusBadRequest)
		}
		return
	}
	if writer == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	if err := writer.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close Arrow stream")
	}
	span.SetAttributes(attribute.Int64("row_count", totalRows))
}

func (s *Server) forward(ctx context.Context, rec arrow.RecordBatch) {
	if s.forwarder == nil {
		return
	}
	if err := s.forwarder.Forward(ctx, rec); err != nil {
		batchesForwarded.WithLabelValues("error").Inc()
		if errors.Is(err, client.ErrCircuitOpen) {
			log.Warn().Msg("Downstream circuit open, batch not forwarded")
		}
		return
	}
	batchesForwarded.WithLabelValues("ok").Inc()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
