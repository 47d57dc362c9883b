package main

import (
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/23skdu/longbow-half/internal/client"
)

type HalfFlightServer struct {
	flight.BaseFlightServer
	alloc memory.Allocator
}

func NewHalfFlightServer() *HalfFlightServer {
	return &HalfFlightServer{
		alloc: memory.NewGoAllocator(),
	}
}

// convertFor maps an exchange command to its record conversion.
func (s *HalfFlightServer) convertFor(desc *flight.FlightDescriptor) (func(arrow.RecordBatch) (arrow.RecordBatch, error), error) {
	cmd := client.CmdNarrow
	if desc != nil && len(desc.Cmd) > 0 {
		cmd = string(desc.Cmd)
	}
	switch cmd {
	case client.CmdNarrow:
		return func(rec arrow.RecordBatch) (arrow.RecordBatch, error) { return client.NarrowRecord(s.alloc, rec) }, nil
	case client.CmdWiden:
		return func(rec arrow.RecordBatch) (arrow.RecordBatch, error) { return client.WidenRecord(s.alloc, rec) }, nil
	}
	return nil, status.Errorf(codes.InvalidArgument, "unknown exchange command %q", cmd)
}

// DoExchange converts each incoming batch according to the descriptor's
// command and streams the result back.
func (s *HalfFlightServer) DoExchange(stream flight.FlightService_DoExchangeServer) error {
	reader, err := flight.NewRecordReader(stream, ipc.WithAllocator(s.alloc))
	if err != nil {
		return err
	}
	defer reader.Release()

	convert, err := s.convertFor(reader.LatestFlightDescriptor())
	if err != nil {
		return err
	}

	var writer *flight.Writer
	for reader.Next() {
		out, err := convert(reader.Record())
		if err != nil {
			return status.Error(codes.InvalidArgument, err.Error())
		}
		if writer == nil {
			writer = flight.NewRecordWriter(stream, ipc.WithSchema(out.Schema()), ipc.WithAllocator(s.alloc))
		}
		err = writer.Write(out)
		log.Debug().Int64("rows", out.NumRows()).Msg("DoExchange converted batch")
		out.Release()
		if err != nil {
			return fmt.Errorf("failed to write batch: %w", err)
		}
	}
	if err := reader.Err(); err != nil {
		return err
	}
	if writer != nil {
		return writer.Close()
	}
	return nil
}

// DoPut narrows every incoming batch and logs the per-dataset row count.
// Batches that already carry float16 columns and no float32 column are
// counted as narrowed.
func (s *HalfFlightServer) DoPut(stream flight.FlightService_DoPutServer) error {
	reader, err := flight.NewRecordReader(stream, ipc.WithAllocator(s.alloc))
	if err != nil {
		return err
	}
	defer reader.Release()

	dataset := ""
	if desc := reader.LatestFlightDescriptor(); desc != nil && len(desc.Path) > 0 {
		dataset = desc.Path[0]
	}

	var rows int64
	for reader.Next() {
		rec := reader.Record()
		out, err := client.NarrowRecord(s.alloc, rec)
		switch {
		case err == nil:
			rows += out.NumRows()
			out.Release()
		case errors.Is(err, client.ErrNoFloat32Column) && client.HasFloat16Column(rec):
			rows += rec.NumRows()
		default:
			return status.Error(codes.InvalidArgument, err.Error())
		}
	}
	if err := reader.Err(); err != nil {
		return err
	}
	log.Info().Str("dataset", dataset).Int64("rows", rows).Msg("DoPut narrowed batches")
	return nil
}

func StartFlightServer(addr string) {
	server := flight.NewServerWithMiddleware(nil)
	server.RegisterFlightService(NewHalfFlightServer())

	// Init handles the listener creation internally
	if err := server.Init(addr); err != nil {
		log.Fatal().Err(err).Msg("Failed to init Flight server")
	}

	log.Info().Str("addr", addr).Msg("Starting halfconv Flight server")
	if err := server.Serve(); err != nil {
		log.Fatal().Err(err).Msg("Flight server failed")
	}
}
