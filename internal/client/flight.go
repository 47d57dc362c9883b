package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Exchange commands understood by the halfconv Flight server.
const (
	CmdNarrow = "narrow"
	CmdWiden  = "widen"
)

// FlightClient talks to a Flight server that stores or converts binary16 batches.
type FlightClient struct {
	client flight.Client
	conn   *grpc.ClientConn
}

// NewFlightClient creates a new Flight client connected to the given address.
func NewFlightClient(addr string) (*FlightClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}

	client := flight.NewClientFromConn(conn, nil)
	return &FlightClient{
		client: client,
		conn:   conn,
	}, nil
}

// DoPut sends a RecordBatch to the given dataset and waits for the server to
// acknowledge it.
func (c *FlightClient) DoPut(ctx context.Context, datasetName string, record arrow.RecordBatch) error {
	desc := &flight.FlightDescriptor{
		Type: flight.DescriptorPATH,
		Path: []string{datasetName},
	}

	stream, err := c.client.DoPut(ctx)
	if err != nil {
		return err
	}

	writer := flight.NewRecordWriter(stream, ipc.WithSchema(record.Schema()))
	writer.SetFlightDescriptor(desc)

	if err := writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}

	for {
		if _, err := stream.Recv(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// Exchange streams record to the server under cmd (CmdNarrow or CmdWiden)
// and returns the converted batches. Callers release the returned batches.
func (c *FlightClient) Exchange(ctx context.Context, cmd string, record arrow.RecordBatch) ([]arrow.RecordBatch, error) {
	g, gctx := errgroup.WithContext(ctx)

	stream, err := c.client.DoExchange(gctx)
	if err != nil {
		return nil, err
	}

	g.Go(func() error {
		writer := flight.NewRecordWriter(stream, ipc.WithSchema(record.Schema()))
		writer.SetFlightDescriptor(&flight.FlightDescriptor{
			Type: flight.DescriptorCMD,
			Cmd:  []byte(cmd),
		})
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
		if err := writer.Close(); err != nil {
			return err
		}
		return stream.CloseSend()
	})

	var out []arrow.RecordBatch
	g.Go(func() error {
		reader, err := flight.NewRecordReader(stream)
		if err != nil {
			return fmt.Errorf("failed to open exchange reader: %w", err)
		}
		defer reader.Release()

		for reader.Next() {
			rec := reader.Record()
			rec.Retain()
			out = append(out, rec)
		}
		return reader.Err()
	})

	if err := g.Wait(); err != nil {
		for _, rec := range out {
			rec.Release()
		}
		return nil, err
	}
	return out, nil
}

// Close closes the client connection.
func (c *FlightClient) Close() error {
	return c.conn.Close()
}
