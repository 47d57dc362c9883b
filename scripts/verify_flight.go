//go:build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/23skdu/longbow-half/internal/client"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	addr := "localhost:9090"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	log.Info().Str("addr", addr).Msg("Connecting to halfconv Flight server")

	c, err := client.NewFlightClient(addr)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create client")
	}
	defer c.Close()

	vectors := [][]float32{
		{1, 2, 3},
		{0.1, -0.5, 65504},
		{1e-7, 70000, -2},
	}
	want := [][]float32{
		{1, 2, 3},
		{0.0999755859375, -0.5, 65504},
	}

	// Build a float32 batch by widening what BuildRecordBatch narrows, so
	// the server gets a list<float32> column to narrow again.
	rec, err := client.NewRecordBatchBuilder(memory.NewGoAllocator()).BuildRecordBatch(vectors)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build batch")
	}
	defer rec.Release()
	wide, err := client.WidenRecord(memory.NewGoAllocator(), rec)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to widen batch")
	}
	defer wide.Release()

	var out []float32
	for attempt := 0; ; attempt++ {
		start := time.Now()
		res, err := c.Exchange(context.Background(), client.CmdNarrow, wide)
		if err == nil {
			log.Info().Dur("elapsed", time.Since(start)).Int("batches", len(res)).Msg("Exchange complete")
			for _, r := range res {
				vals := r.Column(0).(*array.List).ListValues().(*array.Float16)
				for i := 0; i < vals.Len(); i++ {
					out = append(out, vals.Value(i).Float32())
				}
				r.Release()
			}
			break
		}
		if attempt == 9 {
			log.Fatal().Err(err).Msg("Exchange failed after retries")
		}
		log.Warn().Err(err).Msg("Exchange failed, retrying...")
		time.Sleep(1 * time.Second)
	}

	if len(out) != 9 {
		log.Fatal().Int("expected", 9).Int("got", len(out)).Msg("Count mismatch")
	}
	for i, row := range want {
		for j, v := range row {
			if got := out[i*3+j]; got != v {
				log.Fatal().Int("row", i).Int("col", j).Float32("want", v).Float32("got", got).Msg("Value mismatch")
			}
		}
	}

	fmt.Println("VERIFICATION PASSED")
}
