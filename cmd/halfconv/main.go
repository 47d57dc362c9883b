package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"github.com/23skdu/longbow-half/internal/analyze"
	"github.com/23skdu/longbow-half/internal/client"
	"github.com/23skdu/longbow-half/internal/half"
	"github.com/23skdu/longbow-half/internal/rawio"
	"github.com/23skdu/longbow-half/internal/textin"
)

var (
	bitsMode      = flag.Bool("bits", false, "Treat arguments as binary16 bit patterns (e.g. 0x3c00) and widen them")
	inPath        = flag.String("in", "", "Raw input file to convert (float32, or binary16 with -widen)")
	outPath       = flag.String("out", "", "Raw output file for -in")
	widenFile     = flag.Bool("widen", false, "With -in, widen a binary16 file to float32 instead of narrowing")
	analyzePath   = flag.String("analyze", "", "Report how a raw float32 file survives narrowing")
	arrowOut      = flag.Bool("arrow", false, "Write narrowed arguments to stdout as an Arrow IPC stream")
	cpuProfile    = flag.String("cpuprofile", "", "Write cpu profile to file")
	serverAddr    = flag.String("server", "", "Flight server address to DoPut narrowed values to (e.g., localhost:3000)")
	datasetName   = flag.String("dataset", "halfconv_dataset", "Target dataset name on server")
	listenAddr    = flag.String("listen", "", "Address to listen on for HTTP Server (e.g. :8080)")
	flightAddr    = flag.String("flight", "", "Address to listen on for Flight Server (e.g. :9090)")
	maxConcurrent = flag.Int("max-concurrent", 1<<20, "Maximum number of values narrowed concurrently by the HTTP server")
	flagMaxBody   = flag.String("max-body", "64MB", "Maximum HTTP request body (e.g. 64MB, 512KB)")
	enableOTel    = flag.Bool("otel", false, "Enable OpenTelemetry tracing (stdout)")
)

func parseBytes(s string) int64 {
	// 4GB, 100MB, 1024
	if s == "" || s == "0" {
		return 0
	}
	var val int64
	var unit string
	_, _ = fmt.Sscanf(s, "%d%s", &val, &unit)

	switch unit {
	case "GB", "G":
		return val * 1024 * 1024 * 1024
	case "MB", "M":
		return val * 1024 * 1024
	case "KB", "K":
		return val * 1024
	default:
		return val
	}
}

func main() {
	// Initialize logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	flag.Parse()

	if *enableOTel {
		shutdown, err := initTracer()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize tracer")
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create CPU profile file")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("Could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	// Server Mode
	if *listenAddr != "" {
		var fcInterface FlightClientInterface
		if *serverAddr != "" {
			fc, err := client.NewFlightClient(*serverAddr)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to create flight client")
			}
			log.Info().Str("addr", *serverAddr).Msg("Connected to Flight Server")
			fcInterface = fc
		}

		maxBody := parseBytes(*flagMaxBody)
		log.Info().Str("max_body", *flagMaxBody).Int64("bytes", maxBody).Msg("Request body limit")

		go startServer(*listenAddr, fcInterface, *datasetName, *maxConcurrent, maxBody)
		if *flightAddr == "" {
			select {}
		}
	}

	if *flightAddr != "" {
		StartFlightServer(*flightAddr)
		return
	}

	switch {
	case *analyzePath != "":
		runAnalyze(*analyzePath)
	case *inPath != "":
		runConvertFile(*inPath, *outPath, *widenFile)
	default:
		runValues(flag.Args())
	}
}

type valueRow struct {
	Input     string
	Half      half.Half
	Precision half.Precision
}

// describe parses one command-line argument. In bits mode the argument is a
// raw pattern and always exact.
func describe(arg string, bits bool) (valueRow, error) {
	if bits {
		h, err := textin.ParseBits(arg)
		if err != nil {
			return valueRow{}, err
		}
		return valueRow{Input: arg, Half: h, Precision: half.PrecisionExact}, nil
	}
	f, err := textin.ParseFloat(arg)
	if err != nil {
		return valueRow{}, err
	}
	return valueRow{Input: arg, Half: half.FromFloat64(f), Precision: half.PrecisionFromFloat64(f)}, nil
}

func printRows(w io.Writer, rows []valueRow) {
	for _, r := range rows {
		fmt.Fprintf(w, "%-16s 0x%04x  %-14s %s\n", r.Input, r.Half.Bits(), r.Half, r.Precision)
	}
}

func runValues(args []string) {
	if len(args) == 0 {
		log.Fatal().Msg("No values given (pass numbers, or bit patterns with -bits)")
	}

	rows := make([]valueRow, 0, len(args))
	vector := make([]float32, 0, len(args))
	for _, arg := range args {
		row, err := describe(arg, *bitsMode)
		if err != nil {
			log.Fatal().Err(err).Str("arg", arg).Msg("Invalid value")
		}
		rows = append(rows, row)
		vector = append(vector, row.Half.Float32())
	}

	if !*arrowOut {
		printRows(os.Stdout, rows)
	}
	if *serverAddr == "" && !*arrowOut {
		return
	}

	builder := client.NewRecordBatchBuilder(memory.NewGoAllocator())
	rec, err := builder.BuildRecordBatch([][]float32{vector})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build record batch")
	}
	defer rec.Release()

	if *serverAddr != "" {
		log.Info().Int("count", len(vector)).Str("server", *serverAddr).Str("dataset", *datasetName).Msg("Sending halves to Flight server")
		flightClient, err := client.NewFlightClient(*serverAddr)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Flight server")
		}
		defer func() {
			if err := flightClient.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close flight client")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		if err := flightClient.DoPut(ctx, *datasetName, rec); err != nil {
			log.Error().Err(err).Msg("Flight DoPut failed")
			return
		}
		log.Info().Msg("Successfully sent halves")
	}

	if *arrowOut {
		if err := writeArrowStream(os.Stdout, rec); err != nil {
			log.Warn().Err(err).Msg("Failed to write arrow stream")
		}
	}
}

func runConvertFile(in, out string, widen bool) {
	if out == "" {
		log.Fatal().Msg("-out is required with -in")
	}

	start := time.Now()
	var n int
	var err error
	if widen {
		n, err = rawio.WidenFile(in, out)
	} else {
		n, err = rawio.NarrowFile(in, out)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Conversion failed")
	}
	log.Info().
		Str("in", in).
		Str("out", out).
		Bool("widen", widen).
		Int("count", n).
		Dur("elapsed", time.Since(start)).
		Msg("Converted file")
}

func runAnalyze(path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open input")
	}
	defer f.Close()

	data, err := rawio.ReadFloat32s(f)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to read float32 data")
	}

	rep := analyze.Float32s(data)
	if rep.Problematic() {
		log.Warn().
			Int("out_of_range", rep.OutOfRangeCount).
			Int("nan", rep.NaNCount).
			Int("inf", rep.InfCount).
			Msg("Dataset does not fit binary16 cleanly")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode report")
	}
}

func writeArrowStream(w io.Writer, rec arrow.RecordBatch) error {
	writer := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()))
	if err := writer.Write(rec); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

func initTracer() (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("halfconv"),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp.Shutdown, nil
}
