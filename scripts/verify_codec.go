//go:build ignore

// Exhaustively compares the binary16 codec against x448/float16.
package main

import (
	"fmt"
	"math"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/x448/float16"

	"github.com/23skdu/longbow-half/internal/half"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	mismatches := 0
	for i := 0; i < 1<<16; i++ {
		got := math.Float32bits(half.FromBits(uint16(i)).Float32())
		want := math.Float32bits(float16.Frombits(uint16(i)).Float32())
		if got != want {
			mismatches++
			log.Error().Uint16("bits", uint16(i)).Uint32("got", got).Uint32("want", want).Msg("Widen mismatch")
		}
	}
	log.Info().Int("mismatches", mismatches).Msg("Checked all binary16 encodings")

	// Every float32 bit pattern; takes a few seconds.
	narrowMismatches := 0
	for u := uint64(0); u < 1<<32; u++ {
		f := math.Float32frombits(uint32(u))
		got := half.FromFloat32(f).Bits()
		want := float16.Fromfloat32(f).Bits()
		if got != want {
			narrowMismatches++
			if narrowMismatches <= 20 {
				log.Error().Uint32("bits", uint32(u)).Uint16("got", got).Uint16("want", want).Msg("Narrow mismatch")
			}
		}
	}
	log.Info().Int("mismatches", narrowMismatches).Msg("Checked all float32 encodings")

	if mismatches+narrowMismatches > 0 {
		os.Exit(1)
	}
	fmt.Println("VERIFICATION PASSED")
}
