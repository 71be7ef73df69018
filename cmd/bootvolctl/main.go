// Command bootvolctl drives the bootvol core against a file-backed disk
// image the way a test harness would before the code is linked into a real
// bootloader: it opens an image, walks its partition table, mounts whatever
// filesystem it finds, and lists or dumps files from it.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()

	if err := newRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("bootvolctl failed")
		os.Exit(1)
	}
}
