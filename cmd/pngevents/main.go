// Command pngevents decodes a PNG file and prints the sequence of
// events the decoder produces, one per line. It exists mainly as a
// smoke test for the Driver and as a worked example of driving it.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fumin/streampng"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <file.png>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %+v\n", os.Args[0], err)
		os.Exit(1)
	}
}

func run(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	drv := streampng.NewDriver(f, nil)
	rows := 0
	for {
		ev, err := drv.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case streampng.EventNothing:
			return io.ErrUnexpectedEOF
		case streampng.EventChunkBegin:
			fmt.Printf("chunk-begin  type=%s length=%d\n", ev.ChunkType, ev.ChunkLength)
		case streampng.EventImageHeader:
			fmt.Printf("image-header width=%d height=%d depth=%d color-type=%d\n",
				ev.Header.Width, ev.Header.Height, ev.Header.BitDepth, ev.Header.ColorType)
		case streampng.EventImageData:
			rows++
			fmt.Printf("image-data   bytes=%d (row %d)\n", len(ev.Data), rows)
		case streampng.EventChunkComplete:
			fmt.Printf("chunk-done   type=%s\n", ev.ChunkType)
		case streampng.EventImageEnd:
			fmt.Printf("image-end    rows=%d\n", rows)
			return nil
		}
	}
}
