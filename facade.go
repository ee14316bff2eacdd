package streampng

import (
	"io"

	"github.com/pkg/errors"
)

// Reader is a convenience wrapper over Driver that surfaces just the
// image header and successive scanlines, for callers that don't need
// the full event stream. It performs no pixel-format conversion: rows
// are returned exactly as reconstructed by the filter stage, still in
// whatever bit depth and color type the image declares. Indexed-color
// images are returned as raw palette indices; expanding them against
// the PLTE chunk is left to a caller that reads the palette itself.
type Reader struct {
	drv    *Driver
	header ImageHeader
	geom   Geometry
	row    []byte
	ended  bool
}

// NewReader reads and validates the signature and IHDR chunk from r,
// returning a Reader positioned to produce scanlines via NextRow.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	drv := NewDriver(r, nil, opts...)
	rd := &Reader{drv: drv}
	for {
		ev, err := drv.Next()
		if err != nil {
			return nil, err
		}
		switch ev.Kind {
		case EventImageHeader:
			rd.header = ev.Header
			rd.geom = ev.Geometry
			return rd, nil
		case EventImageEnd:
			return nil, errors.WithStack(FormatError("image ended before IHDR was seen"))
		case EventNothing:
			return nil, errors.WithStack(io.ErrUnexpectedEOF)
		}
	}
}

// Header returns the decoded image header and its derived geometry.
func (rd *Reader) Header() (ImageHeader, Geometry) { return rd.header, rd.geom }

// Palette returns the raw PLTE chunk body seen so far, if any. For an
// indexed-color image this must be consulted before NextRow's rows mean
// anything; for other color types it is typically absent.
func (rd *Reader) Palette() ([]byte, bool) { return rd.drv.Decoder().Palette() }

// NextRow returns the next reconstructed scanline, or io.EOF once the
// image has been fully decoded. The returned slice is owned by the
// Reader and only valid until the next call to NextRow.
func (rd *Reader) NextRow() ([]byte, error) {
	if rd.ended {
		return nil, io.EOF
	}
	for {
		ev, err := rd.drv.Next()
		if err != nil {
			return nil, err
		}
		switch ev.Kind {
		case EventImageData:
			return ev.Data, nil
		case EventImageEnd:
			rd.ended = true
			return nil, io.EOF
		case EventNothing:
			return nil, io.ErrUnexpectedEOF
		}
	}
}
