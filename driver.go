package streampng

import (
	"io"

	"github.com/pkg/errors"
)

// DefaultDriverBufferSize is the size of the read buffer a Driver
// refills from its source whenever it runs dry.
const DefaultDriverBufferSize = 10 * 1024

// Driver pulls bytes from an io.Reader and repeatedly calls Advance
// until it produces something worth reporting, refilling its buffer
// from the source whenever it runs out of unconsumed bytes. It is the
// push/pull adapter between a blocking io.Reader and the Decoder's
// push-driven Advance contract. It also owns the row assembler: the
// Decoder's own EventImageData payloads are raw, still-filtered inflate
// output, and reversing the per-scanline filter happens here, one layer
// above the container state machine.
type Driver struct {
	r   io.Reader
	dec *Decoder

	buf        []byte
	pos, end   int
	sourceDone bool

	assembler rowAssembler
}

// NewDriver constructs a Driver reading from r and decoding with dec.
// If dec is nil, a new Decoder is created with opts; opts are ignored
// when dec is non-nil.
func NewDriver(r io.Reader, dec *Decoder, opts ...Option) *Driver {
	if dec == nil {
		dec = NewDecoder(opts...)
	}
	return &Driver{
		r:   r,
		dec: dec,
		buf: make([]byte, DefaultDriverBufferSize),
	}
}

// Decoder returns the driver's underlying Decoder.
func (dr *Driver) Decoder() *Decoder { return dr.dec }

// Next runs the decoder forward, refilling from the source as needed,
// until it returns a non-EventNothing event or the source is
// exhausted. An EventNothing result with a nil error indicates a clean
// end of input before EventImageEnd was reached.
func (dr *Driver) Next() (Event, error) {
	for {
		if dr.pos == dr.end && !dr.sourceDone {
			n, err := dr.r.Read(dr.buf)
			dr.pos, dr.end = 0, n
			if n == 0 {
				if err == io.EOF {
					dr.sourceDone = true
				} else if err != nil {
					return Event{}, errors.WithStack(err)
				}
			} else if err != nil && err != io.EOF {
				return Event{}, errors.WithStack(err)
			} else if err == io.EOF {
				dr.sourceDone = true
			}
		}

		consumed, ev, err := dr.dec.Advance(dr.buf[dr.pos:dr.end])
		dr.pos += consumed
		if err != nil {
			return Event{}, err
		}
		switch ev.Kind {
		case EventImageHeader:
			dr.assembler.init(ev.Geometry.BytesPerPixel, ev.Geometry.RawRowLength-1)
			return ev, nil
		case EventImageData:
			rowDone, ferr := dr.assembler.feed(ev.Data)
			if ferr != nil {
				return Event{}, errors.WithStack(ferr)
			}
			if rowDone {
				return Event{Kind: EventImageData, Data: dr.assembler.lastRow()}, nil
			}
		case EventNothing:
			// fall through to refill/loop below
		default:
			return ev, nil
		}
		if dr.pos == dr.end && dr.sourceDone {
			return Event{Kind: EventNothing}, nil
		}
	}
}
