package streampng

import (
	"encoding/binary"
	"hash"
	"hash/crc32"

	"github.com/pkg/errors"
)

var pngSignature = [8]byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

type stateKind uint8

const (
	stateSignature stateKind = iota
	stateLength
	stateType
	stateReadChunk
	stateDecodeData
	stateCRC
	stateDone
)

const (
	// DefaultChunkBufferSize bounds how many raw chunk-body bytes the
	// decoder accumulates before routing an IDAT chunk's contents
	// through the inflate adapter.
	DefaultChunkBufferSize = 10 * 1024
	// DefaultScratchSize bounds the decompression output window used
	// per inflate step, in addition to the current row's own size.
	DefaultScratchSize = 32 * 1024
)

// Option configures a Decoder at construction time.
type Option func(*decoderConfig)

type decoderConfig struct {
	chunkBufferSize int
	scratchSize     int
}

// WithChunkBufferSize overrides the chunk-body buffer capacity.
func WithChunkBufferSize(n int) Option {
	return func(c *decoderConfig) { c.chunkBufferSize = n }
}

// WithScratchSize overrides the inflate adapter's output scratch buffer
// capacity.
func WithScratchSize(n int) Option {
	return func(c *decoderConfig) { c.scratchSize = n }
}

// Decoder is a resumable, push-driven PNG container and inflate state
// machine; reversing the per-scanline filters is left to Driver. It owns every buffer it touches; an
// EventImageData payload returned from Advance borrows that memory and
// is only valid until the next call to Advance.
type Decoder struct {
	cfg decoderConfig

	kind stateKind

	acc    [4]byte
	accLen int
	sigPos int

	chunkLength    uint32
	chunkType      ChunkType
	chunkRemaining uint32

	crc  hash.Hash32
	body []byte

	scratch []byte
	inflate *inflateAdapter

	header     ImageHeader
	geometry   Geometry
	haveHeader bool

	palette     []byte
	havePalette bool

	rowRemaining int
}

// NewDecoder constructs a Decoder ready to parse a PNG stream from its
// first byte.
func NewDecoder(opts ...Option) *Decoder {
	cfg := decoderConfig{
		chunkBufferSize: DefaultChunkBufferSize,
		scratchSize:     DefaultScratchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	d := &Decoder{cfg: cfg}
	d.reset()
	return d
}

// Reset returns the decoder to its initial state so it can decode a new
// PNG stream, reusing its existing buffers.
func (d *Decoder) Reset() {
	d.reset()
}

func (d *Decoder) reset() {
	if d.inflate != nil {
		d.inflate.close()
	}
	d.kind = stateSignature
	d.sigPos = 0
	d.accLen = 0
	d.crc = crc32.NewIEEE()
	if cap(d.body) < d.cfg.chunkBufferSize {
		d.body = make([]byte, 0, d.cfg.chunkBufferSize)
	} else {
		d.body = d.body[:0]
	}
	if cap(d.scratch) < d.cfg.scratchSize {
		d.scratch = make([]byte, d.cfg.scratchSize)
	}
	d.inflate = newInflateAdapter()
	d.haveHeader = false
	d.havePalette = false
	d.rowRemaining = 0
}

// Header reports the decoded image header, if the IHDR chunk has been
// parsed yet.
func (d *Decoder) Header() (ImageHeader, Geometry, bool) {
	return d.header, d.geometry, d.haveHeader
}

// Palette reports the raw PLTE chunk body, if one has been seen. Entries
// are three bytes each (R, G, B); expanding an indexed-color image's
// rows against this table is left to a caller that needs pixel values.
func (d *Decoder) Palette() ([]byte, bool) {
	return d.palette, d.havePalette
}

// Advance feeds input to the decoder and runs it forward until either a
// meaningful event occurs or the input is exhausted. It returns how
// many leading bytes of input were consumed; the caller is expected to
// retain any unconsumed suffix and supply it, followed by more bytes,
// on the next call.
func (d *Decoder) Advance(input []byte) (int, Event, error) {
	consumed := 0
	for {
		if d.kind == stateDone {
			return consumed, Event{Kind: EventNothing}, nil
		}
		remaining := input[consumed:]
		n, ev, err := d.step(remaining)
		consumed += n
		if err != nil {
			return consumed, Event{}, err
		}
		if ev.Kind != EventNothing {
			return consumed, ev, nil
		}
		if n == 0 && len(remaining) == 0 {
			return consumed, Event{Kind: EventNothing}, nil
		}
	}
}

func (d *Decoder) step(input []byte) (int, Event, error) {
	switch d.kind {
	case stateSignature:
		return d.stepSignature(input)
	case stateLength:
		return d.stepLength(input)
	case stateType:
		return d.stepType(input)
	case stateReadChunk:
		return d.stepReadChunk(input)
	case stateDecodeData:
		return d.stepDecodeData(input)
	case stateCRC:
		return d.stepCRC(input)
	default:
		return 0, Event{Kind: EventNothing}, nil
	}
}

func (d *Decoder) stepSignature(input []byte) (int, Event, error) {
	n := 0
	for n < len(input) {
		if input[n] != pngSignature[d.sigPos] {
			return n + 1, Event{}, errors.WithStack(InvalidSignatureError{})
		}
		d.sigPos++
		n++
		if d.sigPos == len(pngSignature) {
			d.kind = stateLength
			d.accLen = 0
			return n, Event{Kind: EventNothing}, nil
		}
	}
	return n, Event{Kind: EventNothing}, nil
}

func (d *Decoder) fillAcc(input []byte) int {
	n := len(input)
	if need := 4 - d.accLen; n > need {
		n = need
	}
	if n > 0 {
		copy(d.acc[d.accLen:], input[:n])
		d.accLen += n
	}
	return n
}

func (d *Decoder) stepLength(input []byte) (int, Event, error) {
	n := d.fillAcc(input)
	if d.accLen < 4 {
		return n, Event{Kind: EventNothing}, nil
	}
	d.chunkLength = binary.BigEndian.Uint32(d.acc[:4])
	d.accLen = 0
	d.kind = stateType
	return n, Event{Kind: EventNothing}, nil
}

func (d *Decoder) stepType(input []byte) (int, Event, error) {
	n := d.fillAcc(input)
	if d.accLen < 4 {
		return n, Event{Kind: EventNothing}, nil
	}
	var ct ChunkType
	copy(ct[:], d.acc[:4])
	d.chunkType = ct
	d.chunkRemaining = d.chunkLength
	d.crc.Reset()
	d.crc.Write(ct[:])
	d.body = d.body[:0]
	d.accLen = 0
	d.kind = stateReadChunk
	return n, Event{Kind: EventChunkBegin, ChunkLength: d.chunkLength, ChunkType: ct}, nil
}

func (d *Decoder) stepReadChunk(input []byte) (int, Event, error) {
	if d.chunkType == ChunkIDAT {
		if d.chunkRemaining == 0 || len(d.body) == cap(d.body) {
			d.kind = stateDecodeData
			return 0, Event{Kind: EventNothing}, nil
		}
		n := len(input)
		if n == 0 {
			return 0, Event{Kind: EventNothing}, nil
		}
		if uint32(n) > d.chunkRemaining {
			n = int(d.chunkRemaining)
		}
		if room := cap(d.body) - len(d.body); n > room {
			n = room
		}
		d.body = append(d.body, input[:n]...)
		d.crc.Write(input[:n])
		d.chunkRemaining -= uint32(n)
		return n, Event{Kind: EventNothing}, nil
	}

	if d.chunkRemaining == 0 {
		d.kind = stateCRC
		return 0, Event{Kind: EventNothing}, nil
	}
	n := len(input)
	if n == 0 {
		return 0, Event{Kind: EventNothing}, nil
	}
	if uint32(n) > d.chunkRemaining {
		n = int(d.chunkRemaining)
	}
	if d.chunkType == ChunkIHDR || d.chunkType == ChunkPLTE {
		d.body = append(d.body, input[:n]...)
	}
	d.crc.Write(input[:n])
	d.chunkRemaining -= uint32(n)
	return n, Event{Kind: EventNothing}, nil
}

func (d *Decoder) stepDecodeData(input []byte) (int, Event, error) {
	if !d.haveHeader {
		return 0, Event{}, errors.WithStack(FormatError("IHDR chunk missing"))
	}

	if d.rowRemaining == 0 {
		d.rowRemaining = d.geometry.RawRowLength
	}
	want := d.rowRemaining
	if want > len(d.scratch) {
		want = len(d.scratch)
	}

	_, produced, done, err := d.inflate.step(d.body, d.scratch[:want])
	d.body = d.body[:0]
	if err != nil {
		return 0, Event{}, err
	}
	d.rowRemaining -= produced

	var ev Event
	if produced > 0 {
		// Raw, still-filtered inflate output: reversing the per-scanline
		// filter is the pull driver's job (driver.go), not the container
		// state machine's.
		ev = Event{Kind: EventImageData, Data: d.scratch[:produced]}
	}

	switch {
	case done:
		if d.chunkRemaining > 0 {
			return 0, Event{}, errors.WithStack(&CorruptStreamError{Reason: "IDAT data follows end of compressed stream"})
		}
		d.kind = stateCRC
	case d.chunkRemaining == 0 && produced == 0:
		d.kind = stateCRC
	default:
		// With the chunk fully read, stateReadChunk routes straight back
		// here, so the adapter keeps being drained until a step produces
		// nothing.
		d.kind = stateReadChunk
	}

	return 0, ev, nil
}

func (d *Decoder) stepCRC(input []byte) (int, Event, error) {
	n := d.fillAcc(input)
	if d.accLen < 4 {
		return n, Event{Kind: EventNothing}, nil
	}
	stored := binary.BigEndian.Uint32(d.acc[:4])
	computed := d.crc.Sum32()
	d.accLen = 0
	if stored != computed {
		return n, Event{}, errors.WithStack(&CrcMismatchError{Recover: 1, ChunkType: d.chunkType, Stored: stored, Computed: computed})
	}

	switch d.chunkType {
	case ChunkIHDR:
		header, geometry, err := parseIHDR(d.body)
		if err != nil {
			return n, Event{}, err
		}
		d.header = header
		d.geometry = geometry
		d.haveHeader = true
		d.rowRemaining = 0
		d.kind = stateLength
		return n, Event{Kind: EventImageHeader, Header: header, Geometry: geometry}, nil
	case ChunkPLTE:
		d.palette = append(d.palette[:0], d.body...)
		d.havePalette = true
		d.kind = stateLength
		return n, Event{Kind: EventChunkComplete, ChunkLength: d.chunkLength, ChunkType: d.chunkType, CRC: stored}, nil
	case ChunkIEND:
		d.kind = stateDone
		return n, Event{Kind: EventImageEnd}, nil
	default:
		d.kind = stateLength
		return n, Event{Kind: EventChunkComplete, ChunkLength: d.chunkLength, ChunkType: d.chunkType, CRC: stored}, nil
	}
}
