package streampng

import "fmt"

// FormatError reports a structural violation of the PNG container or of
// the IHDR fields: an unrecognized color type, a non-zero compression
// or filter method, a malformed chunk length, and so on.
type FormatError string

func (e FormatError) Error() string { return "streampng: invalid format: " + string(e) }

// InvalidSignatureError is returned when the first eight bytes of the
// stream do not match the PNG signature.
type InvalidSignatureError struct{}

func (InvalidSignatureError) Error() string { return "streampng: not a PNG file" }

// CrcMismatchError reports that a chunk's trailing CRC-32 did not match
// the checksum computed over its type and data while it was read.
// Recover advises a caller how many bytes to skip, from the start of
// the offending chunk's length field, before retrying.
type CrcMismatchError struct {
	Recover   int
	ChunkType ChunkType
	Stored    uint32
	Computed  uint32
}

func (e *CrcMismatchError) Error() string {
	return fmt.Sprintf("streampng: crc mismatch in %s chunk: stored=%08x computed=%08x",
		e.ChunkType, e.Stored, e.Computed)
}

// CorruptStreamError reports that the compressed image data stream
// could not be decoded: a malformed zlib/deflate stream, or data
// supplied after the stream had already signaled completion.
type CorruptStreamError struct {
	Reason string
}

func (e *CorruptStreamError) Error() string {
	return "streampng: corrupt compressed stream: " + e.Reason
}

// UnsupportedError reports a structurally valid PNG feature that this
// decoder does not implement. No code path in this package returns it:
// an interlaced header (interlace method 1) is accepted, and its image
// data is passed through without Adam7 reconstruction.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "streampng: unsupported: " + string(e) }
