package streampng

// ChunkType is the four-byte ASCII type code that begins every PNG
// chunk after its length field.
type ChunkType [4]byte

func (t ChunkType) String() string { return string(t[:]) }

// Ancillary reports whether the chunk may be ignored by a reader that
// does not understand it (bit 5 of the first byte is set).
func (t ChunkType) Ancillary() bool { return t[0]&0x20 != 0 }

var (
	ChunkIHDR = ChunkType{'I', 'H', 'D', 'R'}
	ChunkIDAT = ChunkType{'I', 'D', 'A', 'T'}
	ChunkIEND = ChunkType{'I', 'E', 'N', 'D'}
	ChunkPLTE = ChunkType{'P', 'L', 'T', 'E'}
)
