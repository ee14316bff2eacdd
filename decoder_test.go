package streampng

import (
	"bytes"
	"compress/zlib"
	"errors"
	"testing"
)

func sampleRows() [][]byte {
	return [][]byte{
		{0x00, 0x10, 0x20, 0x30},
		{0x05, 0x15, 0x25, 0x35},
		{0xff, 0x00, 0xff, 0x00},
	}
}

func TestDecodeFeedSizes(t *testing.T) {
	rows := sampleRows()
	data := buildPNG(4, 3, 8, ColorGrayscale, rows)
	want := filterNoneStream(rows)

	for _, feedSize := range []int{0, 1, 2, 3, 7, 64, 4096} {
		dec := NewDecoder()
		header, got, err := runDecoder(t, dec, data, feedSize)
		if err != nil {
			t.Fatalf("feedSize=%d: %+v", feedSize, err)
		}
		if header.Width != 4 || header.Height != 3 || header.ColorType != ColorGrayscale {
			t.Fatalf("feedSize=%d: unexpected header %+v", feedSize, header)
		}
		// Property: the concatenation of every ImageData payload
		// equals the inflation of the concatenation of all IDAT
		// chunk bodies, filter bytes included.
		if !bytes.Equal(got, want) {
			t.Errorf("feedSize=%d: raw stream = %v, want %v", feedSize, got, want)
		}
	}
}

func TestDecodeAcrossMultipleIDATChunks(t *testing.T) {
	rows := sampleRows()
	raw := filterNoneStream(rows)

	var data bytes.Buffer
	data.Write(pngSignature[:])
	data.Write(buildIHDR(4, 3, 8, ColorGrayscale, 0))
	data.Write(buildIDATChunks(raw, 5))
	data.Write(buildIEND())

	dec := NewDecoder()
	_, got, err := runDecoder(t, dec, data.Bytes(), 3)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Errorf("raw stream = %v, want %v", got, raw)
	}
}

func TestInvalidSignature(t *testing.T) {
	data := buildPNG(2, 2, 8, ColorGrayscale, [][]byte{{1, 2}, {3, 4}})
	data[3] = 0xff

	dec := NewDecoder()
	_, _, err := runDecoder(t, dec, data, 0)
	if err == nil {
		t.Fatal("expected an error")
	}
	var sigErr InvalidSignatureError
	if !errors.As(err, &sigErr) {
		t.Fatalf("got %+v, want InvalidSignatureError", err)
	}
}

func TestCrcMismatch(t *testing.T) {
	data := buildPNG(2, 2, 8, ColorGrayscale, [][]byte{{1, 2}, {3, 4}})
	// Flip every bit of one byte inside the IHDR chunk's data without
	// fixing its CRC.
	data[8+8+4] ^= 0xff

	dec := NewDecoder()
	_, _, err := runDecoder(t, dec, data, 0)
	if err == nil {
		t.Fatal("expected an error")
	}
	var crcErr *CrcMismatchError
	if !errors.As(err, &crcErr) {
		t.Fatalf("got %+v, want *CrcMismatchError", err)
	}
}

func TestDataAfterStreamEndIsCorrupt(t *testing.T) {
	rows := [][]byte{{1, 2}, {3, 4}}
	var raw bytes.Buffer
	for _, row := range rows {
		raw.WriteByte(0)
		raw.Write(row)
	}

	var zbuf bytes.Buffer
	{
		w := zlib.NewWriter(&zbuf)
		w.Write(raw.Bytes())
		w.Close()
	}
	// Append trailing garbage, then split so it rides in its own IDAT
	// chunk after the real stream has already finished.
	garbage := append(append([]byte(nil), zbuf.Bytes()...), 0xde, 0xad, 0xbe, 0xef)

	var data bytes.Buffer
	data.Write(pngSignature[:])
	data.Write(buildIHDR(2, 2, 8, ColorGrayscale, 0))
	data.Write(buildChunk(ChunkIDAT, garbage[:len(zbuf.Bytes())]))
	data.Write(buildChunk(ChunkIDAT, garbage[len(zbuf.Bytes()):]))
	data.Write(buildIEND())

	dec := NewDecoder()
	_, _, err := runDecoder(t, dec, data.Bytes(), 1)
	if err == nil {
		t.Fatal("expected a corrupt stream error")
	}
	var cs *CorruptStreamError
	if !errors.As(err, &cs) {
		t.Fatalf("got %+v, want *CorruptStreamError", err)
	}
}
