package streampng

import (
	"bytes"
	"io"
	"testing"
)

func TestReaderNextRow(t *testing.T) {
	rows := [][]byte{{1, 2}, {3, 4}, {5, 6}}
	data := buildPNG(2, 3, 8, ColorGrayscale, rows)

	rd, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	header, geom := rd.Header()
	if header.Width != 2 || header.Height != 3 {
		t.Fatalf("unexpected header: %+v", header)
	}
	if geom.RawRowLength != 3 {
		t.Fatalf("raw row length = %d, want 3", geom.RawRowLength)
	}

	var got [][]byte
	for {
		row, err := rd.NextRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("%+v", err)
		}
		got = append(got, append([]byte(nil), row...))
	}
	if len(got) != len(rows) {
		t.Fatalf("got %d rows, want %d", len(got), len(rows))
	}
	for i := range rows {
		if !bytes.Equal(got[i], rows[i]) {
			t.Errorf("row %d = %v, want %v", i, got[i], rows[i])
		}
	}

	if _, err := rd.NextRow(); err != io.EOF {
		t.Fatalf("expected io.EOF after image end, got %v", err)
	}
}

func TestReaderPalette(t *testing.T) {
	palette := []byte{0xff, 0x00, 0x00, 0x00, 0xff, 0x00, 0x00, 0x00, 0xff}
	rows := [][]byte{{0, 1}, {1, 0}}
	raw := filterNoneStream(rows)

	var data bytes.Buffer
	data.Write(pngSignature[:])
	data.Write(buildIHDR(2, 2, 8, ColorIndexed, 0))
	data.Write(buildChunk(ChunkPLTE, palette))
	data.Write(buildIDAT(raw))
	data.Write(buildIEND())

	rd, err := NewReader(bytes.NewReader(data.Bytes()))
	if err != nil {
		t.Fatalf("%+v", err)
	}

	if _, ok := rd.Palette(); ok {
		t.Fatal("palette reported present before PLTE chunk was read")
	}

	if _, err := rd.NextRow(); err != nil {
		t.Fatalf("%+v", err)
	}

	got, ok := rd.Palette()
	if !ok {
		t.Fatal("expected palette to be present")
	}
	if !bytes.Equal(got, palette) {
		t.Errorf("palette = %v, want %v", got, palette)
	}
}

func TestNewReaderRejectsBadSignature(t *testing.T) {
	data := buildPNG(2, 2, 8, ColorGrayscale, [][]byte{{1, 2}, {3, 4}})
	data[0] = 0x00

	_, err := NewReader(bytes.NewReader(data))
	if err == nil {
		t.Fatal("expected an error")
	}
}
