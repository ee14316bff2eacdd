// Package streampng implements the core of a streaming PNG decoder: a
// push-driven, byte-level state machine that consumes an arbitrary-size
// byte stream and emits a sequence of typed decoding events (chunk
// boundaries, the image header, successive runs of decompressed,
// still-filtered scanline data, end of image). The filters are reversed
// one layer up, by Driver.
//
// The decoder never assumes it receives a complete file in a single
// call. Callers feed it whatever bytes they have via Decoder.Advance,
// which reports how many bytes were consumed and what, if anything,
// was produced; the caller re-enters with whatever bytes remain.
//
// Three things are explicitly out of scope for the core and are left to
// a layer above: pixel-format post-processing (palette expansion,
// bit-depth widening, gamma), Adam7 de-interlacing, and encoding. The
// Driver and Reader types in this package are such a layer, built on
// top of Advance, but they are not part of the core contract.
package streampng
