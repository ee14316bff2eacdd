package streampng

import (
	"compress/zlib"
	"io"

	"github.com/pkg/errors"
)

// inflateAdapter realizes a resumable "feed some compressed bytes, ask
// for at most this many decompressed bytes back" contract on top of
// compress/zlib, whose Reader is built around a single blocking Read
// loop and cannot itself be paused mid-stream: once its underlying
// reader returns io.EOF before the zlib trailer has actually been
// reached, the flate.Reader's internal state is left unusable by any
// later call. A genuinely blocking io.Reader — an io.Pipe fed from a
// background goroutine — sidesteps that by never reporting EOF to the
// zlib reader until the stream has truly ended.
//
// step is called once per chunk-data transition: it hands off any new
// compressed bytes to the background goroutine (reporting them
// consumed immediately, since the caller's per-call input is already
// bounded by its own read-buffer size) and performs a single Read
// attempt into output, returning whatever that Read produced.
type inflateAdapter struct {
	pw *io.PipeWriter

	readReqCh  chan []byte
	readRespCh chan readResult

	writeReqCh  chan []byte
	writeRespCh chan error

	done chan struct{}

	writeInFlight bool
	pending       []byte

	finished bool
}

type readResult struct {
	n   int
	err error
}

func newInflateAdapter() *inflateAdapter {
	pr, pw := io.Pipe()

	a := &inflateAdapter{
		pw:          pw,
		readReqCh:   make(chan []byte),
		readRespCh:  make(chan readResult),
		writeReqCh:  make(chan []byte),
		writeRespCh: make(chan error),
		done:        make(chan struct{}),
	}

	go a.readLoop(pr)
	go a.writeLoop()

	return a
}

func (a *inflateAdapter) readLoop(pr *io.PipeReader) {
	zr, zerr := zlib.NewReader(pr)
	for {
		select {
		case buf := <-a.readReqCh:
			if zerr != nil {
				select {
				case a.readRespCh <- readResult{0, zerr}:
				case <-a.done:
					return
				}
				continue
			}
			n, err := zr.Read(buf)
			select {
			case a.readRespCh <- readResult{n, err}:
			case <-a.done:
				return
			}
		case <-a.done:
			return
		}
	}
}

func (a *inflateAdapter) writeLoop() {
	for {
		select {
		case data := <-a.writeReqCh:
			_, err := a.pw.Write(data)
			select {
			case a.writeRespCh <- err:
			case <-a.done:
				return
			}
		case <-a.done:
			return
		}
	}
}

// step accepts input into the adapter's pending buffer and attempts a
// single decompression Read into output. consumed is always len(input):
// the caller's chunk body buffer is already bounded to roughly the pull
// driver's own read-buffer size, so staging it whole keeps the
// adapter's own backlog bounded in practice without needing byte-exact
// partial-consumption accounting.
func (a *inflateAdapter) step(input, output []byte) (consumed, produced int, done bool, err error) {
	if a.finished {
		if len(input) > 0 {
			return 0, 0, true, errors.WithStack(&CorruptStreamError{Reason: "data after end of compressed stream"})
		}
		return 0, 0, true, nil
	}

	if len(input) > 0 {
		a.pending = append(a.pending, input...)
	}
	consumed = len(input)

	if len(output) == 0 {
		return consumed, 0, false, nil
	}

	a.maybeDispatchWrite()

	a.readReqCh <- output
	for {
		select {
		case rr := <-a.readRespCh:
			if rr.err == io.EOF {
				a.finished = true
				return consumed, rr.n, true, nil
			}
			if rr.err != nil {
				return consumed, rr.n, false, errors.WithStack(&CorruptStreamError{Reason: rr.err.Error()})
			}
			return consumed, rr.n, false, nil
		case werr := <-a.writeRespCh:
			a.writeInFlight = false
			if werr != nil {
				return consumed, 0, false, errors.WithStack(&CorruptStreamError{Reason: werr.Error()})
			}
			a.maybeDispatchWrite()
		}
	}
}

func (a *inflateAdapter) maybeDispatchWrite() {
	if a.writeInFlight || len(a.pending) == 0 {
		return
	}
	data := a.pending
	a.pending = nil
	a.writeInFlight = true
	a.writeReqCh <- data
}

// close releases the adapter's background goroutines. Safe to call on
// an adapter that is about to be discarded; not safe to call
// concurrently with step.
func (a *inflateAdapter) close() {
	close(a.done)
	a.pw.Close()
}
