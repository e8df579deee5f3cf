// Package duplex streams files through a pair of serial endpoints whose
// peer echoes every byte received on one endpoint out of the other.
//
// A run has two strictly sequential phases. Phase 1 writes Files.TxA to
// stream A chunk by chunk and, after each chunk, reads exactly as many bytes
// from stream B into Files.RxB. Phase 2 mirrors it: Files.TxB goes to stream B
// and stream A is captured into Files.RxA. Only byte counts are enforced;
// comparing contents is left to the caller (see verify.Compare).
package duplex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// DefaultChunkSize is the largest number of bytes moved per round trip
const DefaultChunkSize = 4096

// maxEmptyReads bounds consecutive (0, nil) reads before a stream is
// considered stalled
const maxEmptyReads = 100

// Stream is one side of a serial endpoint. serial.Port satisfies it.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer
}

// inputFlusher is implemented by streams that can discard unread input.
// serial.Port does.
type inputFlusher interface {
	FlushInput() error
}

// Files names the four files of a duplex run
type Files struct {
	TxA string // sent through stream A in phase 1
	RxB string // captured from stream B in phase 1
	TxB string // sent through stream B in phase 2
	RxA string // captured from stream A in phase 2
}

// Job is one phase of a run
type Job struct {
	Phase     int
	Input     string
	Output    string
	Writer    Stream
	Reader    Stream
	ChunkSize int
}

// Progress is reported after every completed chunk and at phase boundaries
type Progress struct {
	Phase     int
	Chunk     int
	Bytes     int64 // bytes echoed so far in this phase
	Total     int64 // size of the phase input file
	PhaseDone bool
}

type options struct {
	chunkSize int
	logger    *slog.Logger
	progress  func(Progress)
}

// Option configures a run
type Option func(*options) error

// WithChunkSize sets the number of bytes moved per round trip
func WithChunkSize(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return ErrInvalidChunkSize
		}
		o.chunkSize = n
		return nil
	}
}

// WithLogger sets the logger for diagnostic lines
func WithLogger(l *slog.Logger) Option {
	return func(o *options) error {
		if l != nil {
			o.logger = l
		}
		return nil
	}
}

// WithProgress registers a callback invoked synchronously from the run
func WithProgress(fn func(Progress)) Option {
	return func(o *options) error {
		o.progress = fn
		return nil
	}
}

// Run performs both phases and closes a and b before returning, whatever the
// outcome. Unread input on a phase's reading stream is flushed before the
// phase starts when the stream supports it. Close errors are logged, never returned. Any I/O failure aborts the
// run with a *TransferError; nothing is retried. ctx is checked between chunks.
func Run(ctx context.Context, a, b Stream, files Files, opts ...Option) error {
	o := options{chunkSize: DefaultChunkSize, logger: slog.Default()}
	var optErr error
	for _, opt := range opts {
		if err := opt(&o); err != nil && optErr == nil {
			optErr = err
		}
	}
	defer closeStreams(o.logger, a, b)
	if optErr != nil {
		return optErr
	}

	jobs := []Job{
		{Phase: 1, Input: files.TxA, Output: files.RxB, Writer: a, Reader: b, ChunkSize: o.chunkSize},
		{Phase: 2, Input: files.TxB, Output: files.RxA, Writer: b, Reader: a, ChunkSize: o.chunkSize},
	}
	for _, job := range jobs {
		o.logger.Info("phase start",
			"phase", job.Phase,
			"write", streamName(job.Writer, job.Phase == 1),
			"read", streamName(job.Reader, job.Phase == 2),
			"input", job.Input,
			"output", job.Output)

		if err := flushReader(job); err != nil {
			o.logger.Error("phase failed", "phase", job.Phase, "bytes", 0, "error", err)
			return err
		}

		n, err := runJob(ctx, job, &o)
		if err != nil {
			o.logger.Error("phase failed", "phase", job.Phase, "bytes", n, "error", err)
			return err
		}
		o.logger.Info("phase complete", "phase", job.Phase, "bytes", n)
	}
	return nil
}

// flushReader drops input left on the reading stream, so a stray echo from
// an earlier phase cannot shift this phase's capture
func flushReader(job Job) error {
	f, ok := job.Reader.(inputFlusher)
	if !ok {
		return nil
	}
	if err := f.FlushInput(); err != nil {
		return &TransferError{Phase: job.Phase, Op: "flush", Err: err}
	}
	return nil
}

// streamName prefers the device path when the stream knows it
func streamName(s Stream, isA bool) string {
	if st, ok := s.(fmt.Stringer); ok {
		return st.String()
	}
	if isA {
		return "A"
	}
	return "B"
}

func closeStreams(logger *slog.Logger, a, b Stream) {
	for i, s := range []Stream{a, b} {
		if s == nil {
			continue
		}
		name := streamName(s, i == 0)
		logger.Info("closing port", "port", name)
		if err := s.Close(); err != nil {
			logger.Warn("close failed", "port", name, "error", err)
		}
	}
}

// runJob moves one input file through the writer and captures the reader.
// It returns the number of bytes echoed.
func runJob(ctx context.Context, job Job, o *options) (int64, error) {
	in, err := os.Open(job.Input)
	if err != nil {
		return 0, &TransferError{Phase: job.Phase, Op: "read-file", Path: job.Input, Err: err}
	}
	defer in.Close()

	var total int64
	if st, err := in.Stat(); err == nil {
		total = st.Size()
	}

	out, err := os.Create(job.Output)
	if err != nil {
		return 0, &TransferError{Phase: job.Phase, Op: "write-file", Path: job.Output, Err: err}
	}
	defer out.Close()

	tx := make([]byte, job.ChunkSize)
	rx := make([]byte, job.ChunkSize)
	var done int64

	for chunk := 1; ; chunk++ {
		if err := ctx.Err(); err != nil {
			return done, &TransferError{Phase: job.Phase, Op: "cancel", Chunk: chunk, Err: err}
		}

		n, err := io.ReadFull(in, tx)
		if n == 0 && (err == io.EOF || err == nil) {
			break
		}
		if err != nil && err != io.ErrUnexpectedEOF {
			return done, &TransferError{Phase: job.Phase, Op: "read-file", Path: job.Input, Chunk: chunk, Err: err}
		}

		if err := writeAll(job.Writer, tx[:n]); err != nil {
			return done, &TransferError{Phase: job.Phase, Op: "write-stream", Chunk: chunk, Err: err}
		}
		if err := readExact(job.Reader, rx[:n]); err != nil {
			return done, &TransferError{Phase: job.Phase, Op: "read-stream", Chunk: chunk, Err: err}
		}
		if _, err := out.Write(rx[:n]); err != nil {
			return done, &TransferError{Phase: job.Phase, Op: "write-file", Path: job.Output, Chunk: chunk, Err: err}
		}

		done += int64(n)
		if o.progress != nil {
			o.progress(Progress{Phase: job.Phase, Chunk: chunk, Bytes: done, Total: total})
		}
	}

	if err := out.Close(); err != nil {
		return done, &TransferError{Phase: job.Phase, Op: "write-file", Path: job.Output, Err: err}
	}
	if o.progress != nil {
		o.progress(Progress{Phase: job.Phase, Bytes: done, Total: total, PhaseDone: true})
	}
	return done, nil
}

// writeAll writes p completely, looping over short writes
func writeAll(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n <= 0 {
			return ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

// readExact fills p from r. A stream reporting EOF before p is full, or one
// returning no data maxEmptyReads times in a row, is a failure.
func readExact(r io.Reader, p []byte) error {
	empty := 0
	for got := 0; got < len(p); {
		n, err := r.Read(p[got:])
		got += n
		if got == len(p) {
			return nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("received %d of %d bytes: %w", got, len(p), io.ErrUnexpectedEOF)
			}
			return fmt.Errorf("received %d of %d bytes: %w", got, len(p), err)
		}
		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				return fmt.Errorf("received %d of %d bytes: %w", got, len(p), io.ErrNoProgress)
			}
			continue
		}
		empty = 0
	}
	return nil
}
