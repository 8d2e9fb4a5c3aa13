package req

import (
	"context"
	"io"
	"sync"
)

// defaultChunkSize is the read buffer used when bridging an io.Reader
// into a Stream. Kept small so large responses never require large
// resident buffers.
const defaultChunkSize = 32 * 1024

// Stream is a lazy, ordered, single-consumption sequence of byte chunks.
// The consumer calls Next to pull chunks one at a time; no chunk is
// produced before it is requested. Close must be called when done to
// release the underlying resource; for response streams that resource
// is the borrowed connection.
//
// Next returns (nil, false, nil) when the stream is exhausted. The
// returned chunk is only valid until the next call to Next.
type Stream interface {
	// Next returns the next chunk of bytes. ok is false when the
	// stream is exhausted.
	Next(ctx context.Context) (chunk []byte, ok bool, err error)
	// Close releases the underlying resource. A closed stream fails
	// further Next calls with a closed error.
	Close() error
}

// NewReaderStream wraps an io.ReadCloser as a Stream. Chunks are read
// on demand with a fixed-size buffer; chunkSize <= 0 selects the
// default. Closing the stream closes the reader.
func NewReaderStream(rc io.ReadCloser, chunkSize int) Stream {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &readerStream{rc: rc, buf: make([]byte, chunkSize)}
}

type readerStream struct {
	mu     sync.Mutex
	rc     io.ReadCloser
	buf    []byte
	closed bool
	done   bool
}

func (s *readerStream) Next(ctx context.Context) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false, NewClosedError("stream")
	}
	if s.done {
		return nil, false, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, NewTimeoutError(err)
	}

	n, err := s.rc.Read(s.buf)
	if n > 0 {
		if err == io.EOF {
			s.done = true
		}
		return s.buf[:n], true, nil
	}
	if err == io.EOF {
		s.done = true
		return nil, false, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, NewTimeoutError(err)
		}
		return nil, false, NewIncompleteBodyError(err)
	}
	return nil, true, nil
}

func (s *readerStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.rc.Close()
}

// NewBytesStream creates a Stream over fixed in-memory chunks.
// Useful for streaming uploads of already-materialized data and tests.
func NewBytesStream(chunks ...[]byte) Stream {
	return &bytesStream{chunks: chunks}
}

type bytesStream struct {
	mu     sync.Mutex
	chunks [][]byte
	pos    int
	closed bool
}

func (s *bytesStream) Next(ctx context.Context) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, NewClosedError("stream")
	}
	if err := ctx.Err(); err != nil {
		return nil, false, NewTimeoutError(err)
	}
	if s.pos >= len(s.chunks) {
		return nil, false, nil
	}
	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, true, nil
}

func (s *bytesStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// NewStreamReader adapts a Stream into an io.ReadCloser. Chunks are
// pulled lazily as Read is called, so producers see backpressure from
// the consumer. Closing the reader closes the stream.
func NewStreamReader(ctx context.Context, s Stream) io.ReadCloser {
	return &streamReader{ctx: ctx, s: s}
}

type streamReader struct {
	ctx  context.Context
	s    Stream
	rest []byte
	done bool
}

func (r *streamReader) Read(p []byte) (int, error) {
	for len(r.rest) == 0 {
		if r.done {
			return 0, io.EOF
		}
		chunk, ok, err := r.s.Next(r.ctx)
		if err != nil {
			return 0, err
		}
		if !ok {
			r.done = true
			return 0, io.EOF
		}
		r.rest = chunk
	}
	n := copy(p, r.rest)
	r.rest = r.rest[n:]
	return n, nil
}

func (r *streamReader) Close() error {
	r.done = true
	return r.s.Close()
}

// Collect fully consumes a stream into a single byte slice and closes it.
func Collect(ctx context.Context, s Stream) ([]byte, error) {
	defer func() { _ = s.Close() }()
	var out []byte
	for {
		chunk, ok, err := s.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, chunk...)
	}
}

// Drain consumes and discards the remainder of a stream and closes it.
func Drain(ctx context.Context, s Stream) error {
	defer func() { _ = s.Close() }()
	for {
		_, ok, err := s.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}
