package ws

import (
	"context"
	"time"

	"github.com/kbukum/reqkit/req"
)

// Pipe is application logic over a duplex stream of frames. It
// consumes inbound frames from in and produces outbound frames on out.
// Returning nil closes the session normally; returning an error closes
// it with an internal-error close code. The runner closes in when the
// peer closes or the session fails; the pipe signals completion by
// returning and must not close out itself.
type Pipe func(ctx context.Context, in <-chan Frame, out chan<- Frame) error

// Run drives a session with a pipe: inbound frames are pumped into the
// pipe, outbound frames are written to the session, both concurrently,
// until the pipe returns, the peer closes, or ctx is done. Run then
// performs the closing handshake, waiting up to CloseGrace for the
// peer's acknowledgement, and tears the session down. The session is
// always Closed when Run returns.
//
// Error precedence: the pipe's own error wins over transport errors
// encountered while pumping.
func Run(ctx context.Context, s *Session, p Pipe) error {
	in := make(chan Frame)
	out := make(chan Frame)

	var (
		readErr    error
		writeErr   error
		peerClosed bool
	)

	readerDone := make(chan struct{})
	drop := make(chan struct{})

	go func() {
		defer close(readerDone)
		defer close(in)
		for {
			f, err := s.Read(ctx)
			if err != nil {
				readErr = err
				return
			}
			if f.Type == FrameClose {
				peerClosed = true
				return
			}
			select {
			case in <- f:
			case <-drop:
				// Pipe finished; discard further inbound frames while
				// waiting for the close handshake.
			}
		}
	}()

	pipeDone := make(chan error, 1)
	go func() {
		defer close(out)
		pipeDone <- p(ctx, in, out)
	}()

	for f := range out {
		if writeErr != nil {
			continue
		}
		if err := s.Write(ctx, f); err != nil {
			writeErr = err
		}
	}
	pipeErr := <-pipeDone
	close(drop)

	// Closing handshake: send our close frame unless the peer already
	// closed, then give the reader a bounded grace period to observe
	// the acknowledgement before forcing the connection down.
	ackd := false
	select {
	case <-readerDone:
		ackd = true
	default:
		frame := CloseFrame(CloseNormal, "")
		if pipeErr != nil {
			frame = CloseFrame(CloseInternalError, "internal error")
		}
		_ = s.Write(ctx, frame)

		grace := time.NewTimer(s.config.CloseGrace)
		select {
		case <-readerDone:
			ackd = true
			grace.Stop()
		case <-grace.C:
		}
	}
	_ = s.Close(CloseNormal, "")
	<-readerDone

	switch {
	case pipeErr != nil:
		return pipeErr
	case ctx.Err() != nil:
		return req.NewTimeoutError(ctx.Err())
	case ackd && readErr != nil && !peerClosed:
		return readErr
	case writeErr != nil:
		return writeErr
	default:
		return nil
	}
}
