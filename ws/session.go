package ws

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kbukum/reqkit/req"
)

// SessionState tracks the session lifecycle.
type SessionState int32

const (
	// StateOpen allows sends and receives.
	StateOpen SessionState = iota
	// StateClosing means a close frame was sent or received and the
	// closing handshake is in progress.
	StateClosing
	// StateClosed is terminal; sends and receives fail.
	StateClosed
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is a duplex channel of websocket frames. Read and Write may
// be used from different goroutines, but at most one goroutine may
// read and one may write at a time.
//
// A received close frame is echoed per protocol, surfaced once as a
// FrameClose, and moves the session to Closed; after that, sends and
// receives fail with a closed error.
type Session struct {
	conn    *websocket.Conn
	config  Config
	state   atomic.Int32
	writeMu sync.Mutex
}

// Dial opens a websocket session against a ws:// or wss:// target.
func Dial(ctx context.Context, target string, cfg Config) (*Session, error) {
	cfg.ApplyDefaults()

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
		Subprotocols:     cfg.Subprotocols,
	}
	if cfg.TLS != nil {
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		dialer.TLSClientConfig = tlsCfg
	}

	conn, resp, err := dialer.DialContext(ctx, target, cfg.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, req.NewTimeoutError(err)
		}
		if errors.Is(err, websocket.ErrBadHandshake) {
			return nil, req.NewProtocolError(err)
		}
		return nil, req.NewConnectionError(err)
	}

	return adopt(conn, cfg), nil
}

// Adopt wraps an already-established gorilla connection (e.g. one
// accepted server-side) in a Session.
func Adopt(conn *websocket.Conn, cfg Config) *Session {
	cfg.ApplyDefaults()
	return adopt(conn, cfg)
}

func adopt(conn *websocket.Conn, cfg Config) *Session {
	s := &Session{conn: conn, config: cfg}

	if cfg.ReadLimit > 0 {
		conn.SetReadLimit(cfg.ReadLimit)
	}

	// Echo inbound close frames per protocol and enter Closing; the
	// surfacing to the caller happens when ReadMessage returns the
	// close error.
	conn.SetCloseHandler(func(code int, text string) error {
		s.state.CompareAndSwap(int32(StateOpen), int32(StateClosing))
		msg := websocket.FormatCloseMessage(code, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(cfg.WriteTimeout))
		return nil
	})

	conn.SetPingHandler(func(data string) error {
		if cfg.OnPing != nil {
			cfg.OnPing([]byte(data))
		}
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(cfg.WriteTimeout))
		if err == websocket.ErrCloseSent || errors.Is(err, net.ErrClosed) {
			return nil
		}
		return err
	})

	return s
}

// State returns the current session state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Subprotocol returns the negotiated subprotocol, if any.
func (s *Session) Subprotocol() string {
	return s.conn.Subprotocol()
}

// Read returns the next inbound frame, blocking until one arrives, the
// session closes, or ctx is done. The peer's close frame is returned
// once as a FrameClose; afterwards Read fails with a closed error.
func (s *Session) Read(ctx context.Context) (Frame, error) {
	if s.State() == StateClosed {
		return Frame{}, req.NewClosedError("websocket session")
	}

	// Unblock the read when ctx is cancelled.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.conn.SetReadDeadline(time.Now())
		case <-stop:
		}
	}()

	mt, data, err := s.conn.ReadMessage()
	if err != nil {
		return s.readError(ctx, err)
	}

	switch mt {
	case websocket.TextMessage:
		return Frame{Type: FrameText, Data: data}, nil
	case websocket.BinaryMessage:
		return Frame{Type: FrameBinary, Data: data}, nil
	default:
		s.teardown()
		return Frame{}, req.NewProtocolError(errors.New("unexpected message type"))
	}
}

// readError maps a read failure and finalizes the session state. A
// graceful peer close is surfaced as a FrameClose with a nil error.
func (s *Session) readError(ctx context.Context, err error) (Frame, error) {
	s.teardown()

	if ctx.Err() != nil {
		return Frame{}, req.NewTimeoutError(err)
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case websocket.CloseNormalClosure, websocket.CloseGoingAway:
			return CloseFrame(closeErr.Code, closeErr.Text), nil
		default:
			return Frame{}, req.NewProtocolError(err)
		}
	}

	if errors.Is(err, websocket.ErrReadLimit) {
		return Frame{}, req.NewProtocolError(err)
	}

	return Frame{}, req.NewConnectionError(err)
}

// Write sends a frame. Data frames are rejected once the session is
// Closing or Closed; a close frame moves the session to Closing.
func (s *Session) Write(ctx context.Context, f Frame) error {
	state := s.State()
	if state == StateClosed {
		return req.NewClosedError("websocket session")
	}
	if state == StateClosing && f.Type != FrameClose {
		return req.NewClosedError("websocket session")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deadline := time.Now().Add(s.config.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	var err error
	switch f.Type {
	case FrameText:
		_ = s.conn.SetWriteDeadline(deadline)
		err = s.conn.WriteMessage(websocket.TextMessage, f.Data)
	case FrameBinary:
		_ = s.conn.SetWriteDeadline(deadline)
		err = s.conn.WriteMessage(websocket.BinaryMessage, f.Data)
	case FramePing:
		err = s.conn.WriteControl(websocket.PingMessage, f.Data, deadline)
	case FramePong:
		err = s.conn.WriteControl(websocket.PongMessage, f.Data, deadline)
	case FrameClose:
		code := f.Code
		if code == 0 {
			code = CloseNormal
		}
		msg := websocket.FormatCloseMessage(code, f.Reason)
		err = s.conn.WriteControl(websocket.CloseMessage, msg, deadline)
		s.state.CompareAndSwap(int32(StateOpen), int32(StateClosing))
	default:
		return req.NewValidationError("unknown frame type")
	}

	if err != nil {
		if err == websocket.ErrCloseSent {
			return req.NewClosedError("websocket session")
		}
		if ctx.Err() != nil {
			return req.NewTimeoutError(err)
		}
		return req.NewConnectionError(err)
	}
	return nil
}

// Close sends a close frame with the given code and tears down the
// connection. It does not wait for the peer's acknowledgement; callers
// that want the bounded-grace handshake observe the ack through Read,
// as the pipe runner does. Closing an already-closed session is a
// no-op.
func (s *Session) Close(code int, reason string) error {
	prev := SessionState(s.state.Swap(int32(StateClosed)))
	if prev == StateClosed {
		return nil
	}
	if prev == StateOpen || prev == StateClosing {
		msg := websocket.FormatCloseMessage(code, reason)
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.config.WriteTimeout))
	}
	return s.conn.Close()
}

// teardown closes the underlying connection and finalizes the state.
func (s *Session) teardown() {
	if SessionState(s.state.Swap(int32(StateClosed))) != StateClosed {
		_ = s.conn.Close()
	}
}
