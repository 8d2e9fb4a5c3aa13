package ws

import "github.com/gorilla/websocket"

// FrameType identifies a websocket frame variant.
type FrameType int

const (
	// FrameText is a UTF-8 text data frame.
	FrameText FrameType = iota
	// FrameBinary is a binary data frame.
	FrameBinary
	// FramePing is a ping control frame.
	FramePing
	// FramePong is a pong control frame.
	FramePong
	// FrameClose is a close control frame.
	FrameClose
)

// String returns the frame type name.
func (t FrameType) String() string {
	switch t {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	case FramePing:
		return "ping"
	case FramePong:
		return "pong"
	case FrameClose:
		return "close"
	default:
		return "unknown"
	}
}

// Close codes passed on close frames.
const (
	CloseNormal        = websocket.CloseNormalClosure
	CloseGoingAway     = websocket.CloseGoingAway
	CloseProtocolError = websocket.CloseProtocolError
	CloseInternalError = websocket.CloseInternalServerErr
)

// Frame is a single websocket frame. Code and Reason are meaningful
// only for close frames.
type Frame struct {
	Type   FrameType
	Data   []byte
	Code   int
	Reason string
}

// TextFrame creates a text frame.
func TextFrame(s string) Frame {
	return Frame{Type: FrameText, Data: []byte(s)}
}

// BinaryFrame creates a binary frame.
func BinaryFrame(data []byte) Frame {
	return Frame{Type: FrameBinary, Data: data}
}

// PingFrame creates a ping frame.
func PingFrame(data []byte) Frame {
	return Frame{Type: FramePing, Data: data}
}

// PongFrame creates a pong frame.
func PongFrame(data []byte) Frame {
	return Frame{Type: FramePong, Data: data}
}

// CloseFrame creates a close frame.
func CloseFrame(code int, reason string) Frame {
	return Frame{Type: FrameClose, Code: code, Reason: reason}
}

// Text returns the frame payload as a string.
func (f Frame) Text() string {
	return string(f.Data)
}
