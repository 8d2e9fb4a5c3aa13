package req

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// BodyKind identifies the request body variant.
type BodyKind int

const (
	// BodyNone sends no request body.
	BodyNone BodyKind = iota
	// BodyBytes sends a raw byte slice.
	BodyBytes
	// BodyText sends text, optionally transcoded to a named charset.
	BodyText
	// BodyFile streams a file from disk.
	BodyFile
	// BodyStream sends a lazily-produced chunk sequence.
	BodyStream
)

// Body describes a request body. The zero value is BodyNone.
//
// Stream bodies hold a factory rather than a Stream so the same request
// definition can be sent more than once (retries, deferred effects):
// each attempt opens a fresh stream.
type Body struct {
	kind     BodyKind
	data     []byte
	text     string
	encoding string
	path     string
	stream   func() Stream
}

// Kind returns the body variant.
func (b Body) Kind() BodyKind {
	return b.kind
}

// Open returns a reader over the body content, its length (-1 when
// unknown, as for stream bodies), and a default content type ("" when
// none applies). Each call opens the body fresh; file and stream bodies
// perform no I/O before Open.
func (b Body) Open(ctx context.Context) (rc io.ReadCloser, length int64, contentType string, err error) {
	switch b.kind {
	case BodyNone:
		return nil, 0, "", nil
	case BodyBytes:
		return io.NopCloser(bytes.NewReader(b.data)), int64(len(b.data)), "application/octet-stream", nil
	case BodyText:
		if b.encoding == "" || strings.EqualFold(b.encoding, "utf-8") {
			return io.NopCloser(strings.NewReader(b.text)), int64(len(b.text)), "text/plain; charset=utf-8", nil
		}
		enc, err := htmlindex.Get(b.encoding)
		if err != nil {
			return nil, 0, "", NewValidationError(fmt.Sprintf("unknown charset %q", b.encoding))
		}
		data, err := enc.NewEncoder().Bytes([]byte(b.text))
		if err != nil {
			return nil, 0, "", NewValidationError(fmt.Sprintf("encode body as %s: %v", b.encoding, err))
		}
		ct := "text/plain; charset=" + strings.ToLower(b.encoding)
		return io.NopCloser(bytes.NewReader(data)), int64(len(data)), ct, nil
	case BodyFile:
		f, err := os.Open(b.path)
		if err != nil {
			return nil, 0, "", NewValidationError(fmt.Sprintf("open body file: %v", err))
		}
		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, 0, "", NewValidationError(fmt.Sprintf("stat body file: %v", err))
		}
		return f, info.Size(), "application/octet-stream", nil
	case BodyStream:
		return NewStreamReader(ctx, b.stream()), -1, "", nil
	default:
		return nil, 0, "", NewValidationError(fmt.Sprintf("unknown body kind %d", b.kind))
	}
}
