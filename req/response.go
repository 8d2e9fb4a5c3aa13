package req

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// ResponseAs describes how to turn a raw response body into a value of
// type T. Descriptions form a small closed algebra: leaf variants
// consume the body (text, binary, stream, file, ignore), FromMetadata
// selects a branch using status and headers before any byte is read,
// and Map/MapWithMeta apply pure transforms to the already-decoded
// value without touching the body again.
//
// Exactly one leaf is evaluated per response, so the body is physically
// read at most once regardless of how the description was composed.
type ResponseAs[T any] struct {
	spec *bodySpec
}

type bodyKind int

const (
	kindIgnore bodyKind = iota
	kindText
	kindBinary
	kindStream
	kindFile
)

// bodySpec is the untyped description tree walked by evaluate. A node
// is exactly one of: a leaf (kind), a metadata switch (fromMeta), or a
// transform (inner + mapFn). Typed constructors guarantee the values
// flowing through mapFn match the type parameters of the public API.
type bodySpec struct {
	kind     bodyKind
	encoding string // charset override for text leaves
	path     string // target for file leaves
	fromMeta func(ResponseMeta) *bodySpec
	inner    *bodySpec
	mapFn    func(ResponseMeta, any) (any, error)
}

// Ignore discards the response body entirely. The raw bytes are still
// drained so the connection can be reused.
func Ignore() ResponseAs[struct{}] {
	return ResponseAs[struct{}]{spec: &bodySpec{kind: kindIgnore}}
}

// TextAlways reads the whole body as text regardless of status,
// decoded per the Content-Type charset (UTF-8 when absent). A non-empty
// encoding overrides the response charset.
func TextAlways(encoding ...string) ResponseAs[string] {
	spec := &bodySpec{kind: kindText}
	if len(encoding) > 0 {
		spec.encoding = encoding[0]
	}
	return ResponseAs[string]{spec: spec}
}

// Text reads the body as text, split on status: Left with the error
// body on non-2xx, Right with the decoded text on 2xx. This is the
// default description for new requests.
func Text(encoding ...string) ResponseAs[Either[string, string]] {
	return EitherOf(TextAlways(encoding...), TextAlways(encoding...))
}

// BinaryAlways reads the whole body as raw bytes regardless of status.
func BinaryAlways() ResponseAs[[]byte] {
	return ResponseAs[[]byte]{spec: &bodySpec{kind: kindBinary}}
}

// Binary reads the body as raw bytes, split on status: Left with the
// error body as text on non-2xx, Right with the bytes on 2xx.
func Binary() ResponseAs[Either[string, []byte]] {
	return EitherOf(TextAlways(), BinaryAlways())
}

// StreamAlways hands the caller the raw body as a lazy Stream
// regardless of status. The caller owns the stream and must fully
// consume or close it; an unconsumed stream holds the underlying
// connection until the transport reclaims it.
func StreamAlways() ResponseAs[Stream] {
	return ResponseAs[Stream]{spec: &bodySpec{kind: kindStream}}
}

// StreamOf hands the caller the body as a lazy Stream on 2xx, and the
// error body as a Left text value on non-2xx.
func StreamOf() ResponseAs[Either[string, Stream]] {
	return EitherOf(TextAlways(), StreamAlways())
}

// FileAlways streams the body to the file at path regardless of status
// and produces the path. The file is created (or truncated) only once
// body bytes are being consumed, never at request build time, and a
// partially written file is removed if the transfer fails mid-stream.
func FileAlways(path string) ResponseAs[string] {
	return ResponseAs[string]{spec: &bodySpec{kind: kindFile, path: path}}
}

// File streams the body to the file at path on 2xx and produces the
// path; on non-2xx the error body is produced as a Left text value and
// no file is touched.
func File(path string) ResponseAs[Either[string, string]] {
	return EitherOf(TextAlways(), FileAlways(path))
}

// FromMetadata selects a description using the response status and
// headers, before any body byte is read. Selection happens exactly once
// per response, which makes status-dependent decoding possible without
// reading the body twice.
func FromMetadata[T any](f func(ResponseMeta) ResponseAs[T]) ResponseAs[T] {
	return ResponseAs[T]{spec: &bodySpec{fromMeta: func(m ResponseMeta) *bodySpec {
		return f(m).spec
	}}}
}

// EitherOf builds the error/success split generically: onError decodes
// the body of non-2xx responses into a Left, onSuccess decodes 2xx
// bodies into a Right. The branch is chosen from metadata alone.
func EitherOf[E, T any](onError ResponseAs[E], onSuccess ResponseAs[T]) ResponseAs[Either[E, T]] {
	return FromMetadata(func(m ResponseMeta) ResponseAs[Either[E, T]] {
		if m.IsSuccess() {
			return Map(onSuccess, func(v T) (Either[E, T], error) {
				return Right[E, T](v), nil
			})
		}
		return Map(onError, func(v E) (Either[E, T], error) {
			return Left[E, T](v), nil
		})
	})
}

// Map lifts a description to a new result type by applying a pure
// function to the already-decoded value. The raw body is not consumed
// again. An error returned by f fails the send with a decode error
// unless it is already a typed *Error.
func Map[T, U any](as ResponseAs[T], f func(T) (U, error)) ResponseAs[U] {
	return MapWithMeta(as, func(_ ResponseMeta, v T) (U, error) {
		return f(v)
	})
}

// MapWithMeta is Map with access to the response metadata.
func MapWithMeta[T, U any](as ResponseAs[T], f func(ResponseMeta, T) (U, error)) ResponseAs[U] {
	inner := as.spec
	if inner == nil {
		inner = defaultSpec()
	}
	return ResponseAs[U]{spec: &bodySpec{
		inner: inner,
		mapFn: func(m ResponseMeta, v any) (any, error) {
			t, ok := v.(T)
			if !ok && v != nil {
				return nil, fmt.Errorf("map applied to %T", v)
			}
			return f(m, t)
		},
	}}
}

// defaultSpec is the description used when none was attached: Text.
func defaultSpec() *bodySpec {
	return Text().spec
}

// Response is the result of a completed send: status, headers, and the
// decoded body produced by the request's response description.
type Response[T any] struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Header holds the response headers.
	Header http.Header
	// Body is the decoded body.
	Body T
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response[T]) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Meta returns the response metadata.
func (r *Response[T]) Meta() ResponseMeta {
	return ResponseMeta{StatusCode: r.StatusCode, Header: r.Header}
}

// evaluate walks a description tree against a raw body. It resolves
// metadata switches first, consumes the body according to the single
// resolved leaf, then applies transforms on the way back up.
//
// handedOff is true when ownership of the body moved into the produced
// value (stream leaves); the caller must not close the body then.
func evaluate(ctx context.Context, spec *bodySpec, meta ResponseMeta, body io.ReadCloser) (val any, handedOff bool, err error) {
	if spec == nil {
		spec = defaultSpec()
	}

	if spec.fromMeta != nil {
		next := spec.fromMeta(meta)
		if next == nil {
			return nil, false, NewDecodeError(fmt.Errorf("metadata selector returned no description"))
		}
		return evaluate(ctx, next, meta, body)
	}

	if spec.inner != nil {
		inner, handed, err := evaluate(ctx, spec.inner, meta, body)
		if err != nil {
			return nil, handed, err
		}
		out, err := spec.mapFn(meta, inner)
		if err != nil {
			// The transform failed after a stream leaf already took
			// ownership of the body; release it here or nobody will.
			if handed {
				closeValue(inner)
			}
			return nil, handed, asError(err)
		}
		return out, handed, nil
	}

	switch spec.kind {
	case kindIgnore:
		if _, err := io.Copy(io.Discard, body); err != nil {
			return nil, false, readFailure(ctx, err)
		}
		return struct{}{}, false, nil

	case kindText:
		data, err := readAll(ctx, body)
		if err != nil {
			return nil, false, err
		}
		text, err := decodeText(meta, data, spec.encoding)
		if err != nil {
			return nil, false, err
		}
		return text, false, nil

	case kindBinary:
		data, err := readAll(ctx, body)
		if err != nil {
			return nil, false, err
		}
		return data, false, nil

	case kindStream:
		return NewReaderStream(body, 0), true, nil

	case kindFile:
		path, err := writeToFile(ctx, spec.path, body)
		if err != nil {
			return nil, false, err
		}
		return path, false, nil

	default:
		return nil, false, NewDecodeError(fmt.Errorf("unknown body kind %d", spec.kind))
	}
}

// readAll consumes the whole body, mapping failures to typed errors.
func readAll(ctx context.Context, body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, readFailure(ctx, err)
	}
	return data, nil
}

// readFailure types a body-read error. Errors a backend already typed
// (watchdog timeouts) pass through unchanged, a dead context is a
// timeout, and anything else means the body terminated early.
func readFailure(ctx context.Context, err error) error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	if ctx.Err() != nil {
		return NewTimeoutError(err)
	}
	return NewIncompleteBodyError(err)
}

// closeValue releases a handed-off value when evaluation fails after
// body ownership already moved into it.
func closeValue(v any) {
	if c, ok := v.(io.Closer); ok {
		_ = c.Close()
	}
}

// decodeText decodes raw bytes using the override charset, the response
// charset, or UTF-8 in that order.
func decodeText(meta ResponseMeta, data []byte, override string) (string, error) {
	charset := override
	if charset == "" {
		charset = meta.Charset()
	}
	if charset == "" || strings.EqualFold(charset, "utf-8") {
		return string(data), nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", NewDecodeError(fmt.Errorf("unknown charset %q", charset))
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", NewDecodeError(fmt.Errorf("decode %s text: %w", charset, err))
	}
	return string(decoded), nil
}

// writeToFile streams the body to disk without buffering it whole.
// The target is created only here, once bytes are flowing, and removed
// again if the copy terminates early for any reason (transport failure,
// cancellation), so no truncated file is left behind.
func writeToFile(ctx context.Context, path string, body io.Reader) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", NewValidationError(fmt.Sprintf("create %s: %v", path, err))
	}

	fail := func(cause error) (string, error) {
		_ = f.Close()
		_ = os.Remove(path)
		return "", readFailure(ctx, cause)
	}

	buf := make([]byte, defaultChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return fail(werr)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fail(rerr)
		}
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", NewIncompleteBodyError(err)
	}
	return path, nil
}
