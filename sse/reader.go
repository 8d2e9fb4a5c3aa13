// Package sse reads Server-Sent Events from streaming response bodies.
//
// A Reader is typically layered over a streaming response:
//
//	resp, err := req.Send(ctx, backend, req.Returning(req.Get(url), req.StreamAlways()))
//	events := sse.FromStream(ctx, resp.Body)
//	defer events.Close()
//	for {
//		ev, err := events.Next()
//		if err == io.EOF {
//			break
//		}
//		...
//	}
package sse

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/reqkit/req"
)

// Event is a single server-sent event.
type Event struct {
	// Event is the event type (from the "event:" field). Empty for
	// data-only events.
	Event string
	// Data is the payload; multi-line data is joined with newlines.
	Data string
	// ID is the last-event-id (from the "id:" field).
	ID string
	// Retry is the reconnection delay advised by the server, or zero.
	Retry time.Duration
}

// Reader yields server-sent events until the stream ends.
type Reader interface {
	// Next returns the next event, or io.EOF at end of stream.
	Next() (*Event, error)
	// Close releases the underlying stream.
	Close() error
}

type reader struct {
	scanner *bufio.Scanner
	body    io.ReadCloser
	lastID  string
	retry   time.Duration
}

// NewReader wraps a raw event stream, such as the body of a response
// with content type text/event-stream.
func NewReader(body io.ReadCloser) Reader {
	return &reader{
		scanner: bufio.NewScanner(body),
		body:    body,
	}
}

// FromStream wraps a chunked body stream in an event reader. Closing
// the reader closes the stream.
func FromStream(ctx context.Context, s req.Stream) Reader {
	return NewReader(req.NewStreamReader(ctx, s))
}

// Next returns the next event. Returns io.EOF when the stream ends; a
// truncated stream surfaces as an incomplete-body error.
func (r *reader) Next() (*Event, error) {
	var event Event
	var hasData bool

	for r.scanner.Scan() {
		line := r.scanner.Text()

		// Blank line terminates the event.
		if line == "" {
			if hasData {
				r.finish(&event)
				return &event, nil
			}
			continue
		}

		// Comment lines keep the connection alive.
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := parseLine(line)
		switch field {
		case "data":
			if hasData {
				event.Data += "\n" + value
			} else {
				event.Data = value
				hasData = true
			}
		case "event":
			event.Event = value
		case "id":
			// An id containing NUL is ignored per spec.
			if !strings.ContainsRune(value, 0) {
				event.ID = value
				r.lastID = value
			}
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
				r.retry = time.Duration(ms) * time.Millisecond
			}
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, req.NewIncompleteBodyError(err)
	}

	// Stream ended mid-event.
	if hasData {
		r.finish(&event)
		return &event, nil
	}
	return nil, io.EOF
}

// finish stamps the event with the sticky last-event-id and retry
// advice, which persist across events until the server changes them.
func (r *reader) finish(event *Event) {
	if event.ID == "" {
		event.ID = r.lastID
	}
	event.Retry = r.retry
}

// Close releases the underlying stream.
func (r *reader) Close() error {
	return r.body.Close()
}

// parseLine splits an event-stream line into field and value, dropping
// the single optional space after the colon.
func parseLine(line string) (field, value string) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return line, ""
	}
	field = line[:idx]
	value = line[idx+1:]
	if value != "" && value[0] == ' ' {
		value = value[1:]
	}
	return field, value
}
