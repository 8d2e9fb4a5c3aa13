// Package reqtest provides a scripted in-memory backend for testing
// code built on the req package.
//
// A Backend replays queued responses and records the requests it
// receives, including how often response bodies were read and whether
// every body handed out was closed:
//
//	b := reqtest.New()
//	b.Reply(200, []byte("ok"))
//	resp, err := req.Send(ctx, b, req.Get("http://test/"))
//	...
//	if n := b.OpenBodies(); n != 0 {
//		t.Fatalf("leaked %d bodies", n)
//	}
package reqtest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/reqkit/req"
)

// Call records one request as the backend saw it. The request body, if
// any, is drained into Body.
type Call struct {
	Method  string
	URL     string
	Header  http.Header
	Body    []byte
	Timeout time.Duration
}

// script is one queued reply.
type script struct {
	status int
	header http.Header
	body   []byte
	err    error
	delay  time.Duration
}

// Backend is a req.Backend that replays scripted responses. All
// methods are safe for concurrent use.
type Backend struct {
	mu     sync.Mutex
	queue  []script
	calls  []Call
	closed bool

	bodyReads  atomic.Int32
	openBodies atomic.Int32
}

var _ req.Backend = (*Backend)(nil)

// New returns an empty scripted backend. Sending a request with no
// reply queued fails with a connection error.
func New() *Backend {
	return &Backend{}
}

// Name identifies the backend in logs.
func (b *Backend) Name() string { return "reqtest" }

// Reply queues a response with the given status and body. Optional
// headers are merged in.
func (b *Backend) Reply(status int, body []byte, header ...http.Header) *Backend {
	h := http.Header{}
	for _, hh := range header {
		for k, vs := range hh {
			for _, v := range vs {
				h.Add(k, v)
			}
		}
	}
	b.mu.Lock()
	b.queue = append(b.queue, script{status: status, header: h, body: body})
	b.mu.Unlock()
	return b
}

// ReplyText queues a text/plain response.
func (b *Backend) ReplyText(status int, body string) *Backend {
	return b.Reply(status, []byte(body), http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}})
}

// ReplyJSON queues an application/json response.
func (b *Backend) ReplyJSON(status int, body string) *Backend {
	return b.Reply(status, []byte(body), http.Header{"Content-Type": []string{"application/json"}})
}

// ReplyError queues a transport failure.
func (b *Backend) ReplyError(err error) *Backend {
	b.mu.Lock()
	b.queue = append(b.queue, script{err: err})
	b.mu.Unlock()
	return b
}

// ReplyAfter queues a response that is delivered only after d has
// elapsed or the request context is cancelled, whichever comes first.
func (b *Backend) ReplyAfter(d time.Duration, status int, body []byte) *Backend {
	b.mu.Lock()
	b.queue = append(b.queue, script{status: status, header: http.Header{}, body: body, delay: d})
	b.mu.Unlock()
	return b
}

// RoundTrip pops the next scripted reply, recording the request.
func (b *Backend) RoundTrip(ctx context.Context, raw *req.RawRequest) (*req.RawResponse, error) {
	call := Call{
		Method:  raw.Method,
		URL:     raw.URL,
		Header:  raw.Header.Clone(),
		Timeout: raw.Timeout,
	}
	if raw.Body.Kind() != req.BodyNone {
		rc, _, _, err := raw.Body.Open(ctx)
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, req.NewIncompleteBodyError(err)
		}
		call.Body = data
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, req.NewClosedError("reqtest backend")
	}
	b.calls = append(b.calls, call)
	if len(b.queue) == 0 {
		b.mu.Unlock()
		return nil, req.NewConnectionError(errors.New("reqtest: no reply queued"))
	}
	s := b.queue[0]
	b.queue = b.queue[1:]
	b.mu.Unlock()

	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, req.NewTimeoutError(ctx.Err())
		case <-t.C:
		}
	}
	if s.err != nil {
		return nil, s.err
	}

	b.openBodies.Add(1)
	return &req.RawResponse{
		StatusCode: s.status,
		Status:     http.StatusText(s.status),
		Header:     s.header,
		Body: &countingBody{
			r:       bytes.NewReader(s.body),
			backend: b,
		},
	}, nil
}

// Close marks the backend closed; later round trips fail.
func (b *Backend) Close(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

// Calls returns a copy of the recorded requests in arrival order.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Call, len(b.calls))
	copy(out, b.calls)
	return out
}

// LastCall returns the most recent request, or false if none arrived.
func (b *Backend) LastCall() (Call, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.calls) == 0 {
		return Call{}, false
	}
	return b.calls[len(b.calls)-1], true
}

// BodyReads reports how many response bodies have been read from at
// least once. Interpreting a response should read the body at most
// once.
func (b *Backend) BodyReads() int {
	return int(b.bodyReads.Load())
}

// OpenBodies reports how many handed-out response bodies have not yet
// been closed. Zero means no leaks.
func (b *Backend) OpenBodies() int {
	return int(b.openBodies.Load())
}

type countingBody struct {
	r       *bytes.Reader
	backend *Backend
	read    bool
	closed  bool
	mu      sync.Mutex
}

func (c *countingBody) Read(p []byte) (int, error) {
	c.mu.Lock()
	if !c.read {
		c.read = true
		c.backend.bodyReads.Add(1)
	}
	c.mu.Unlock()
	return c.r.Read(p)
}

func (c *countingBody) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.backend.openBodies.Add(-1)
	return nil
}
