package req_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/kbukum/reqkit/req"
	"github.com/kbukum/reqkit/reqtest"
)

func TestSend_DefaultText_Success(t *testing.T) {
	b := reqtest.New()
	b.ReplyText(200, "hello")

	resp, err := req.Send(context.Background(), b, req.Get("http://test/greeting"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	got, ok := resp.Body.Get()
	if !ok {
		t.Fatalf("expected Right, got Left %q", resp.Body.Left())
	}
	if got != "hello" {
		t.Errorf("expected hello, got %q", got)
	}
	if n := b.OpenBodies(); n != 0 {
		t.Errorf("leaked %d bodies", n)
	}
}

func TestSend_DefaultText_NonSuccessIsLeftNotError(t *testing.T) {
	b := reqtest.New()
	b.ReplyText(404, "not found")

	resp, err := req.Send(context.Background(), b, req.Get("http://test/missing"))
	if err != nil {
		t.Fatalf("a 404 must not be an error, got: %v", err)
	}
	if resp.IsSuccess() {
		t.Error("expected IsSuccess=false")
	}
	if resp.Body.IsRight() {
		t.Fatal("expected Left for non-2xx")
	}
	if got := resp.Body.Left(); got != "not found" {
		t.Errorf("expected Left(not found), got %q", got)
	}
}

func TestSend_TextAlways_ReadsBodyRegardlessOfStatus(t *testing.T) {
	b := reqtest.New()
	b.ReplyText(500, "boom")

	resp, err := req.Send(context.Background(), b,
		req.Returning(req.Get("http://test/"), req.TextAlways()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Body != "boom" {
		t.Errorf("expected boom, got %q", resp.Body)
	}
}

func TestSend_Ignore_DrainsAndCloses(t *testing.T) {
	b := reqtest.New()
	b.ReplyText(204, "")

	resp, err := req.Send(context.Background(), b,
		req.Returning(req.Get("http://test/"), req.Ignore()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 204 {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
	if n := b.OpenBodies(); n != 0 {
		t.Errorf("leaked %d bodies", n)
	}
}

func TestSend_Map_TransformsDecodedValue(t *testing.T) {
	b := reqtest.New()
	b.ReplyText(200, "42")

	as := req.Map(req.TextAlways(), func(s string) (int, error) {
		return strconv.Atoi(strings.TrimSpace(s))
	})
	resp, err := req.Send(context.Background(), b,
		req.Returning(req.Get("http://test/answer"), as))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Body != 42 {
		t.Errorf("expected 42, got %d", resp.Body)
	}
}

func TestSend_Map_FailureIsDecodeError(t *testing.T) {
	b := reqtest.New()
	b.ReplyText(200, "not a number")

	as := req.Map(req.TextAlways(), func(s string) (int, error) {
		return strconv.Atoi(s)
	})
	_, err := req.Send(context.Background(), b,
		req.Returning(req.Get("http://test/answer"), as))
	if !req.IsDecode(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if n := b.OpenBodies(); n != 0 {
		t.Errorf("leaked %d bodies", n)
	}
}

func TestSend_FromMetadata_BodyReadOnce(t *testing.T) {
	b := reqtest.New()
	b.Reply(200, []byte("payload"), http.Header{"Content-Type": []string{"application/octet-stream"}})

	as := req.FromMetadata(func(m req.ResponseMeta) req.ResponseAs[[]byte] {
		if m.ContentType() == "application/octet-stream" {
			return req.BinaryAlways()
		}
		return req.Map(req.TextAlways(), func(s string) ([]byte, error) { return []byte(s), nil })
	})
	resp, err := req.Send(context.Background(), b,
		req.Returning(req.Get("http://test/blob"), as))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Body) != "payload" {
		t.Errorf("expected payload, got %q", resp.Body)
	}
	if n := b.BodyReads(); n != 1 {
		t.Errorf("body must be read exactly once, got %d reads", n)
	}
}

func TestSend_EitherOf_PicksBranchByStatus(t *testing.T) {
	type apiError struct {
		Message string `json:"message"`
	}
	type user struct {
		Name string `json:"name"`
	}

	b := reqtest.New()
	b.ReplyJSON(200, `{"name":"Alice"}`)
	b.ReplyJSON(404, `{"message":"no such user"}`)

	as := req.JSONEither[apiError, user]()

	resp, err := req.Send(context.Background(), b,
		req.Returning(req.Get("http://test/users/1"), as))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, ok := resp.Body.Get()
	if !ok || u.Name != "Alice" {
		t.Fatalf("expected Right(Alice), got %+v", resp.Body)
	}

	resp, err = req.Send(context.Background(), b,
		req.Returning(req.Get("http://test/users/2"), as))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Body.IsRight() {
		t.Fatal("expected Left for 404")
	}
	if e := resp.Body.Left(); e.Message != "no such user" {
		t.Errorf("expected decoded error body, got %+v", e)
	}
}

func TestSend_JSON_DecodeFailure(t *testing.T) {
	type user struct {
		Name string `json:"name"`
	}
	b := reqtest.New()
	b.ReplyJSON(200, `{"name":`)

	_, err := req.Send(context.Background(), b,
		req.Returning(req.Get("http://test/users/1"), req.JSONAlways[user]()))
	if !req.IsDecode(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestSend_File_WritesBodyToPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")

	b := reqtest.New()
	b.Reply(200, []byte("file contents"))

	resp, err := req.Send(context.Background(), b,
		req.Returning(req.Get("http://test/download"), req.FileAlways(path)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Body != path {
		t.Errorf("expected path %q, got %q", path, resp.Body)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	if string(data) != "file contents" {
		t.Errorf("expected file contents, got %q", data)
	}
}

func TestSend_File_NonSuccessDoesNotCreateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")

	b := reqtest.New()
	b.ReplyText(503, "unavailable")

	resp, err := req.Send(context.Background(), b,
		req.Returning(req.Get("http://test/download"), req.File(path)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Body.IsRight() {
		t.Fatal("expected Left for 503")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("file must not exist after a non-2xx, stat err: %v", err)
	}
}

func TestSend_Stream_HandsOffBodyOwnership(t *testing.T) {
	b := reqtest.New()
	b.Reply(200, []byte("streamed data"))

	resp, err := req.Send(context.Background(), b,
		req.Returning(req.Get("http://test/stream"), req.StreamAlways()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Body is still open; it belongs to the caller now.
	if n := b.OpenBodies(); n != 1 {
		t.Fatalf("expected 1 open body, got %d", n)
	}

	data, err := req.Collect(context.Background(), resp.Body)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if string(data) != "streamed data" {
		t.Errorf("expected streamed data, got %q", data)
	}
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if n := b.OpenBodies(); n != 0 {
		t.Errorf("expected all bodies closed, got %d", n)
	}
}

func TestSend_Stream_CancelReleasesBody(t *testing.T) {
	// Body larger than one chunk so consumption spans multiple Next
	// calls with room to cancel in between.
	b := reqtest.New()
	b.Reply(200, bytes.Repeat([]byte("x"), 96*1024))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resp, err := req.Send(ctx, b,
		req.Returning(req.Get("http://test/stream"), req.StreamAlways()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, err := resp.Body.Next(ctx); !ok || err != nil {
		t.Fatalf("first chunk: ok=%v err=%v", ok, err)
	}

	cancel()
	if _, _, err := resp.Body.Next(ctx); !req.IsTimeout(err) {
		t.Fatalf("expected timeout after cancel, got %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if n := b.OpenBodies(); n != 0 {
		t.Errorf("cancelled stream leaked %d bodies", n)
	}
}

func TestSend_MapFailureOverStreamClosesBody(t *testing.T) {
	b := reqtest.New()
	b.Reply(200, []byte("payload"))

	desc := req.Map(req.StreamAlways(), func(req.Stream) (int, error) {
		return 0, errors.New("rejected")
	})
	_, err := req.Send(context.Background(), b,
		req.Returning(req.Get("http://test/stream"), desc))
	if !req.IsDecode(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if n := b.OpenBodies(); n != 0 {
		t.Errorf("failed transform leaked %d bodies", n)
	}
}

// erringBody fails every read with a fixed error.
type erringBody struct{ err error }

func (e erringBody) Read([]byte) (int, error) { return 0, e.err }
func (e erringBody) Close() error { return nil }

// rawBackend returns one canned raw response.
type rawBackend struct{ body io.ReadCloser }

func (rb *rawBackend) Name() string { return "raw" }
func (rb *rawBackend) Close(context.Context) error { return nil }
func (rb *rawBackend) RoundTrip(context.Context, *req.RawRequest) (*req.RawResponse, error) {
	return &req.RawResponse{StatusCode: 200, Status: "200 OK", Header: http.Header{}, Body: rb.body}, nil
}

func TestSend_Ignore_TimeoutWhileDrainingIsTimeout(t *testing.T) {
	cause := errors.New("read deadline")
	b := &rawBackend{body: erringBody{err: req.NewTimeoutError(cause)}}

	_, err := req.Send(context.Background(), b,
		req.Returning(req.Get("http://test/drain"), req.Ignore()))
	if !req.IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if req.IsIncompleteBody(err) {
		t.Fatalf("timeout rewrapped as incomplete body: %v", err)
	}
}

func TestSend_NilBackend(t *testing.T) {
	_, err := req.Send[req.Either[string, string]](context.Background(), nil, req.Get("http://test/"))
	if err == nil {
		t.Fatal("expected an error for nil backend")
	}
}

func TestUsing_ClosesBackend(t *testing.T) {
	b := reqtest.New()
	b.ReplyText(200, "ok")

	err := req.Using(b, func(bk req.Backend) error {
		_, err := req.Send(context.Background(), bk, req.Get("http://test/"))
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = req.Send(context.Background(), b, req.Get("http://test/"))
	if !req.IsClosed(err) {
		t.Fatalf("expected closed error after Using, got %v", err)
	}
}
