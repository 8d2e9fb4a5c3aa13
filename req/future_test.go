package req_test

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/reqkit/req"
	"github.com/kbukum/reqkit/reqtest"
)

func TestSendAsync_Await(t *testing.T) {
	b := reqtest.New()
	b.ReplyText(200, "async result")

	f := req.SendAsync(context.Background(), b, req.Get("http://test/"))
	resp, err := f.Await(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := resp.Body.Get(); got != "async result" {
		t.Errorf("expected async result, got %q", got)
	}

	// Await is idempotent once resolved.
	again, err := f.Await(context.Background())
	if err != nil || again != resp {
		t.Errorf("second await must return the same result, got %v %v", again, err)
	}
}

func TestSendAsync_TryGet(t *testing.T) {
	b := reqtest.New()
	b.ReplyAfter(200*time.Millisecond, 200, []byte("late"))

	f := req.SendAsync(context.Background(), b, req.Get("http://test/"))
	if _, _, ok := f.TryGet(); ok {
		t.Error("TryGet must not block or report an unresolved future")
	}

	<-f.Done()
	resp, err, ok := f.TryGet()
	if !ok || err != nil {
		t.Fatalf("expected resolved future, got ok=%v err=%v", ok, err)
	}
	if got, _ := resp.Body.Get(); got != "late" {
		t.Errorf("expected late, got %q", got)
	}
}

func TestSendAsync_AwaitHonorsCallerContext(t *testing.T) {
	b := reqtest.New()
	b.ReplyAfter(5*time.Second, 200, []byte("never"))

	f := req.SendAsync(context.Background(), b, req.Get("http://test/"))
	defer f.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	if !req.IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestSendAsync_Cancel(t *testing.T) {
	b := reqtest.New()
	b.ReplyAfter(5*time.Second, 200, []byte("never"))

	f := req.SendAsync(context.Background(), b, req.Get("http://test/"))
	f.Cancel()

	_, err := f.Await(context.Background())
	if err == nil {
		t.Fatal("expected an error from a cancelled future")
	}
}
