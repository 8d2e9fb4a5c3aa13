package req

import (
	"context"
	"encoding/base64"
	"testing"
	"time"
)

func TestRequest_BuilderIsImmutable(t *testing.T) {
	base := Get("http://test/").Header("X-Common", "yes")

	a := base.Header("X-Branch", "a")
	b := base.Header("X-Branch", "b").Query("page", "2")

	rawA, err := a.raw()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rawB, err := b.raw()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rawBase, err := base.raw()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := rawBase.Header.Get("X-Branch"); got != "" {
		t.Errorf("base must not see branch headers, got %q", got)
	}
	if got := rawA.Header.Get("X-Branch"); got != "a" {
		t.Errorf("expected a, got %q", got)
	}
	if got := rawB.Header.Get("X-Branch"); got != "b" {
		t.Errorf("expected b, got %q", got)
	}
	if len(rawA.Query) != 0 {
		t.Errorf("branch a must not see branch b's query, got %v", rawA.Query)
	}
	if got := rawA.Header.Get("X-Common"); got != "yes" {
		t.Errorf("shared prefix lost, got %q", got)
	}
}

func TestRequest_HeaderLastWriteWins(t *testing.T) {
	r := Get("http://test/").
		Header("Accept", "text/plain").
		Header("Accept", "application/json")

	raw, err := r.raw()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vals := raw.Header.Values("Accept")
	if len(vals) != 1 || vals[0] != "application/json" {
		t.Errorf("expected single application/json, got %v", vals)
	}
}

func TestRequest_AuthHelpers(t *testing.T) {
	raw, err := Get("http://test/").BearerAuth("tok123").raw()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := raw.Header.Get("Authorization"); got != "Bearer tok123" {
		t.Errorf("expected Bearer tok123, got %q", got)
	}

	raw, err = Get("http://test/").BasicAuth("alice", "s3cret").raw()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("alice:s3cret"))
	if got := raw.Header.Get("Authorization"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	raw, err = Get("http://test/").APIKeyAuth("", "key9").raw()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := raw.Header.Get("X-API-Key"); got != "key9" {
		t.Errorf("expected key9 in default header, got %q", got)
	}
}

func TestRequest_RawValidation(t *testing.T) {
	if _, err := (Request[struct{}]{}).raw(); !IsValidation(err) {
		t.Errorf("expected validation error for empty request, got %v", err)
	}
	if _, err := NewRequest("GET", "").raw(); !IsValidation(err) {
		t.Errorf("expected validation error for empty URL, got %v", err)
	}
}

func TestRequest_TimeoutAndRedirects(t *testing.T) {
	r := Get("http://test/").Timeout(5 * time.Second).FollowRedirects(false)
	raw, err := r.raw()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", raw.Timeout)
	}
	if raw.FollowRedirects == nil || *raw.FollowRedirects {
		t.Error("expected FollowRedirects=false")
	}

	// Unset policy stays nil so the backend default applies.
	raw, err = Get("http://test/").raw()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.FollowRedirects != nil {
		t.Error("expected nil redirect override")
	}
}

func TestRequest_BodyText_DefaultsContentType(t *testing.T) {
	r := Post("http://test/").BodyText("hello")
	rc, length, ct, err := r.Body().Open(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()
	if length != int64(len("hello")) {
		t.Errorf("expected length 5, got %d", length)
	}
	if ct != "text/plain; charset=utf-8" {
		t.Errorf("unexpected default content type %q", ct)
	}
}
