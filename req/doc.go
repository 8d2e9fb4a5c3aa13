// Package req defines a backend-agnostic HTTP request/response model.
//
// A Request describes what to send and, through a ResponseAs description,
// how the response body should be decoded. Requests are immutable values:
// every builder method returns a new definition, so a base request can be
// reused and sent concurrently. Sending is performed by a Backend, the
// single seam every transport implements, and the same definition can be
// executed blocking (Send), as a future (SendAsync), or as a deferred
// effect (Deferred).
//
// # Basic Usage
//
//	backend, _ := nethttp.New(req.Config{BaseURL: "https://api.example.com"})
//	defer backend.Close(ctx)
//
//	r := req.Get("/users/123").Header("Accept", "text/plain")
//	resp, err := req.Send(ctx, backend, r)
//	// resp.Body is Either[string, string]: Left on non-2xx, Right on 2xx.
//
// # Typed Decoding
//
//	r := req.Returning(req.Get("/users/123"), req.JSON[User]())
//	resp, err := req.Send(ctx, backend, r)
//
// # Streaming
//
//	r := req.Returning(req.Get("/export"), req.StreamOf()).Timeout(-1)
//	resp, _ := req.Send(ctx, backend, r)
//	if s, ok := resp.Body.Get(); ok {
//	    defer s.Close()
//	    // consume chunks
//	}
package req
