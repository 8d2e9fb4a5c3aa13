// Package nethttp implements the blocking reqkit backend on top of
// net/http. It owns a pooled transport configured from req.Config
// (connect timeout, connection cap, proxy incl. SOCKS5, TLS context,
// redirect policy) and maps transport failures to the typed reqkit
// error set.
//
//	backend, err := nethttp.New(req.Config{BaseURL: "https://api.example.com"})
//	defer backend.Close(ctx)
//	resp, err := req.Send(ctx, backend, req.Get("/users/123"))
//
// An existing *http.Client can be adopted with NewFromClient; in that
// case the caller keeps ownership and Close does not touch the client's
// transport.
package nethttp
