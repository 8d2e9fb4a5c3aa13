// Package ws layers duplex websocket sessions over the reqkit
// configuration and error model, using gorilla/websocket for framing.
//
// Two interface levels are provided. The low-level Session exposes
// frame-by-frame Read/Write over an Open → Closing → Closed state
// machine:
//
//	s, err := ws.Dial(ctx, "wss://example.com/feed", ws.Config{})
//	defer s.Close(ws.CloseNormal, "done")
//	f, err := s.Read(ctx)
//
// The high-level Run drives a Pipe, a transform from inbound frames to
// outbound frames, pumping both directions concurrently until either
// side closes, so a pipe can emit output (heartbeats, say) independent
// of consuming input:
//
//	err := ws.Run(ctx, s, func(ctx context.Context, in <-chan ws.Frame, out chan<- ws.Frame) error {
//	    for f := range in {
//	        out <- f // echo
//	    }
//	    return nil
//	})
package ws
