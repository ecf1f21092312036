// Package socks is a minimal JSON-message RPC layer for local and networked
// interprocess communication. A process exposes named commands over a
// pluggable transport (unix domain socket, UDP, TCP or websocket) and another
// process invokes them by sending a JSON envelope and awaiting a JSON reply.
//
// Server usage:
//
//	srv := socks.NewServer(transport.Unix("/tmp/app.sock"),
//		socks.WithPool(pool.New(4)))
//	srv.AddHandler("echo", func(req socks.Envelope) (socks.Envelope, error) {
//		return socks.Okay(socks.Envelope{"value": req["value"]}), nil
//	})
//	srv.Start() // blocking; see ServeBackground
//
// Client usage:
//
//	cli := socks.NewClient(transport.Unix("/tmp/app.sock"))
//	defer cli.Close()
//	resp, err := cli.Call("echo", socks.Envelope{"value": 7})
//
// A request is a JSON object carrying the reserved "command" key; a response
// is a JSON object carrying a boolean "success" key and, on failure, a
// human-readable "message". One physical read carries one message; payloads
// larger than transport.BufferSize are truncated by the stream transports and
// surface downstream as a JSON parse failure.
package socks
