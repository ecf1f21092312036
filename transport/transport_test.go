package transport

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeTCPPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func freeUDPPort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).Port
}

// startEcho binds server and answers every message with "echo:" + payload
// until the transport closes.
func startEcho(t *testing.T, server Transport) {
	t.Helper()
	require.NoError(t, server.Bind())
	t.Cleanup(func() { server.Close() })

	go func() {
		for {
			data, h, err := server.Receive()
			if err != nil {
				return
			}
			reply := append([]byte("echo:"), data...)
			if err := server.Reply(reply, h); err != nil {
				return
			}
		}
	}()
}

func testRoundTrip(t *testing.T, server, client Transport) {
	t.Helper()
	startEcho(t, server)

	for _, msg := range []string{"hello", `{"command":"x"}`, "x"} {
		reply, err := client.Send([]byte(msg))
		require.NoError(t, err)
		assert.Equal(t, "echo:"+msg, string(reply))
	}
}

func TestUnixRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "socks_test.sock")
	testRoundTrip(t, Unix(path), Unix(path))
}

func TestTCPRoundTrip(t *testing.T) {
	port := freeTCPPort(t)
	testRoundTrip(t, TCP("", port), TCP("127.0.0.1", port))
}

func TestUDPRoundTrip(t *testing.T) {
	port := freeUDPPort(t)
	testRoundTrip(t, UDP("", port), UDP("127.0.0.1", port))
}

func TestWebSocketRoundTrip(t *testing.T) {
	port := freeTCPPort(t)
	testRoundTrip(t, WebSocket("", port, "/"), WebSocket("127.0.0.1", port, "/"))
}

func TestUnixBindRemovesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.sock")

	// a leftover file at the socket path must not break Bind
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	tr := Unix(path)
	require.NoError(t, tr.Bind())
	defer tr.Close()
}

func TestCloseUnblocksReceive(t *testing.T) {
	for _, tc := range []struct {
		name string
		tr   Transport
	}{
		{"unix", Unix(filepath.Join(t.TempDir(), "close.sock"))},
		{"tcp", TCP("", freeTCPPort(t))},
		{"udp", UDP("", freeUDPPort(t))},
		{"websocket", WebSocket("", freeTCPPort(t), "/")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, tc.tr.Bind())

			errCh := make(chan error, 1)
			go func() {
				_, _, err := tc.tr.Receive()
				errCh <- err
			}()

			time.Sleep(50 * time.Millisecond)
			require.NoError(t, tc.tr.Close())

			select {
			case err := <-errCh:
				var recvErr *ReceiveError
				assert.ErrorAs(t, err, &recvErr)
			case <-time.After(5 * time.Second):
				t.Fatal("Receive did not unblock after Close")
			}
		})
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.sock")
	tr := Unix(path)
	require.NoError(t, tr.Bind())
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
}

func TestReceiveBeforeBindFails(t *testing.T) {
	_, _, err := Unix("/tmp/never-bound.sock").Receive()
	var recvErr *ReceiveError
	require.ErrorAs(t, err, &recvErr)
}

func TestReplyRejectsForeignHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foreign.sock")
	tr := Unix(path)
	require.NoError(t, tr.Bind())
	defer tr.Close()

	err := tr.Reply([]byte("x"), &datagramHandle{addr: &net.UDPAddr{}})
	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
}

func TestSendToUnboundEndpointFails(t *testing.T) {
	_, err := Unix(filepath.Join(t.TempDir(), "nobody.sock")).Send([]byte("x"))
	var connErr *ConnectError
	require.ErrorAs(t, err, &connErr)
}

func TestOversizedDatagramIsTruncated(t *testing.T) {
	port := freeUDPPort(t)
	server := UDP("", port)
	require.NoError(t, server.Bind())
	defer server.Close()

	got := make(chan []byte, 1)
	go func() {
		data, h, err := server.Receive()
		if err != nil {
			return
		}
		got <- bytes.Clone(data)
		server.Reply([]byte("ok"), h)
	}()

	big := bytes.Repeat([]byte("a"), 3*BufferSize)
	_, err := UDP("127.0.0.1", port).Send(big)
	require.NoError(t, err)

	select {
	case data := <-got:
		assert.Len(t, data, BufferSize)
	case <-time.After(5 * time.Second):
		t.Fatal("server never received the datagram")
	}
}

func TestDatagramHandleIsAddressTuple(t *testing.T) {
	port := freeUDPPort(t)
	server := UDP("", port)
	require.NoError(t, server.Bind())
	defer server.Close()

	handles := make(chan Handle, 1)
	go func() {
		_, h, err := server.Receive()
		if err != nil {
			return
		}
		handles <- h
		server.Reply([]byte("ok"), h)
	}()

	_, err := UDP("127.0.0.1", port).Send([]byte("ping"))
	require.NoError(t, err)

	select {
	case h := <-handles:
		host, _, err := net.SplitHostPort(h.String())
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1", host)
	case <-time.After(5 * time.Second):
		t.Fatal("server never received the datagram")
	}
}
