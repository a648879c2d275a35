package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/robotalks/buggy.go/pkg/l0/comm"
)

func TestServerLink(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines := make(chan string, 4)
	accepted := make(chan *comm.Link, 1)
	srv := &Server{Accept: func(link *comm.Link) func() {
		var parser comm.Parser
		link.Handler = comm.HandleBytesFunc(func(_ context.Context, data []byte) {
			parser.ParseBytes(data, func(line string) { lines <- line })
		})
		accepted <- link
		return nil
	}}
	ts := httptest.NewServer(srv.Handler(ctx))
	defer ts.Close()

	conn, err := websocket.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), "", ts.URL)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, websocket.Message.Send(conn, "F200"))
	require.NoError(t, websocket.Message.Send(conn, "PING\n"))
	require.Equal(t, "F200", <-lines)
	require.Equal(t, "PING", <-lines)

	link := <-accepted
	require.Eventually(t, link.Ready, time.Second, time.Millisecond)
	require.NoError(t, link.WriteLine("DIST,42.0"))
	var msg string
	require.NoError(t, websocket.Message.Receive(conn, &msg))
	require.Equal(t, "DIST,42.0", msg)
}
