package comm

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type clientTestEnv struct {
	t      *testing.T
	peer   net.Conn
	reader *bufio.Reader
	client *Client
	cancel context.CancelFunc
}

func newClientTestEnv(t *testing.T) *clientTestEnv {
	local, peer := net.Pipe()
	env := &clientTestEnv{
		t:      t,
		peer:   peer,
		reader: bufio.NewReader(peer),
		client: NewClient(NewLink(local)),
	}
	ctx, cancel := context.WithCancel(context.Background())
	env.cancel = cancel
	go env.client.Run(ctx)
	require.Eventually(t, env.client.Link().Ready, time.Second, time.Millisecond)
	t.Cleanup(func() {
		cancel()
		peer.Close()
	})
	return env
}

// expect reads one line sent by the client.
func (e *clientTestEnv) expect(line string) {
	got, err := e.reader.ReadString('\n')
	require.NoError(e.t, err)
	require.Equal(e.t, line+"\n", got)
}

// reply writes lines from the peer.
func (e *clientTestEnv) reply(lines ...string) {
	for _, l := range lines {
		_, err := e.peer.Write([]byte(l + "\r\n"))
		require.NoError(e.t, err)
	}
}

func recvResult(t *testing.T, req *Request) Result {
	select {
	case res := <-req.ResultChan():
		return res
	case <-time.After(time.Second):
		t.Fatalf("no result for %q", req.Line())
	}
	return Result{}
}

func TestClientRequestReply(t *testing.T) {
	env := newClientTestEnv(t)
	done := make(chan Result, 1)
	go func() {
		line, err := env.client.Request(context.Background(), "PING", MatchPrefix("DIST,"))
		done <- Result{Line: line, Err: err}
	}()
	env.expect("PING")
	env.reply("STAT,STOP,0,0,NA", "DIST,42.0")
	res := <-done
	require.NoError(t, res.Err)
	require.Equal(t, "DIST,42.0", res.Line)

	select {
	case line := <-env.client.LineChan():
		require.Equal(t, "STAT,STOP,0,0,NA", line)
	case <-time.After(time.Second):
		t.Fatal("unsolicited line not delivered")
	}
}

func TestClientNoReply(t *testing.T) {
	env := newClientTestEnv(t)
	reqCh := make(chan *Request, 2)
	go func() {
		reqCh <- env.client.Do("PING", MatchPrefix("DIST,"))
		reqCh <- env.client.Do("Q", MatchPrefix("STAT mode="))
	}()
	env.expect("PING")
	ping := <-reqCh
	env.expect("Q")
	query := <-reqCh

	env.reply("STAT mode=S spd=0 thresh=0 last_cm=NA sweep=0")
	require.ErrorIs(t, recvResult(t, ping).Err, ErrNoReply)
	res := recvResult(t, query)
	require.NoError(t, res.Err)
	require.Equal(t, "STAT mode=S spd=0 thresh=0 last_cm=NA sweep=0", res.Line)
}

func TestClientRequestCanceled(t *testing.T) {
	env := newClientTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := env.client.Request(ctx, "PING", MatchPrefix("DIST,"))
		errCh <- err
	}()
	env.expect("PING")
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
	env.client.reqsLock.Lock()
	require.Nil(t, env.client.reqsHead)
	env.client.reqsLock.Unlock()
}

func TestLinkNotReady(t *testing.T) {
	local, peer := net.Pipe()
	defer peer.Close()
	link := NewLink(local)
	require.ErrorIs(t, link.WriteLine("S"), ErrNotReady)
}

func TestPortOptions(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	require.NoError(t, err)
	require.Equal(t, DefaultBaudRate, opts.BaudRate)
	require.Equal(t, 8, opts.DataBits)
	require.Equal(t, "N", opts.Parity)

	_, err = PortOptions{DataBits: 9}.Normalize()
	require.Error(t, err)
	_, err = PortOptions{Parity: "mark"}.Normalize()
	require.Error(t, err)

	mode, err := PortOptions{StopBits: 2, Parity: "even"}.SerialMode()
	require.NoError(t, err)
	require.Equal(t, 115200, mode.BaudRate)
}
