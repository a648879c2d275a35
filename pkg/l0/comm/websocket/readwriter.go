// Package websocket carries the line protocol over websocket, one line per
// text message.
package websocket

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/buggy.go/pkg/l0/comm"
)

// ReadWriter adapts a websocket connection to the byte stream of a Link.
type ReadWriter struct {
	conn    *websocket.Conn
	pending []byte
}

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return &ReadWriter{conn: conn}
}

// Read returns bytes of received messages. A message not ending with the
// terminator is terminated.
func (p *ReadWriter) Read(buf []byte) (int, error) {
	if len(p.pending) == 0 {
		var msg string
		if err := websocket.Message.Receive(p.conn, &msg); err != nil {
			return 0, err
		}
		if !strings.HasSuffix(msg, comm.Terminator) {
			msg += comm.Terminator
		}
		p.pending = []byte(msg)
	}
	n := copy(buf, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

// Write sends one message without the terminator.
func (p *ReadWriter) Write(data []byte) (int, error) {
	msg := strings.TrimSuffix(string(data), comm.Terminator)
	if err := websocket.Message.Send(p.conn, msg); err != nil {
		return 0, err
	}
	return len(data), nil
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return p.conn.Close()
}

// NewLink creates a Link over the connection.
func NewLink(conn *websocket.Conn) *comm.Link {
	link := comm.NewLink(New(conn))
	if req := conn.Request(); req != nil {
		link.LinkName = "ws:" + req.RemoteAddr
	} else {
		link.LinkName = "ws"
	}
	return link
}

// Dial connects to a websocket server and returns the link.
func Dial(url, origin string) (*comm.Link, error) {
	conn, err := websocket.Dial(url, "", origin)
	if err != nil {
		return nil, err
	}
	return NewLink(conn), nil
}

// AcceptFunc is called with every accepted link before it runs. The
// returned func is called when the link ends.
type AcceptFunc func(*comm.Link) func()

// Server serves links over websocket.
type Server struct {
	Addr   string
	Path   string
	Accept AcceptFunc
}

// Name implements fx.Named.
func (s *Server) Name() string {
	return "websocket"
}

// Handler returns the websocket handler running links until ctx is done.
func (s *Server) Handler(ctx context.Context) http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		link := NewLink(conn)
		if s.Accept != nil {
			if done := s.Accept(link); done != nil {
				defer done()
			}
		}
		glog.Infof("websocket: %s connected", link.Name())
		err := link.Run(ctx)
		glog.Infof("websocket: %s disconnected: %v", link.Name(), err)
	})
}

// Run implements fx.Runnable.
func (s *Server) Run(ctx context.Context) error {
	path := s.Path
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.Handle(path, s.Handler(ctx))
	srv := &http.Server{Addr: s.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}
