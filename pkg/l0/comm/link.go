package comm

import (
	"context"
	"io"
	"os"
	"sync"

	fx "github.com/robotalks/buggy.go/pkg/framework"
)

// ByteHandler is called with every chunk of bytes received.
type ByteHandler interface {
	HandleBytes(context.Context, []byte)
}

// HandleBytesFunc is func type of ByteHandler.
type HandleBytesFunc func(context.Context, []byte)

// HandleBytes implements ByteHandler.
func (f HandleBytesFunc) HandleBytes(ctx context.Context, data []byte) {
	f(ctx, data)
}

// StateNotifier is called when the link goes up or down.
type StateNotifier interface {
	StateChanged(ctx context.Context, ready bool)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(context.Context, bool)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(ctx context.Context, ready bool) {
	f(ctx, ready)
}

// DefaultBufferSize is the read chunk size.
const DefaultBufferSize = 64

// Link reads bytes and writes lines over a stream.
type Link struct {
	ReadWriter io.ReadWriter
	Handler    ByteHandler
	Notifier   StateNotifier
	// ReadTimeout is set when ReadWriter returns periodically without data
	// (e.g. a serial port with a read timeout), so Run can observe
	// cancellation without closing the stream.
	ReadTimeout bool
	BufferSize  int
	LinkName    string

	ready bool
	lock  sync.Mutex
}

// NewLink creates a Link.
func NewLink(rw io.ReadWriter) *Link {
	return &Link{ReadWriter: rw, BufferSize: DefaultBufferSize, LinkName: "link"}
}

// Name implements fx.Named.
func (l *Link) Name() string {
	return l.LinkName
}

// Ready reports whether Run is active.
func (l *Link) Ready() bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.ready
}

// WriteLine sends one line.
func (l *Link) WriteLine(line string) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if !l.ready {
		return ErrNotReady
	}
	_, err := WriteLine(l.ReadWriter, line)
	return err
}

// Run reads until ctx is done or the stream fails.
func (l *Link) Run(ctx context.Context) error {
	l.setReady(ctx, true)
	defer l.setReady(ctx, false)
	if closer, ok := l.ReadWriter.(io.Closer); ok && !l.ReadTimeout {
		return fx.RunWithContextCloser(ctx, closer, func() error {
			return l.readLoop(ctx)
		})
	}
	return l.readLoop(ctx)
}

func (l *Link) readLoop(ctx context.Context) error {
	size := l.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	buf := make([]byte, size)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := l.ReadWriter.Read(buf)
		if n > 0 && l.Handler != nil {
			data := make([]byte, n)
			copy(data, buf[:n])
			l.Handler.HandleBytes(ctx, data)
		}
		if err != nil {
			if os.IsTimeout(err) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}

func (l *Link) setReady(ctx context.Context, ready bool) {
	l.lock.Lock()
	changed := l.ready != ready
	l.ready = ready
	notifier := l.Notifier
	l.lock.Unlock()
	if changed && notifier != nil {
		notifier.StateChanged(ctx, ready)
	}
}
