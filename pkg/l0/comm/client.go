package comm

import (
	"context"
	"strings"
	"sync"

	"github.com/golang/glog"
)

// Matcher decides whether a received line is the reply of a request.
type Matcher func(line string) bool

// MatchPrefix matches lines starting with one of the prefixes.
func MatchPrefix(prefixes ...string) Matcher {
	return func(line string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(line, p) {
				return true
			}
		}
		return false
	}
}

// Result is the result of a request using Do.
type Result struct {
	Err  error
	Line string
}

// Request represents a pending request waiting for reply.
type Request struct {
	line     string
	match    Matcher
	resultCh chan Result
	next     *Request
}

// Line returns the request line.
func (r *Request) Line() string {
	return r.line
}

// ResultChan returns the chan to retrieve result.
func (r *Request) ResultChan() <-chan Result {
	return r.resultCh
}

// Client provides host side operations over a Link.
type Client struct {
	link     *Link
	parser   Parser
	lineCh   chan string
	reqsHead *Request
	reqsTail *Request
	reqsLock sync.Mutex
}

// NewClient creates client and wraps the link.
func NewClient(link *Link) *Client {
	c := &Client{
		link:   link,
		lineCh: make(chan string, 16),
	}
	c.link.Handler = c
	return c
}

// Link gets wrapped Link.
func (c *Client) Link() *Link {
	return c.link
}

// LineChan retrieves lines not consumed as replies (STAT, EVENT, BOOT).
func (c *Client) LineChan() <-chan string {
	return c.lineCh
}

// Send sends a line expecting no reply.
func (c *Client) Send(line string) error {
	return c.link.WriteLine(line)
}

// Do sends a line and returns a Request for the first line matching.
func (c *Client) Do(line string, match Matcher) *Request {
	req := &Request{line: line, match: match, resultCh: make(chan Result, 1)}

	c.reqsLock.Lock()
	defer c.reqsLock.Unlock()
	if err := c.link.WriteLine(line); err != nil {
		req.resultCh <- Result{Err: err}
		return req
	}
	if c.reqsHead == nil {
		c.reqsHead = req
	} else {
		c.reqsTail.next = req
	}
	c.reqsTail = req
	return req
}

// Request sends a line and waits for its reply.
func (c *Client) Request(ctx context.Context, line string, match Matcher) (string, error) {
	req := c.Do(line, match)
	select {
	case <-ctx.Done():
		c.cancel(req)
		return "", ctx.Err()
	case res := <-req.resultCh:
		return res.Line, res.Err
	}
}

// HandleBytes implements ByteHandler.
func (c *Client) HandleBytes(ctx context.Context, data []byte) {
	c.parser.ParseBytes(data, func(line string) {
		c.handleLine(ctx, line)
	})
}

func (c *Client) handleLine(ctx context.Context, line string) {
	c.reqsLock.Lock()
	head := c.reqsHead
	curr := c.reqsHead
	for ; curr != nil; curr = curr.next {
		if curr.match != nil && curr.match(line) {
			if c.reqsHead = curr.next; c.reqsHead == nil {
				c.reqsTail = nil
			}
			curr.next = nil
			break
		}
	}
	c.reqsLock.Unlock()
	if curr == nil {
		select {
		case c.lineCh <- line:
		default:
			glog.Warningf("comm: line dropped: %q", line)
		}
		return
	}
	for ; head != curr; head = head.next {
		head.resultCh <- Result{Err: ErrNoReply}
	}
	curr.resultCh <- Result{Line: line}
}

func (c *Client) cancel(req *Request) {
	c.reqsLock.Lock()
	defer c.reqsLock.Unlock()
	var prev *Request
	for curr := c.reqsHead; curr != nil; prev, curr = curr, curr.next {
		if curr != req {
			continue
		}
		if prev == nil {
			c.reqsHead = curr.next
		} else {
			prev.next = curr.next
		}
		if c.reqsTail == curr {
			c.reqsTail = prev
		}
		curr.next = nil
		return
	}
}

// Run wraps Link.Run to implement Runnable.
func (c *Client) Run(ctx context.Context) error {
	return c.link.Run(ctx)
}
