package telemetry

import (
	"strings"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/buggy.go/pkg/status"
)

// TopicRoot is the first level of every robot topic.
const TopicRoot = "buggy"

// Topic builds buggy/<id>/<leaf>.
func Topic(robotID, leaf string) string {
	return strings.Join([]string{TopicRoot, robotID, leaf}, "/")
}

// ParseTopic splits buggy/<id>/<leaf>.
func ParseTopic(topic string) (robotID, leaf string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != TopicRoot {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// Publisher is a status.Sink publishing frames.
type Publisher struct {
	Queue   *Queue
	RobotID string

	seq uint64
}

// NewPublisher creates a Publisher.
func NewPublisher(q *Queue, robotID string) *Publisher {
	return &Publisher{Queue: q, RobotID: robotID}
}

// Frame builds the frame of a line.
func (p *Publisher) Frame(l status.Line) *Frame {
	return &Frame{
		RobotID: p.RobotID,
		Kind:    l.Kind.String(),
		Line:    l.Text,
		TimeMs:  l.At.UnixNano() / 1e6,
		Seq:     atomic.AddUint64(&p.seq, 1),
	}
}

// Emit implements status.Sink. Publishing is asynchronous and skipped while
// disconnected.
func (p *Publisher) Emit(l status.Line) error {
	if !p.Queue.Client.IsConnected() {
		return nil
	}
	payload, err := p.Frame(l).Encode()
	if err != nil {
		return err
	}
	p.Queue.Pub(Topic(p.RobotID, l.Kind.String()), payload)
	return nil
}

// CommandLeaf is the topic leaf accepting command lines.
const CommandLeaf = "cmd"

// SubscribeCommands delivers raw command lines sent to buggy/<id>/cmd.
func (p *Publisher) SubscribeCommands(fn func(line string)) *Subscription {
	return p.Queue.Sub(Topic(p.RobotID, CommandLeaf), func(topic string, payload []byte) {
		for _, line := range strings.Split(string(payload), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				glog.V(2).Infof("telemetry: remote %q", line)
				fn(line)
			}
		}
	})
}
