package telemetry

import (
	"github.com/golang/protobuf/proto"
)

// Frame is the MQTT payload carrying one protocol line.
type Frame struct {
	RobotID string `protobuf:"bytes,1,opt,name=robot_id,proto3" json:"robot_id,omitempty"`
	Kind    string `protobuf:"bytes,2,opt,name=kind,proto3" json:"kind,omitempty"`
	Line    string `protobuf:"bytes,3,opt,name=line,proto3" json:"line,omitempty"`
	TimeMs  int64  `protobuf:"varint,4,opt,name=time_ms,proto3" json:"time_ms,omitempty"`
	Seq     uint64 `protobuf:"varint,5,opt,name=seq,proto3" json:"seq,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Frame) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Frame) Reset() { *m = Frame{} }

// String implements proto.Message.
func (m *Frame) String() string { return proto.CompactTextString(m) }

// Encode serializes the frame.
func (m *Frame) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// DecodeFrame parses a frame payload.
func DecodeFrame(payload []byte) (*Frame, error) {
	f := &Frame{}
	if err := proto.Unmarshal(payload, f); err != nil {
		return nil, err
	}
	return f, nil
}
