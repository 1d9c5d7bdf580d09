package bridge

import (
	"encoding/json"

	fx "github.com/robotalks/wavedac/pkg/framework"
	"github.com/robotalks/wavedac/pkg/protocol"
)

// SampleMessage carries a received sample through the loop.
type SampleMessage struct {
	protocol.Sample
}

// NewMessage implements framework.Message.
func (m *SampleMessage) NewMessage() fx.Message { return &SampleMessage{} }

// ReplyMessage carries a received reply through the loop.
type ReplyMessage struct {
	*protocol.Reply
}

// NewMessage implements framework.Message.
func (m *ReplyMessage) NewMessage() fx.Message { return &ReplyMessage{} }

// CommandMessage carries command bytes received from the queue.
type CommandMessage struct {
	Commands []byte
}

// NewMessage implements framework.Message.
func (m *CommandMessage) NewMessage() fx.Message { return &CommandMessage{} }

// SamplePayload is the JSON form of a sample.
type SamplePayload struct {
	Raw   uint16  `json:"raw"`
	Volts float64 `json:"volts"`
}

// ReplyPayload is the JSON form of a reply.
type ReplyPayload struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
	Byte *byte  `json:"byte,omitempty"`
}

// EncodeSample encodes s as JSON.
func EncodeSample(s protocol.Sample) ([]byte, error) {
	return json.Marshal(&SamplePayload{Raw: uint16(s), Volts: s.Volts()})
}

// EncodeReply encodes r as JSON. The rejected byte is only present for
// error replies.
func EncodeReply(r *protocol.Reply) ([]byte, error) {
	payload := &ReplyPayload{Kind: r.Kind.String(), Text: r.Text}
	if r.Kind == protocol.ReplyError {
		b := r.Byte
		payload.Byte = &b
	}
	return json.Marshal(payload)
}
