package protocol

import "bytes"

// ReplyKind classifies a text reply from the device.
type ReplyKind int

// Reply kinds.
const (
	// ReplyText is any other complete line.
	ReplyText ReplyKind = iota
	// ReplyIdentification answers a connect command.
	ReplyIdentification
	// ReplyError reports an unknown command byte.
	ReplyError
)

var replyKindNames = [...]string{"text", "identification", "error"}

// String implements fmt.Stringer.
func (k ReplyKind) String() string {
	if k >= 0 && int(k) < len(replyKindNames) {
		return replyKindNames[k]
	}
	return "unknown"
}

// Reply is a complete text reply received from the device.
type Reply struct {
	Kind ReplyKind
	Text string
	// Byte is the rejected command byte of a ReplyError.
	Byte byte
}

// Err returns a *CommandError for error replies, nil otherwise.
func (r *Reply) Err() error {
	if r.Kind != ReplyError {
		return nil
	}
	return &CommandError{Byte: r.Byte}
}

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	Sample *Sample
	Reply  *Reply
	// Dropped is set when a started frame was not terminated by EndByte.
	Dropped bool
}

// MaxReplySize bounds the text collected between frames.
const MaxReplySize = 64

type parseState int

const (
	stateText parseState = iota // outside a frame, collecting reply text
	stateHigh                   // waiting for the high byte
	stateLow                    // waiting for the low byte
	stateEnd                    // waiting for EndByte
)

// Parser decodes the byte stream sent by the device.
// The zero value is ready to use.
type Parser struct {
	state parseState
	high  byte
	low   byte
	text  []byte
}

// Reset discards any partial frame or reply.
func (p *Parser) Reset() {
	p.state, p.text = stateText, p.text[:0]
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	switch p.state {
	case stateText:
		// the rejected byte of an error reply may be anything, StartByte included.
		if b == StartByte && !p.expectingErrorByte() {
			p.text = p.text[:0]
			p.state = stateHigh
			return
		}
		pr.Reply = p.collect(b)
	case stateHigh:
		p.high, p.state = b, stateLow
	case stateLow:
		p.low, p.state = b, stateEnd
	case stateEnd:
		if b == EndByte {
			s := Sample(uint16(p.high)<<8 | uint16(p.low))
			pr.Sample = &s
			p.state = stateText
			return
		}
		pr.Dropped = true
		if b == StartByte {
			p.state = stateHigh
		} else {
			p.state = stateText
		}
	}
	return
}

func (p *Parser) expectingErrorByte() bool {
	return len(p.text) == len(errorMessagePrefix) && string(p.text) == errorMessagePrefix
}

func (p *Parser) collect(b byte) *Reply {
	p.text = append(p.text, b)
	var reply *Reply
	switch {
	case bytes.HasSuffix(p.text, []byte(IdentificationMarker)):
		reply = &Reply{Kind: ReplyIdentification, Text: string(p.text)}
	case bytes.HasSuffix(p.text, []byte(lineTerminator)):
		line := p.text[:len(p.text)-len(lineTerminator)]
		reply = &Reply{Kind: ReplyText, Text: string(line)}
		if len(line) == len(errorMessagePrefix)+1 && bytes.HasPrefix(line, []byte(errorMessagePrefix)) {
			reply.Kind, reply.Byte = ReplyError, line[len(errorMessagePrefix)]
		}
	case len(p.text) >= MaxReplySize:
		p.text = p.text[:0]
		return nil
	default:
		return nil
	}
	p.text = p.text[:0]
	return reply
}
