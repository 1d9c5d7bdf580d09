package firmware

import (
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/wavedac/pkg/protocol"
)

// Effect describes what handling a command did.
type Effect string

// Effects.
const (
	EffectConnected Effect = "connected"
	EffectStreaming Effect = "streaming"
	EffectStopped   Effect = "stopped"
	EffectWaveform  Effect = "waveform"
	EffectRange     Effect = "range"
	EffectIgnored   Effect = "ignored"
	EffectError     Effect = "error"
)

// Processor applies received command bytes.
type Processor struct {
	Table     CommandTable
	Streaming *Streaming
	Output    *Output
	Out       io.Writer
}

// Handle decodes b and applies it. It never fails: unknown bytes are
// answered with an error line and leave all state untouched.
func (p *Processor) Handle(b byte) (Command, Effect) {
	table := p.Table
	if table == nil {
		table = DefaultCommandTable
	}
	req := table.Decode(b)
	effect := p.apply(req)
	glog.V(2).Infof("command %q: %s -> %s", b, req.Command, effect)
	return req.Command, effect
}

func (p *Processor) apply(req Request) Effect {
	switch req.Command {
	case CmdConnect:
		p.write(protocol.EncodeConnection())
		p.Streaming.Reset()
		return EffectConnected
	case CmdStartStreaming:
		p.Streaming.Start()
		return EffectStreaming
	case CmdStopStreaming:
		p.Streaming.Stop()
		return EffectStopped
	case CmdSelectWave1:
		return p.selectWaveform(Wave1)
	case CmdSelectWave2:
		return p.selectWaveform(Wave2)
	case CmdSelectRangeSmall:
		return p.setRange(RangeSmall)
	case CmdSelectRangeLarge:
		return p.setRange(RangeLarge)
	}
	p.write(protocol.EncodeError(req.Byte))
	return EffectError
}

func (p *Processor) selectWaveform(w Waveform) Effect {
	if p.Output.SelectWaveform(w) {
		return EffectWaveform
	}
	return EffectIgnored
}

func (p *Processor) setRange(r Range) Effect {
	if p.Output.SetRange(r) {
		return EffectRange
	}
	return EffectIgnored
}

func (p *Processor) write(data []byte) {
	if _, err := p.Out.Write(data); err != nil {
		glog.Warningf("reply write error: %v", err)
	}
}
