package firmware

import (
	"io"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/wavedac/pkg/protocol"
)

// StreamingState is the state owned by the Streaming controller.
type StreamingState struct {
	// Streaming is only touched by the dispatch loop.
	Streaming bool
	// SampleDue is set from interrupt context and consumed by the loop.
	SampleDue atomic.Bool
}

// Streaming samples the input whenever the sampling timer fires and
// sends the samples to the host.
type Streaming struct {
	Timer     Timer
	Interrupt Interrupt
	Sampler   Sampler
	Out       io.Writer
	Output    *Output
	// Wake is called from the interrupt handler after a sample is marked
	// due, usually to trigger the next loop iteration.
	Wake func()

	state StreamingState
	bound bool
	// produced counts the sample packets handed to Out.
	produced uint64
}

// IsStreaming returns true between Start and Stop.
func (s *Streaming) IsStreaming() bool {
	return s.state.Streaming
}

// SampleDue returns true if a timer firing has not been consumed yet.
func (s *Streaming) SampleDue() bool {
	return s.state.SampleDue.Load()
}

// Produced returns the number of sample packets sent.
func (s *Streaming) Produced() uint64 {
	return s.produced
}

// Start binds the interrupt handler and arms the timer. Calling Start
// while streaming re-arms the timer without binding the handler again.
func (s *Streaming) Start() {
	if !s.bound {
		s.Interrupt.StartEx(s.OnTimerInterrupt)
		s.bound = true
	}
	s.Timer.Start()
	s.state.Streaming = true
}

// Stop disarms the timer and unbinds the handler. It is always safe.
func (s *Streaming) Stop() {
	s.Timer.Stop()
	if s.bound {
		s.Interrupt.Stop()
		s.bound = false
	}
	s.state.Streaming = false
	s.state.SampleDue.Store(false)
}

// Reset stops streaming and restores the default output configuration.
func (s *Streaming) Reset() {
	s.Stop()
	if s.Output != nil {
		s.Output.Reset()
	}
}

// OnTimerInterrupt is the sampling interrupt handler.
func (s *Streaming) OnTimerInterrupt() {
	s.state.SampleDue.Store(true)
	s.Timer.ReadStatus()
	if wake := s.Wake; wake != nil {
		wake()
	}
}

// ProduceSampleIfDue sends one sample if the timer fired since the last
// call. The due flag is cleared before the input is read, so a firing
// during the transmission is served by the next call.
func (s *Streaming) ProduceSampleIfDue() bool {
	if !s.state.Streaming || !s.state.SampleDue.Swap(false) {
		return false
	}
	raw := s.Sampler.ReadRaw()
	if _, err := s.Out.Write(protocol.EncodeSample(raw)); err != nil {
		glog.Warningf("sample write error: %v", err)
	}
	s.produced++
	return true
}
