package firmware

import (
	"github.com/golang/glog"

	fx "github.com/robotalks/wavedac/pkg/framework"
)

// Hardware groups the collaborators driven by a Device.
type Hardware struct {
	Transport Transport
	Generator OutputGenerator
	Sampler   Sampler
	Timer     Timer
	Interrupt Interrupt
}

// Device is the complete firmware: command processing and sample
// streaming over one transport.
type Device struct {
	Transport Transport
	Output    *Output
	Streaming *Streaming
	Processor *Processor

	peripherals []Peripheral
}

// NewDevice wires the firmware modules onto hw.
func NewDevice(hw Hardware) *Device {
	d := &Device{Transport: hw.Transport}
	d.Output = NewOutput(hw.Generator)
	d.Streaming = &Streaming{
		Timer:     hw.Timer,
		Interrupt: hw.Interrupt,
		Sampler:   hw.Sampler,
		Out:       hw.Transport,
		Output:    d.Output,
	}
	d.Processor = &Processor{
		Table:     DefaultCommandTable,
		Streaming: d.Streaming,
		Output:    d.Output,
		Out:       hw.Transport,
	}
	for _, c := range []interface{}{hw.Generator, hw.Sampler} {
		if p, ok := c.(Peripheral); ok {
			d.peripherals = append(d.peripherals, p)
		}
	}
	return d
}

// Start powers up the peripherals and resets the device.
func (d *Device) Start() {
	for _, p := range d.peripherals {
		p.Start()
	}
	d.Reset()
	glog.Info("device started")
}

// Stop stops streaming and powers down the peripherals.
func (d *Device) Stop() {
	d.Streaming.Stop()
	for i := len(d.peripherals) - 1; i >= 0; i-- {
		d.peripherals[i].Stop()
	}
	glog.Info("device stopped")
}

// Reset stops streaming and restores the default output configuration.
func (d *Device) Reset() {
	d.Streaming.Reset()
}

// AddToLoop implements framework.LoopAdder.
func (d *Device) AddToLoop(l *fx.Loop) {
	d.Streaming.Wake = l.TriggerNext
	if w, ok := d.Transport.(Waker); ok {
		w.SetWaker(l.TriggerNext)
	}
	if r, ok := d.Transport.(fx.Runnable); ok {
		l.AddRunnable(fx.NamedRun("transport", r))
	}
	l.AddController(fx.PrLvCommand, fx.ControlFunc(d.PollCommand))
	l.AddController(fx.PrLvStream, fx.ControlFunc(d.PollSample))
}

// PollCommand handles at most one received byte. More pending bytes
// schedule another iteration.
func (d *Device) PollCommand(cc fx.ControlContext) error {
	if d.Transport.Available() <= 0 {
		return nil
	}
	b, err := d.Transport.ReadByte()
	if err != nil {
		return err
	}
	d.Processor.Handle(b)
	if d.Transport.Available() > 0 {
		cc.TriggerNext()
	}
	return nil
}

// PollSample sends a sample if one is due.
func (d *Device) PollSample(fx.ControlContext) error {
	if d.Streaming.IsStreaming() {
		d.Streaming.ProduceSampleIfDue()
	}
	return nil
}
