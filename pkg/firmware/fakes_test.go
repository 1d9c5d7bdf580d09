package firmware

import (
	"bytes"
	"io"
)

type fakeGenerator struct {
	running bool
	ranges  []Range
	waves   []Waveform
}

func (g *fakeGenerator) Start() { g.running = true }
func (g *fakeGenerator) Stop() { g.running = false }
func (g *fakeGenerator) SetRange(r Range) { g.ranges = append(g.ranges, r) }
func (g *fakeGenerator) SelectWaveform(w Waveform) { g.waves = append(g.waves, w) }

type fakeSampler struct {
	running bool
	next    uint32
	reads   int
}

func (s *fakeSampler) Start() { s.running = true }
func (s *fakeSampler) Stop() { s.running = false }

func (s *fakeSampler) ReadRaw() uint32 {
	s.reads++
	v := s.next
	s.next++
	return v
}

type fakeTimer struct {
	armed       bool
	starts      int
	statusReads int
}

func (t *fakeTimer) Start() {
	t.armed = true
	t.starts++
}

func (t *fakeTimer) Stop() { t.armed = false }

func (t *fakeTimer) ReadStatus() byte {
	t.statusReads++
	return 1
}

// fakeInterrupt fires the bound handler on demand.
type fakeInterrupt struct {
	handler func()
	binds   int
}

func (i *fakeInterrupt) StartEx(h func()) {
	i.handler = h
	i.binds++
}

func (i *fakeInterrupt) Stop() { i.handler = nil }

func (i *fakeInterrupt) fire() {
	if i.handler != nil {
		i.handler()
	}
}

type fakeTransport struct {
	in  bytes.Buffer
	out bytes.Buffer
}

func (t *fakeTransport) Available() int { return t.in.Len() }
func (t *fakeTransport) ReadByte() (byte, error) { return t.in.ReadByte() }
func (t *fakeTransport) Write(data []byte) (int, error) { return t.out.Write(data) }
func (t *fakeTransport) receive(data string) { t.in.WriteString(data) }

func (t *fakeTransport) sent() []byte {
	data, _ := io.ReadAll(&t.out)
	return data
}

type fakeHardware struct {
	gen       *fakeGenerator
	sampler   *fakeSampler
	timer     *fakeTimer
	irq       *fakeInterrupt
	transport *fakeTransport
}

func newFakeHardware() *fakeHardware {
	return &fakeHardware{
		gen:       &fakeGenerator{},
		sampler:   &fakeSampler{},
		timer:     &fakeTimer{},
		irq:       &fakeInterrupt{},
		transport: &fakeTransport{},
	}
}

func (h *fakeHardware) Hardware() Hardware {
	return Hardware{
		Transport: h.transport,
		Generator: h.gen,
		Sampler:   h.sampler,
		Timer:     h.timer,
		Interrupt: h.irq,
	}
}
