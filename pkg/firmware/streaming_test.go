package firmware

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/wavedac/pkg/protocol"
)

func newTestStreaming(hw *fakeHardware) *Streaming {
	return &Streaming{
		Timer:     hw.timer,
		Interrupt: hw.irq,
		Sampler:   hw.sampler,
		Out:       hw.transport,
		Output:    NewOutput(hw.gen),
	}
}

func TestStreamingStartStop(t *testing.T) {
	hw := newFakeHardware()
	s := newTestStreaming(hw)
	require.False(t, s.IsStreaming())

	s.Start()
	require.True(t, s.IsStreaming())
	require.True(t, hw.timer.armed)
	s.Start()
	require.Equal(t, 1, hw.irq.binds)
	require.Equal(t, 2, hw.timer.starts)

	s.Stop()
	require.False(t, s.IsStreaming())
	require.False(t, s.SampleDue())
	require.False(t, hw.timer.armed)
	require.Nil(t, hw.irq.handler)

	// stop is always safe.
	s.Stop()
	require.False(t, s.IsStreaming())

	s.Start()
	require.Equal(t, 2, hw.irq.binds)
}

func TestStreamingStartStopWithoutInterrupt(t *testing.T) {
	hw := newFakeHardware()
	s := newTestStreaming(hw)
	s.Start()
	s.Stop()
	require.False(t, s.SampleDue())
	require.False(t, s.IsStreaming())
	require.False(t, s.ProduceSampleIfDue())
	require.Empty(t, hw.transport.sent())
}

func TestStreamingInterruptAcknowledges(t *testing.T) {
	hw := newFakeHardware()
	s := newTestStreaming(hw)
	wakes := 0
	s.Wake = func() { wakes++ }
	s.Start()
	hw.irq.fire()
	hw.irq.fire()
	require.Equal(t, 2, hw.timer.statusReads)
	require.Equal(t, 2, wakes)
	require.True(t, s.SampleDue())
	// no transport access from the handler.
	require.Empty(t, hw.transport.sent())
}

func TestStreamingProduceSample(t *testing.T) {
	hw := newFakeHardware()
	s := newTestStreaming(hw)
	hw.sampler.next = 0x1234

	require.False(t, s.ProduceSampleIfDue())
	s.Start()
	require.False(t, s.ProduceSampleIfDue())
	hw.irq.fire()
	require.True(t, s.ProduceSampleIfDue())
	require.False(t, s.SampleDue())
	require.False(t, s.ProduceSampleIfDue())
	require.Equal(t, []byte{0xA0, 0x12, 0x34, 0xC0}, hw.transport.sent())
	require.Equal(t, 1, hw.sampler.reads)
	require.EqualValues(t, 1, s.Produced())
}

func TestStreamingSampleCount(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for round := 0; round < 20; round++ {
		hw := newFakeHardware()
		s := newTestStreaming(hw)
		s.Start()
		firings, dueCalls, produced := 0, 0, 0
		for i := 0; i < 200; i++ {
			if rnd.Intn(3) == 0 {
				hw.irq.fire()
				firings++
				continue
			}
			if s.SampleDue() {
				dueCalls++
			}
			if s.ProduceSampleIfDue() {
				produced++
			}
		}
		require.Equal(t, dueCalls, produced)
		require.LessOrEqual(t, produced, firings)
		require.Equal(t, produced, hw.sampler.reads)
		require.Len(t, hw.transport.sent(), produced*protocol.SamplePacketSize)
	}
}

func TestStreamingReset(t *testing.T) {
	hw := newFakeHardware()
	s := newTestStreaming(hw)
	s.Output.SetRange(RangeSmall)
	s.Output.SelectWaveform(Wave2)
	s.Start()
	hw.irq.fire()

	s.Reset()
	require.False(t, s.IsStreaming())
	require.False(t, s.SampleDue())
	require.Equal(t, DefaultOutputConfig, s.Output.Config())
	require.Equal(t, RangeLarge, hw.gen.ranges[len(hw.gen.ranges)-1])
	require.Equal(t, Wave1, hw.gen.waves[len(hw.gen.waves)-1])
}
