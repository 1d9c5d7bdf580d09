package firmware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/wavedac/pkg/framework"
	"github.com/robotalks/wavedac/pkg/protocol"
)

func TestDeviceStartStop(t *testing.T) {
	hw := newFakeHardware()
	d := NewDevice(hw.Hardware())
	d.Start()
	require.True(t, hw.gen.running)
	require.True(t, hw.sampler.running)
	require.Equal(t, []Range{RangeLarge}, hw.gen.ranges)
	require.Equal(t, []Waveform{Wave1}, hw.gen.waves)

	d.Processor.Handle('b')
	d.Stop()
	require.False(t, d.Streaming.IsStreaming())
	require.False(t, hw.timer.armed)
	require.False(t, hw.gen.running)
	require.False(t, hw.sampler.running)
}

func TestDeviceLoop(t *testing.T) {
	d, hw := newTestDevice()
	l := fx.NewLoop()
	l.Add(d)
	ctx := context.Background()

	// one command byte per iteration.
	hw.transport.receive("vb")
	l.Step(ctx)
	require.Equal(t, protocol.EncodeConnection(), hw.transport.sent())
	require.False(t, d.Streaming.IsStreaming())
	l.Step(ctx)
	require.True(t, d.Streaming.IsStreaming())

	hw.sampler.next = 0xABCD
	hw.irq.fire()
	l.Step(ctx)
	require.Equal(t, []byte{0xA0, 0xAB, 0xCD, 0xC0}, hw.transport.sent())
	l.Step(ctx)
	require.Empty(t, hw.transport.sent())

	// commands run before the sample of the same iteration.
	hw.irq.fire()
	hw.transport.receive("s")
	l.Step(ctx)
	require.Empty(t, hw.transport.sent())
	require.False(t, d.Streaming.IsStreaming())
}
