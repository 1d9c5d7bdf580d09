package sim

import "github.com/robotalks/wavedac/pkg/firmware"

// DefaultSampleRate is the sampling timer rate in Hz.
const DefaultSampleRate = 100.0

// Board is the simulated wavedac board.
type Board struct {
	DAC       *WaveDAC
	ADC       *ADC
	Timer     *Timer
	Interrupt *Interrupt
}

// NewBoard creates a Board sampling at sampleRate and generating
// waveFreq.
func NewBoard(sampleRate, waveFreq float64) *Board {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	b := &Board{DAC: NewWaveDAC(waveFreq), Interrupt: &Interrupt{}}
	b.ADC = NewADC(b.DAC)
	b.Timer = NewTimer(sampleRate, b.Interrupt)
	return b
}

// Hardware returns the firmware collaborators with transport t.
func (b *Board) Hardware(t firmware.Transport) firmware.Hardware {
	return firmware.Hardware{
		Transport: t,
		Generator: b.DAC,
		Sampler:   b.ADC,
		Timer:     b.Timer,
		Interrupt: b.Interrupt,
	}
}
