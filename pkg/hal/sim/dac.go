package sim

import (
	"math"
	"sync"
	"time"

	"github.com/robotalks/wavedac/pkg/firmware"
)

// DefaultWaveFrequency is the frequency of the generated waveform in Hz.
const DefaultWaveFrequency = 1.0

// DACLevels is the resolution of the waveform DAC.
const DACLevels = 256

// RangeVolts returns the full scale of an output range.
func RangeVolts(r firmware.Range) float64 {
	if r == firmware.RangeSmall {
		return 1
	}
	return 4
}

// WaveDAC is a waveform DAC producing a sine (Wave1) or a triangle (Wave2)
// between 0 and the full scale of the selected range.
type WaveDAC struct {
	Frequency float64
	Now       func() time.Time

	lock     sync.RWMutex
	running  bool
	start    time.Time
	rng      firmware.Range
	waveform firmware.Waveform
}

// NewWaveDAC creates a WaveDAC.
func NewWaveDAC(freq float64) *WaveDAC {
	if freq <= 0 {
		freq = DefaultWaveFrequency
	}
	return &WaveDAC{Frequency: freq, Now: time.Now, rng: firmware.RangeLarge}
}

// Start implements firmware.Peripheral.
func (d *WaveDAC) Start() {
	d.lock.Lock()
	d.running = true
	d.start = d.Now()
	d.lock.Unlock()
}

// Stop implements firmware.Peripheral.
func (d *WaveDAC) Stop() {
	d.lock.Lock()
	d.running = false
	d.lock.Unlock()
}

// SetRange implements firmware.OutputGenerator.
func (d *WaveDAC) SetRange(r firmware.Range) {
	d.lock.Lock()
	d.rng = r
	d.lock.Unlock()
}

// SelectWaveform implements firmware.OutputGenerator.
func (d *WaveDAC) SelectWaveform(w firmware.Waveform) {
	d.lock.Lock()
	d.waveform = w
	d.lock.Unlock()
}

// Config returns the current output configuration.
func (d *WaveDAC) Config() firmware.OutputConfig {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return firmware.OutputConfig{Range: d.rng, Waveform: d.waveform}
}

// Volts returns the current output voltage. A stopped DAC outputs 0.
func (d *WaveDAC) Volts() float64 {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if !d.running {
		return 0
	}
	elapsed := d.Now().Sub(d.start).Seconds()
	_, phase := math.Modf(elapsed * d.Frequency)
	var level float64
	switch d.waveform {
	case firmware.Wave2:
		if phase < 0.5 {
			level = 2 * phase
		} else {
			level = 2 - 2*phase
		}
	default:
		level = (1 + math.Sin(2*math.Pi*phase)) / 2
	}
	code := math.Round(level * (DACLevels - 1))
	return code / (DACLevels - 1) * RangeVolts(d.rng)
}
