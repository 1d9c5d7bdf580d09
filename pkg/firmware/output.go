package firmware

import "fmt"

// Range is the output voltage range, encoded as the DAC expects it.
type Range byte

// Ranges.
const (
	// RangeSmall is the 1V range.
	RangeSmall Range = 0x00
	// RangeLarge is the 4V range.
	RangeLarge Range = 0x04
)

// IsValid checks r is one of the defined ranges.
func (r Range) IsValid() bool {
	return r == RangeSmall || r == RangeLarge
}

// String implements fmt.Stringer.
func (r Range) String() string {
	switch r {
	case RangeSmall:
		return "small"
	case RangeLarge:
		return "large"
	}
	return fmt.Sprintf("range(0x%02x)", byte(r))
}

// Waveform selects the generated waveform.
type Waveform byte

// Waveforms.
const (
	Wave1 Waveform = 0
	Wave2 Waveform = 1
)

// IsValid checks w is one of the defined waveforms.
func (w Waveform) IsValid() bool {
	return w == Wave1 || w == Wave2
}

// String implements fmt.Stringer.
func (w Waveform) String() string {
	switch w {
	case Wave1:
		return "wave1"
	case Wave2:
		return "wave2"
	}
	return fmt.Sprintf("wave(0x%02x)", byte(w))
}

// OutputConfig is the configuration of the output generator.
type OutputConfig struct {
	Range    Range
	Waveform Waveform
}

// DefaultOutputConfig is restored on reset.
var DefaultOutputConfig = OutputConfig{Range: RangeLarge, Waveform: Wave1}

// Output owns OutputConfig and mirrors every accepted change into the
// generator immediately.
type Output struct {
	Generator OutputGenerator

	config OutputConfig
}

// NewOutput creates an Output. The generator is not written until the
// first change or Reset.
func NewOutput(gen OutputGenerator) *Output {
	return &Output{Generator: gen, config: DefaultOutputConfig}
}

// Config returns the current configuration.
func (o *Output) Config() OutputConfig {
	return o.config
}

// SetRange writes r to the generator. Values outside the defined ranges
// are ignored without touching the hardware.
func (o *Output) SetRange(r Range) bool {
	if !r.IsValid() {
		return false
	}
	o.Generator.SetRange(r)
	o.config.Range = r
	return true
}

// SelectWaveform writes w to the generator. Values outside the defined
// waveforms are ignored without touching the hardware.
func (o *Output) SelectWaveform(w Waveform) bool {
	if !w.IsValid() {
		return false
	}
	o.Generator.SelectWaveform(w)
	o.config.Waveform = w
	return true
}

// Reset restores DefaultOutputConfig.
func (o *Output) Reset() {
	o.SetRange(DefaultOutputConfig.Range)
	o.SelectWaveform(DefaultOutputConfig.Waveform)
}
