package sim

import (
	"math"
	"sync/atomic"

	"github.com/robotalks/wavedac/pkg/protocol"
)

// VoltSource provides an analog voltage.
type VoltSource interface {
	Volts() float64
}

// ADC converts a voltage into a 16-bit raw value.
type ADC struct {
	Source    VoltSource
	FullScale float64

	running atomic.Bool
}

// NewADC creates an ADC sampling src.
func NewADC(src VoltSource) *ADC {
	return &ADC{Source: src, FullScale: protocol.FullScaleVolts}
}

// Start implements firmware.Peripheral.
func (a *ADC) Start() { a.running.Store(true) }

// Stop implements firmware.Peripheral.
func (a *ADC) Stop() { a.running.Store(false) }

// ReadRaw implements firmware.Sampler. A stopped ADC reads 0.
func (a *ADC) ReadRaw() uint32 {
	if !a.running.Load() || a.Source == nil {
		return 0
	}
	v := math.Max(0, math.Min(a.Source.Volts(), a.FullScale))
	return uint32(math.Round(v / a.FullScale * math.MaxUint16))
}
