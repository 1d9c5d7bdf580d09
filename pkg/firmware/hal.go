package firmware

// Peripheral is a hardware block that must be started before use.
type Peripheral interface {
	Start()
	Stop()
}

// Sampler reads the analog input.
type Sampler interface {
	// ReadRaw performs one conversion. Only the lower 16 bits are meaningful.
	ReadRaw() uint32
}

// OutputGenerator is the waveform DAC driving the output.
type OutputGenerator interface {
	SetRange(Range)
	SelectWaveform(Waveform)
}

// Timer is the periodic sampling timer.
type Timer interface {
	Start()
	Stop()
	// ReadStatus reads and clears the status register. It must be called
	// from the interrupt handler on every invocation.
	ReadStatus() byte
}

// Interrupt is the interrupt line raised by the sampling timer.
type Interrupt interface {
	// StartEx binds handler and enables the interrupt.
	StartEx(handler func())
	// Stop disables the interrupt. No handler runs after Stop returns.
	Stop()
}

// Transport is the byte-oriented serial channel to the host.
type Transport interface {
	// Available returns the number of received bytes ready to read.
	Available() int
	ReadByte() (byte, error)
	Write([]byte) (int, error)
}

// Waker is implemented by collaborators which can signal pending work,
// e.g. a transport notifying received bytes.
type Waker interface {
	SetWaker(func())
}
