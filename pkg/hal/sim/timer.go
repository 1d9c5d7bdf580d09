package sim

import (
	"sync"
	"time"
)

// StatusTC is the terminal count bit of the timer status register.
const StatusTC byte = 0x01

// Interrupt is an interrupt line. Handler invocations are serialized with
// StartEx and Stop: once Stop returns, the handler is not running and
// will not run again until rebound.
type Interrupt struct {
	lock    sync.Mutex
	handler func()
}

// StartEx implements firmware.Interrupt.
func (i *Interrupt) StartEx(handler func()) {
	i.lock.Lock()
	i.handler = handler
	i.lock.Unlock()
}

// Stop implements firmware.Interrupt.
func (i *Interrupt) Stop() {
	i.lock.Lock()
	i.handler = nil
	i.lock.Unlock()
}

// Raise runs the bound handler, if any.
func (i *Interrupt) Raise() {
	i.lock.Lock()
	defer i.lock.Unlock()
	if i.handler != nil {
		i.handler()
	}
}

// Timer is a periodic timer raising an interrupt on every terminal count.
type Timer struct {
	Period time.Duration
	IRQ    *Interrupt

	lock   sync.Mutex
	status byte
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewTimer creates a Timer firing rate times per second.
func NewTimer(rate float64, irq *Interrupt) *Timer {
	return &Timer{Period: time.Duration(float64(time.Second) / rate), IRQ: irq}
}

// Start implements firmware.Timer. Starting a running timer is a no-op.
func (t *Timer) Start() {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.stopCh != nil {
		return
	}
	t.stopCh, t.doneCh = make(chan struct{}), make(chan struct{})
	go t.run(t.Period, t.stopCh, t.doneCh)
}

// Stop implements firmware.Timer. It returns after the last tick is
// delivered.
func (t *Timer) Stop() {
	t.lock.Lock()
	stopCh, doneCh := t.stopCh, t.doneCh
	t.stopCh, t.doneCh = nil, nil
	t.lock.Unlock()
	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}
}

// ReadStatus implements firmware.Timer. Reading clears the status.
func (t *Timer) ReadStatus() byte {
	t.lock.Lock()
	defer t.lock.Unlock()
	status := t.status
	t.status = 0
	return status
}

// Tick sets the terminal count and raises the interrupt.
func (t *Timer) Tick() {
	t.lock.Lock()
	t.status |= StatusTC
	t.lock.Unlock()
	if t.IRQ != nil {
		t.IRQ.Raise()
	}
}

func (t *Timer) run(period time.Duration, stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			t.Tick()
		}
	}
}
