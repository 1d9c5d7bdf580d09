// Package sim simulates the analog front end and sampling timer of the
// wavedac board. The waveform DAC output is looped back to the ADC input,
// as wired on the board.
package sim
