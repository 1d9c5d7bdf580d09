// Package firmware implements the wavedac device core.
//
// A Device samples an analog input and streams the readings over a serial
// transport while single command bytes reconfigure the output waveform
// generator. Three execution contexts meet here:
//
//   - the sampling timer interrupt, which only marks a sample as due;
//   - the dispatch loop, which polls the transport for one command byte
//     and then produces a due sample, once per iteration;
//   - the command processor, run synchronously from the dispatch loop.
//
// The due flag is the only state shared with interrupt context and is an
// atomic boolean. Everything else is owned by the dispatch loop.
package firmware
