// Package source provides raw input scanning for the control surface
// with hardware abstraction.
//
// The real implementation reads the digital channels (buttons,
// joystick contacts, toggle switches) through the Linux GPIO character
// device as one bulk line request, and the pots through an MCP3008
// 10-bit ADC on SPI. All digital wiring is pulled-up active-low; the
// inversion to logical values happens here so downstream layers always
// see true = active.
//
// The fake implementation returns scripted frames for tests and for
// running the daemon on machines without the hardware attached.
package source
