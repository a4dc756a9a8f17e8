// Package link opens byte streams to a monitor, or serves them from a
// simulated board, selected by URL:
//
//	serial:///dev/ttyUSB0?baud=115200   (or a bare device path)
//	tcp://host:port
//	ws://host:port/path
//	mqtt://broker:1883/prefix/?device=ID
//	pty:
//	stdio:
package link
