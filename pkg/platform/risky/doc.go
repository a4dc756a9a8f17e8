// Package risky binds the monitor to the risky SoC: the memory mapped UART
// and info peripherals, the Zicntr cycle counter and the raw address space.
// Everything except this file builds only with tinygo for the risky target.
package risky
