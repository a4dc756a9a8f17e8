// Package monitor implements the serial debug monitor of the risky SoC.
package monitor

// The monitor is the recovery and bring-up tool of the platform: with nothing
// else running, it is the only way to load or inspect code. It accumulates
// lines from a character transport, parses a compact text command grammar and
// dispatches into memory inspection, patch and boot operations. If no command
// succeeds before the autoboot deadline, it boots the resident image.
//
// Grammar (one command per line, CR or LF terminated):
//
//	<code> [ws]<hex>[ws][<hex>[ws][<hex>]]
//
// Responses are "<code> <hex>\r\n". Unknown or malformed commands are
// silently ignored.
//
// Hardware is reached only through Transport, Counter, AddressSpace and
// Booter, so the same engine runs on the SoC and in the host simulator.
