//go:build tinygo && risky

// riskymon is the monitor firmware of the risky SoC. It lives in ROM and
// boots the image loaded at the start of RAM unless commanded otherwise.
package main

import (
	"github.com/risky-soc/riskymon/pkg/monitor"
	"github.com/risky-soc/riskymon/pkg/platform/risky"
)

func main() {
	conf := monitor.NewConfig()
	conf.BootAddr = uint32(risky.RAMBase)
	conf.ClockFreq = risky.ClockFreq()

	m := conf.NewMonitor(risky.NewUART(), risky.Memory{}, risky.CycleCounter{}, monitor.BootFunc(risky.Jump))
	m.Start()
	for m.Step() {
	}
}
