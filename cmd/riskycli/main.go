package main

import (
	"github.com/risky-soc/riskymon/pkg/cli/sh"

	_ "github.com/risky-soc/riskymon/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	sh.SetupFlags()
}

func main() {
	sh.Main()
}
