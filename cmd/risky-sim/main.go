package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/golang/glog"

	fx "github.com/risky-soc/riskymon/pkg/framework"
	"github.com/risky-soc/riskymon/pkg/monitor"
	"github.com/risky-soc/riskymon/pkg/monitor/flags"
	"github.com/risky-soc/riskymon/pkg/sim"
)

func init() {
	flags.SetupFlags()
	sim.SetupFlags()
}

func main() {
	flag.Parse()

	board, err := sim.NewConfig().NewBoard(monitor.NewConfig())
	if err != nil {
		log.Fatalln(err)
	}
	defer board.Close()
	glog.Infof("%s listening on %s", board.Name(), board.Listener.Addr())

	err = fx.NewRunner().
		HandleSignals().
		Go(board).
		Wait()
	if err != nil {
		log.Fatalln(err)
	}
}
