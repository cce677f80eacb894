package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/debugport/pkg/board"
	"github.com/robotalks/debugport/pkg/console"
	"github.com/robotalks/debugport/pkg/env"
	fx "github.com/robotalks/debugport/pkg/framework"
	"github.com/robotalks/debugport/pkg/link"
	"github.com/robotalks/debugport/pkg/uart"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.Default()
	if err := conf.Validate(); err != nil {
		glog.Exit(err)
	}

	runner := fx.NewRunner().HandleSignals()
	ctx, cancel := context.WithCancel(runner.Context)
	defer cancel()

	linkURL := link.WithDevice(conf.Link, conf.DeviceID)
	engine := uart.NewStreamEngine(link.Opener(linkURL, link.WithInterrupt(cancel)))
	engine.RetryDelay = conf.RetryDelay
	port, err := uart.New(engine, conf.UARTOptions())
	if err != nil {
		glog.Exit(err)
	}
	if err := port.Enable(); err != nil {
		glog.Exitf("enable %s: %v", linkURL, err)
	}

	err = run(ctx, runner, conf, port)
	if derr := port.Disable(); derr != nil {
		glog.Warningf("disable %s: %v", linkURL, derr)
	}
	if err != nil {
		glog.Exitf("debugportd: %v", err)
	}
}

func run(ctx context.Context, runner *fx.Runner, conf *env.Config, port *uart.UART) error {
	reg := console.NewRegistry(conf.ConsoleLimits())
	brd := board.New(conf.DeviceID)
	if err := brd.Register(reg); err != nil {
		return fx.Abort(err)
	}

	con := console.New(reg, port, port)
	con.Prompt = conf.Prompt
	if conf.Banner {
		board.Banner(port)
	}
	if err := con.Start(); err != nil {
		return err
	}
	glog.Infof("console %s ready with %d commands", conf.DeviceID, reg.Len())

	loop := fx.NewLoop()
	loop.Interval = conf.PollInterval
	loop.Add(con, brd)
	return runner.GoWith(ctx, fx.NamedRun("console", loop)).Wait()
}
