package main

import (
	"github.com/robotalks/debugport/pkg/cli/sh"
	"github.com/robotalks/debugport/pkg/env"

	_ "github.com/robotalks/debugport/pkg/cli/cmds/console"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
