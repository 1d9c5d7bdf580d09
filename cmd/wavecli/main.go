package main

import (
	"github.com/robotalks/wavedac/pkg/cli/sh"
	env "github.com/robotalks/wavedac/pkg/env/host"

	_ "github.com/robotalks/wavedac/pkg/cli/cmds/wave"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
