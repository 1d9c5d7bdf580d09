package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	env "github.com/robotalks/wavedac/pkg/env/device"
	fx "github.com/robotalks/wavedac/pkg/framework"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()

	conf, err := env.LoadConfig()
	if err != nil {
		log.Fatalln(err)
	}
	dev := conf.MustNewEnv()
	defer dev.Close()

	runner := fx.NewRunner().HandleSignals()
	fx.NewLoop().Add(dev).RunOrFail(runner.Context)
}
