package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"

	"github.com/robotalks/wavedac/pkg/bridge"
	"github.com/robotalks/wavedac/pkg/bridge/mqtt"
	"github.com/robotalks/wavedac/pkg/bridge/websocket"
	env "github.com/robotalks/wavedac/pkg/env/host"
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

	q, err := mqtt.NewQueueFromURL(conf.MQTTURL,
		mqtt.WithClientID("wavedac-"+conf.DeviceID),
		mqtt.WithWill(conf.DeviceID+"/"+bridge.TopicStatus, bridge.StatusOffline))
	if err != nil {
		log.Fatalln(err)
	}
	if err := q.Connect(); err != nil {
		log.Fatalln(err)
	}
	defer q.Close()

	conn, err := conf.Dial(context.Background())
	if err != nil {
		log.Fatalln(err)
	}
	defer conn.Close()
	log.Printf("bridging %s as %s", conn.Port, conf.DeviceID)

	b := bridge.New(conf.DeviceID, conn.Client, q)
	b.Feed = websocket.NewFeed()
	b.Metrics = bridge.NewMetrics(conn.Client.Link().Stats)
	if err := conn.Client.StartStreaming(); err != nil {
		log.Fatalln(err)
	}

	runner := fx.NewRunner().HandleSignals()
	ctx, cancel := context.WithCancel(runner.Context)
	defer cancel()
	go func() {
		// the bridge is useless once the device link is gone.
		<-conn.Done()
		cancel()
	}()
	loop := fx.NewLoop().Add(b)
	loop.AddRunnable(&bridge.Server{Addr: conf.HTTPAddr, Handler: b.Handler()})
	loop.RunOrFail(ctx)
}
