package main

import (
	"fmt"
	"os"

	"github.com/hdt3213/gkvs/config"
	"github.com/hdt3213/gkvs/lib/logger"
	RedisServer "github.com/hdt3213/gkvs/redis/server"
	"github.com/hdt3213/gkvs/tcp"
)

const banner = `
   ____ _  ___     _______
  / ___| |/ / |   / / ____|
 | |  _| ' /| |  / /|  _|
 | |_| | . \| |./ / | |___
  \____|_|\_\___/  |______|
`

func main() {
	fmt.Print(banner)
	configFilename := os.Getenv("CONFIG")
	config.Setup(configFilename)
	logger.Setup(&logger.Settings{
		Path: "logs",
		Name: "gkvs",
		Ext:  "log",
	})

	err := tcp.ListenAndServeWithSignal(&tcp.Config{
		Address: config.Properties.ListenAddr,
	}, RedisServer.MakeHandler())
	if err != nil {
		logger.Error(err)
	}
}
