package main

import (
	"github.com/orgmesh/backend/internal/server"
	"github.com/orgmesh/backend/internal/util"
	"github.com/orgmesh/backend/pkg/logger"
	"github.com/orgmesh/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
