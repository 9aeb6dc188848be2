package main

import (
	"geo-alert-engine/internal/app"
	"geo-alert-engine/internal/config"
)

func main() {
	cfg := config.Load()
	config.SetupLogging(cfg.Server.LogLevel)
	app.Run(cfg)
}
