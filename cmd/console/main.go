package main

import (
	stdLog "log"

	"github.com/joho/godotenv"

	"github.com/vmarchetti/library-console/app"
	"github.com/vmarchetti/library-console/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdLog.Println(".env not found")
	}
	cfg := config.NewConfig()

	app.Run(cfg)
}
