package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/avorobjovs/tunepin/internal/server"
	"github.com/avorobjovs/tunepin/internal/server/config"
)

func main() {

	// a missing .env file is fine, env vars and flags still apply
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
