package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/avorobjovs/tunepin/internal/admin"
	"github.com/avorobjovs/tunepin/internal/server/config"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: admin seed | admin useradd <email>")
	os.Exit(2)
}

func main() {

	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
	}

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := admin.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	switch os.Args[1] {
	case "seed":
		err = app.Seed(ctx)
	case "useradd":
		if len(os.Args) < 3 {
			usage()
		}
		err = app.UserAdd(ctx, os.Args[2])
	default:
		usage()
	}

	if err != nil {
		log.Fatalf("%v", err)
	}
}
