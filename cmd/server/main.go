package main

import (
	"log"

	"github.com/campushub/backend-go/app/bootstrap"
)

func main() {
	app, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("failed to bootstrap application: %v", err)
	}
	defer app.Shutdown()

	app.RunServer()
}
