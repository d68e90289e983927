package main

import (
	"log"

	"github.com/aussiebroadwan/portalgate/internal/gate/app"
)

func main() {
	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize portal gate: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("portal gate error: %v", err)
	}
}
