package main

import (
	"log"

	"github.com/MrSnakeDoc/sidemark/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ sidemark failed to start: %v", err)
	}
}
