package main

import (
	"log"

	"github.com/MrSnakeDoc/varlink/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ varlink failed: %v", err)
	}
}
