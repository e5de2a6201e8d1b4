package main

import (
	"log"

	"github.com/MrSnakeDoc/videostream/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ videostream failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ videostream stopped with error: %v", err)
	}
}
