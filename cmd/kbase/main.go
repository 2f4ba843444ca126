package main

import (
	"log"

	"github.com/MrSnakeDoc/kbase/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ kbase failed to start: %v", err)
	}
}
