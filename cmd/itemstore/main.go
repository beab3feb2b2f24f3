package main

import (
	"log"

	"github.com/patric-chuzhbe/itemstore/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		log.Fatalf("failed to initialize the application: %v", err)
	}
	defer application.Close()

	if err := application.Run(); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}
