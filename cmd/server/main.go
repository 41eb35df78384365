package main

import (
	"fmt"
	"log"
	"os"

	"picturebridge/internal/app"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] == "" {
		fmt.Fprintf(os.Stderr, "usage: %s SERIAL_PORT\n", os.Args[0])
		os.Exit(1)
	}

	application, err := app.NewApp(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
