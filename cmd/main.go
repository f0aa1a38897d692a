package main

import (
	"log"
	"os"

	"trivia-challenge-service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Printf("command failed: %v", err)
		os.Exit(1)
	}
}
