package main

import (
	"log"

	"github.com/thiagokokada/gitport/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("gitport: %v", err)
	}
}
