package main

import (
	"fmt"
	"os"

	"github.com/bookwell/host-qualifier-api/pkg/auth"
	"github.com/bookwell/host-qualifier-api/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: could not load configuration: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/keygen <userID>")
		os.Exit(1)
	}

	if cfg.APIMasterSecret == "" {
		fmt.Println("Error: API_MASTER_SECRET not found in .env")
		os.Exit(1)
	}

	userID := os.Args[1]
	apiKey := auth.New(cfg).GenerateHMACKey(userID)
	fmt.Printf("Generated Key for %s:\n%s\n", userID, apiKey)
}
