package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"sensex-pulse/internal/cli"
)

// version is stamped by the release build via -ldflags.
var version = "0.1.0"

func main() {
	// Credentials may live in a local .env; a missing file is fine.
	_ = godotenv.Load()

	if err := cli.Execute(version); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
