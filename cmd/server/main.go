package main

import (
	"os"
)

// This is our main function - the entry point of our application
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
