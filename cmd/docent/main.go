package main

import (
	"fmt"
	"os"

	"github.com/soyeahso/docent/internal/cli"
	"github.com/tillberg/autorestart"
)

func main() {
	if os.Getenv("DOCENT_AUTORESTART") == "1" {
		go autorestart.RestartOnChange()
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
