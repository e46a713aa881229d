package main

import (
	"log/slog"
	"os"

	"test12/cmd"
)

func main() {
	if err := cmd.Start(); err != nil {
		slog.Error("test12 exited", "error", err)
		os.Exit(1)
	}
}
