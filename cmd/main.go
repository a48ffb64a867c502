package main

import (
	"fmt"
	"os"

	"github.com/rotabull/supportsync/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Start(); err != nil {
		a.Log.Fatal("Failed to start scheduler", "error", err)
	}

	addr := ":" + a.Cfg.Port
	a.Log.Info("Server starting", "addr", addr)
	if err := a.Run(addr); err != nil {
		a.Log.Fatal("Server exited", "error", err)
	}
}
