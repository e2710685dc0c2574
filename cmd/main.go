package main

import (
	"fmt"
	"os"

	"github.com/yungbote/pawquest-backend/internal/app"
	"github.com/yungbote/pawquest-backend/internal/platform/envutil"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	a.Start()

	port := envutil.Str("PORT", "8080")
	a.Log.Info("server listening", "port", port)
	if err := a.Run(":" + port); err != nil {
		a.Log.Error("server failed", "error", err)
	}
}
