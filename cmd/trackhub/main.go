// FilePath: cmd/trackhub/main.go
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tm "github.com/buger/goterm"
	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/trackhub/internal/config"
	"github.com/itsatony/trackhub/internal/server"
)

func main() {
	configPath := flag.String("c", "", "path to config file")
	flag.Parse()

	// Clear console and draw logo
	ClearConsole()
	DrawLogo()
	// Initialize version info
	nuts.InitVersion()
	nuts.L.Infof("[Main] Starting TrackHub Server v%s", nuts.GetVersion())

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create and start server
	srv := server.New(cfg)
	if err := srv.Start(); err != nil {
		nuts.L.Errorf("[Main] Server error: %v", err)
		os.Exit(1)
	}
}

// ClearConsole clears the console screen and draws the logo.
func ClearConsole() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()
}

func DrawLogo() {
	fmt.Println()
	lines := []string{
		"  ______                __   __  __      __  ",
		" /_  __/________ ______/ /__/ / / /_  __/ /_ ",
		"  / / / ___/ __ `/ ___/ //_/ /_/ / / / / __ \\",
		" / / / /  / /_/ / /__/ ,< / __  / /_/ / /_/ /",
		"/_/ /_/   \\__,_/\\___/_/|_/_/ /_/\\__,_/_.___/ ",
		"...........................................  " + nuts.GetVersion(),
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
