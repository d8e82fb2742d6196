// FilePath: cmd/main.go
package main

import (
	"fmt"
	"os"

	tm "github.com/buger/goterm"
	nuts "github.com/vaudience/go-nuts"
)

func main() {
	// Initialize version info
	nuts.InitVersion()

	if err := rootCommand().Execute(); err != nil {
		nuts.L.Errorf("[Main] %v", err)
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
		"    ____        __          _       __      __       __  ",
		"   / __ \\____  / /_  ____  | |     / /___ _/ /______/ /_ ",
		"  / /_/ / __ \\/ __ \\/ __ \\ | | /| / / __ `/ __/ ___/ __ \\",
		" / _, _/ /_/ / /_/ / /_/ / | |/ |/ / /_/ / /_/ /__/ / / /",
		"/_/ |_|\\____/_.___/\\____/  |__/|__/\\__,_/\\__/\\___/_/ /_/ ",
		"..........................................  " + nuts.GetVersion(),
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
