package cmd

import (
	"fmt"
	"log"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	debugMu     sync.Mutex
	debugFile   *os.File
	debugLogger *log.Logger
)

// InitDebugLogger initializes a shared file-backed logger and Bubble Tea logging.
// If path is empty, it defaults to "debug.log". Safe to call multiple times.
func InitDebugLogger(path string) error {
	debugMu.Lock()
	defer debugMu.Unlock()
	if debugLogger != nil {
		return nil
	}
	if path == "" {
		path = "debug.log"
	}
	f, err := tea.LogToFile(path, "debug")
	if err != nil {
		return err
	}
	debugFile = f
	debugLogger = log.New(f, "", log.LstdFlags)
	return nil
}

// CloseDebugLogger closes the underlying debug log file if it was opened.
func CloseDebugLogger() {
	debugMu.Lock()
	defer debugMu.Unlock()
	if debugFile != nil {
		_ = debugFile.Close()
		debugFile = nil
		debugLogger = nil
	}
}

// ResetDebugLoggerForTesting clears logger state so tests start clean.
func ResetDebugLoggerForTesting() {
	CloseDebugLogger()
}

func logDebug(msg string) {
	if !debug && len(os.Getenv("DEBUG")) == 0 {
		return
	}
	if debugLogger == nil {
		if err := InitDebugLogger("debug.log"); err != nil {
			fmt.Fprintln(os.Stderr, "failed to initialize debug logger:", err)
		}
	}
	debugMu.Lock()
	defer debugMu.Unlock()
	if debugLogger != nil {
		debugLogger.Println(msg)
	}
}
