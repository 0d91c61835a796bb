package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"fundchat-cli/cmd/config"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// watchConfig watches dir for edits to a supported config file and pushes a
// configChangedMsg with the re-resolved server configuration onto ch. Editors
// often fire several events per save, so changes are debounced.
func watchConfig(dir string, ch chan<- tea.Msg) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		var lastEmit time.Time
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if !isSupportedConfigFile(filepath.Base(event.Name)) {
					continue
				}
				if time.Since(lastEmit) < 500*time.Millisecond {
					continue
				}
				cfg, err := config.GetServerConfig(dir, serverURL)
				if err != nil {
					logDebug(fmt.Sprintf("config reload failed: %v", err))
					continue
				}
				lastEmit = time.Now()
				logDebug(fmt.Sprintf("config change detected: %s", event.Name))
				select {
				case ch <- configChangedMsg{cfg: *cfg, file: filepath.Base(event.Name)}:
				default:
					// The UI is behind; drop rather than block the watcher.
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logDebug(fmt.Sprintf("config watcher error: %v", err))
			}
		}
	}()

	return watcher, nil
}

func isSupportedConfigFile(name string) bool {
	for _, supported := range config.SupportedConfigFiles {
		if name == supported {
			return true
		}
	}
	return false
}
