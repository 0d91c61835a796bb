package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestWatchConfigEmitsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fundchat.yaml")
	if err := os.WriteFile(path, []byte("server_url: http://localhost:8022\n"), 0644); err != nil {
		t.Fatalf("failed to seed config: %v", err)
	}

	ch := make(chan tea.Msg, 4)
	watcher, err := watchConfig(dir, ch)
	if err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer watcher.Close()

	if err := os.WriteFile(path, []byte("server_url: http://localhost:9999\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case msg := <-ch:
		changed, ok := msg.(configChangedMsg)
		if !ok {
			t.Fatalf("expected configChangedMsg, got %T", msg)
		}
		if changed.cfg.URL != "http://localhost:9999" {
			t.Fatalf("expected reloaded URL, got %q", changed.cfg.URL)
		}
		if changed.file != "fundchat.yaml" {
			t.Fatalf("expected file name, got %q", changed.file)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for config change event")
	}
}

func TestWatchConfigIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	ch := make(chan tea.Msg, 4)
	watcher, err := watchConfig(dir, ch)
	if err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer watcher.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	select {
	case msg := <-ch:
		t.Fatalf("expected no event for unrelated file, got %T", msg)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestIsSupportedConfigFile(t *testing.T) {
	for _, name := range []string{"fundchat.yaml", "fundchat.yml", "fundchat.toml", "fundchat.json"} {
		if !isSupportedConfigFile(name) {
			t.Errorf("expected %s to be supported", name)
		}
	}
	if isSupportedConfigFile("other.yaml") {
		t.Errorf("expected other.yaml to be unsupported")
	}
}
