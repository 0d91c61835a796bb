package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	yaml "gopkg.in/yaml.v2"
)

// SessionContext represents the structure of the session context file.
type SessionContext struct {
	SessionID string `yaml:"session_id"`
	Timestamp string `yaml:"timestamp"`
}

// newSessionID generates a fresh client-side session identifier.
func newSessionID() string {
	return uuid.New().String()
}

func sessionFilePath() (string, error) {
	dataDir, err := getDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "context", "context.yaml"), nil
}

// readSessionContext reads the persisted session context if one exists.
// A missing file or an empty session id yields (nil, nil).
func readSessionContext() (*SessionContext, error) {
	path, err := sessionFilePath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session context file: %w", err)
	}

	var ctx SessionContext
	if err := yaml.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("failed to parse session context YAML: %w", err)
	}

	if ctx.SessionID == "" {
		return nil, nil
	}

	return &ctx, nil
}

// writeSessionContext persists the current session ID so a later run can
// resume the same backend conversation.
func writeSessionContext(sessionID string) error {
	if sessionID == "" {
		return nil
	}

	path, err := sessionFilePath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create context directory: %w", err)
	}

	contextData := map[string]interface{}{
		"session_id": sessionID,
		"timestamp":  time.Now().Format(time.RFC3339),
	}

	yamlData, err := yaml.Marshal(contextData)
	if err != nil {
		return fmt.Errorf("failed to marshal context data to YAML: %w", err)
	}

	if err := os.WriteFile(path, yamlData, 0644); err != nil {
		return fmt.Errorf("failed to write context file: %w", err)
	}

	return nil
}
