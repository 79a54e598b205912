package watch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Daemon bookkeeping for a running "countboard serve": a PID file and a small
// run-info JSON file that "countboard status" reads.

const (
	pidFile     = ".countboard.pid"
	runInfoFile = "run.json"
)

// RunInfo describes a running dashboard process.
type RunInfo struct {
	Workbook  string    `json:"workbook"`
	Listen    string    `json:"listen"`
	Interval  string    `json:"interval"`
	Watching  bool      `json:"watching"`
	StartedAt time.Time `json:"startedAt"`
}

// WritePIDFile writes the current process ID to the PID file in the given directory.
func WritePIDFile(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(dir, pidFile)
	return os.WriteFile(path, []byte(fmt.Sprintf("%d", os.Getpid())), 0644)
}

// ReadPIDFile reads the PID from the PID file.
func ReadPIDFile(dir string) (int, error) {
	path := filepath.Join(dir, pidFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return 0, fmt.Errorf("invalid PID file: %w", err)
	}
	return pid, nil
}

// RemovePIDFile removes the PID file.
func RemovePIDFile(dir string) error {
	return os.Remove(filepath.Join(dir, pidFile))
}

// SaveRunInfo writes the run info to a JSON file.
func SaveRunInfo(dir string, info RunInfo) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, runInfoFile), data, 0644)
}

// LoadRunInfo reads the run info from a JSON file.
func LoadRunInfo(dir string) (*RunInfo, error) {
	data, err := os.ReadFile(filepath.Join(dir, runInfoFile))
	if err != nil {
		return nil, err
	}
	var info RunInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("invalid run info: %w", err)
	}
	return &info, nil
}

// DefaultStateDir returns the directory holding the PID and run-info files.
func DefaultStateDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".countboard")
}
