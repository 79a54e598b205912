package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/klytics/countboard/internal/formats/xlsx"
	"github.com/klytics/countboard/internal/groups"
)

// ConfigIssue represents a validation finding.
type ConfigIssue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix"`
}

// Wizard runs the interactive setup wizard.
// If reader is nil, reads from os.Stdin.
func Wizard(reader io.Reader) error {
	if reader == nil {
		reader = os.Stdin
	}
	scanner := bufio.NewScanner(reader)

	fmt.Println("countboard setup")
	fmt.Println()

	fmt.Print("  Workbook path or URL: ")
	scanner.Scan()
	if wb := strings.TrimSpace(scanner.Text()); wb != "" {
		viper.Set("workbook", wb)
	}

	fmt.Printf("  Listen address (default %s): ", DefaultListen)
	scanner.Scan()
	if addr := strings.TrimSpace(scanner.Text()); addr != "" {
		viper.Set("listen", addr)
	} else {
		viper.Set("listen", DefaultListen)
	}

	fmt.Printf("  Poll interval (default %s): ", DefaultInterval)
	scanner.Scan()
	if iv := strings.TrimSpace(scanner.Text()); iv != "" {
		if _, err := time.ParseDuration(iv); err != nil {
			return fmt.Errorf("invalid interval %q: %w", iv, err)
		}
		viper.Set("interval", iv)
	} else {
		viper.Set("interval", DefaultInterval.String())
	}

	if err := SaveConfig(); err != nil {
		return err
	}
	fmt.Printf("\n  Saved %s\n", ConfigPath())
	return nil
}

// WizardNonInteractive sets up config with defaults only (no user input).
func WizardNonInteractive() error {
	viper.Set("listen", DefaultListen)
	viper.Set("interval", DefaultInterval.String())
	viper.Set("columns", DefaultColumns)
	return SaveConfig()
}

// Validate checks config values and returns a list of issues.
func Validate() []ConfigIssue {
	var issues []ConfigIssue

	workbook := viper.GetString("workbook")
	switch {
	case workbook == "":
		issues = append(issues, ConfigIssue{
			Key:      "workbook",
			Severity: "error",
			Message:  "workbook location is not set",
			Fix:      "export COUNTBOARD_WORKBOOK=/path/to/report.xlsx\nOr: countboard config set workbook /path/to/report.xlsx",
		})
	case xlsx.IsURL(workbook):
		issues = append(issues, ConfigIssue{
			Key:      "workbook",
			Severity: "info",
			Message:  fmt.Sprintf("workbook is fetched from %s", workbook),
		})
		if viper.GetBool("watch") {
			issues = append(issues, ConfigIssue{
				Key:      "watch",
				Severity: "warning",
				Message:  "watch is enabled but the workbook is a URL; only local files can be watched",
				Fix:      "countboard config set watch false",
			})
		}
	default:
		if _, err := os.Stat(workbook); err != nil {
			issues = append(issues, ConfigIssue{
				Key:      "workbook",
				Severity: "error",
				Message:  fmt.Sprintf("workbook %s is not readable: %v", workbook, err),
				Fix:      "check that the path is correct",
			})
		} else {
			issues = append(issues, ConfigIssue{
				Key:      "workbook",
				Severity: "info",
				Message:  fmt.Sprintf("workbook %s found", workbook),
			})
		}
	}

	if d := viper.GetDuration("interval"); d <= 0 {
		issues = append(issues, ConfigIssue{
			Key:      "interval",
			Severity: "error",
			Message:  fmt.Sprintf("interval must be positive, got %q", viper.GetString("interval")),
			Fix:      "countboard config set interval 10s",
		})
	}

	if d := viper.GetDuration("history_window"); d <= 0 {
		issues = append(issues, ConfigIssue{
			Key:      "history_window",
			Severity: "warning",
			Message:  fmt.Sprintf("history_window %q is not positive, using %s", viper.GetString("history_window"), DefaultHistoryWindow),
		})
	}

	if c := viper.GetInt("columns"); c <= 0 {
		issues = append(issues, ConfigIssue{
			Key:      "columns",
			Severity: "warning",
			Message:  fmt.Sprintf("columns must be positive, got %d, using %d", c, DefaultColumns),
		})
	}

	if path := viper.GetString("layout"); path != "" {
		if _, err := groups.LoadLayout(path); err != nil {
			issues = append(issues, ConfigIssue{
				Key:      "layout",
				Severity: "error",
				Message:  err.Error(),
				Fix:      "fix the layout file or unset layout to use the built-in report layout",
			})
		}
	}

	return issues
}

// HasErrors reports whether any issue has severity "error".
func HasErrors(issues []ConfigIssue) bool {
	for _, issue := range issues {
		if issue.Severity == "error" {
			return true
		}
	}
	return false
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{"workbook", "sheet", "interval", "history_window", "listen", "title", "columns", "layout", "watch", "debounce_ms"}

// ToEnv returns all config values as a map of env var name -> value.
func ToEnv() map[string]string {
	env := make(map[string]string)

	for _, key := range Keys {
		if v := viper.GetString(key); v != "" {
			env["COUNTBOARD_"+strings.ToUpper(key)] = v
		}
	}

	return env
}

// Set checks and sets a config value and saves to disk.
func Set(key, value string) error {
	if !slices.Contains(Keys, key) {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys, ", "))
	}

	var typed any = value
	switch key {
	case "interval", "history_window":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%s must be a positive duration such as 10s, got %q", key, value)
		}
		typed = d.String()
	case "columns", "debounce_ms":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive integer, got %q", key, value)
		}
		typed = n
	case "watch":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("watch must be true or false, got %q", value)
		}
		typed = b
	}

	viper.Set(key, typed)
	return SaveConfig()
}

// Get retrieves a config value.
func Get(key string) string {
	return viper.GetString(key)
}

// ResetConfig resets all config to defaults.
func ResetConfig() error {
	path := ConfigPath()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete config: %w", err)
	}
	viper.Set("workbook", "")
	viper.Set("interval", DefaultInterval.String())
	viper.Set("listen", DefaultListen)
	viper.Set("columns", DefaultColumns)
	return nil
}

// SaveConfig writes the current config to ~/.countboard/config.yaml.
func SaveConfig() error {
	dir := configDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}

	return nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return filepath.Join(configDir(), "config.yaml")
}

// ShowConfig returns a formatted string of the current configuration.
func ShowConfig() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Config: %s\n\n", ConfigPath()))

	sb.WriteString("Source\n")
	workbook := viper.GetString("workbook")
	if workbook == "" {
		workbook = "(not set)"
	}
	sb.WriteString(fmt.Sprintf("  workbook:  %s\n", workbook))
	if s := viper.GetString("sheet"); s != "" {
		sb.WriteString(fmt.Sprintf("  sheet:     %s\n", s))
	}
	if l := viper.GetString("layout"); l != "" {
		sb.WriteString(fmt.Sprintf("  layout:    %s\n", l))
	}
	sb.WriteString("\n")

	sb.WriteString("Polling\n")
	sb.WriteString(fmt.Sprintf("  interval:  %s\n", viper.GetDuration("interval")))
	sb.WriteString(fmt.Sprintf("  history:   %s\n", viper.GetDuration("history_window")))
	sb.WriteString(fmt.Sprintf("  watch:     %v\n", viper.GetBool("watch")))
	sb.WriteString("\n")

	sb.WriteString("Dashboard\n")
	sb.WriteString(fmt.Sprintf("  listen:    %s\n", viper.GetString("listen")))
	sb.WriteString(fmt.Sprintf("  title:     %s\n", viper.GetString("title")))
	sb.WriteString(fmt.Sprintf("  columns:   %d\n", viper.GetInt("columns")))

	return sb.String()
}
