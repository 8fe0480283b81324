package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Browser    BrowserConfig    `yaml:"browser"`
	Automation AutomationConfig `yaml:"automation"`
	Files      FilesConfig      `yaml:"files"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type BrowserConfig struct {
	Headless         bool   `yaml:"headless"`
	UserDataDir      string `yaml:"user_data_dir"`
	ChromePath       string `yaml:"chrome_path"`
	Locale           string `yaml:"locale"`
	QRTimeoutSeconds int    `yaml:"qr_timeout_seconds"`
	PageLoadTimeout  int    `yaml:"page_load_timeout"`
}

type AutomationConfig struct {
	MinIntervalSeconds int  `yaml:"min_interval_seconds"`
	MaxIntervalSeconds int  `yaml:"max_interval_seconds"`
	KeepBrowserOpen    bool `yaml:"keep_browser_open"`
}

type FilesConfig struct {
	ContactsCSVPath  string `yaml:"contacts_csv_path"`
	MessagesPath     string `yaml:"messages_path"`
	SelectorsPath    string `yaml:"selectors_path"`
	CompletedCSVPath string `yaml:"completed_csv_path"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	OutputFile string `yaml:"output_file"`
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if not specified
	if config.Browser.UserDataDir == "" {
		config.Browser.UserDataDir = "./chrome-data"
	}

	// Chrome refuses relative profile paths in some setups
	absPath, err := filepath.Abs(config.Browser.UserDataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user data directory path: %w", err)
	}
	config.Browser.UserDataDir = absPath

	if config.Browser.ChromePath == "" {
		config.Browser.ChromePath = findChromePath()
	}
	if config.Browser.Locale == "" {
		config.Browser.Locale = "en-US"
	}
	if config.Browser.QRTimeoutSeconds == 0 {
		config.Browser.QRTimeoutSeconds = 60
	}
	if config.Browser.PageLoadTimeout == 0 {
		config.Browser.PageLoadTimeout = 30
	}
	if config.Automation.MinIntervalSeconds == 0 {
		config.Automation.MinIntervalSeconds = 20
	}
	if config.Automation.MaxIntervalSeconds == 0 {
		config.Automation.MaxIntervalSeconds = 45
	}
	if config.Files.SelectorsPath == "" {
		config.Files.SelectorsPath = "selectors.json"
	}
	if config.Files.CompletedCSVPath == "" {
		config.Files.CompletedCSVPath = "completed.csv"
	}

	return &config, nil
}

// findChromePath attempts to locate a Chrome executable on the system.
// Returns empty string to let chromedp use its own lookup.
func findChromePath() string {
	switch runtime.GOOS {
	case "windows":
		paths := []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			os.Getenv("LOCALAPPDATA") + `\Google\Chrome\Application\chrome.exe`,
		}
		for _, path := range paths {
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	case "darwin":
		paths := []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}
		for _, path := range paths {
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	default:
		for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"} {
			if path, err := exec.LookPath(name); err == nil {
				return path
			}
		}
	}
	return ""
}
